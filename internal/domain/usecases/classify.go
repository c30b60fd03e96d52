package usecases

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
	"github.com/nicemagician/nice-classification/internal/domain/ports"
)

// DefaultTopK is the per-source retrieval depth.
const DefaultTopK = 5

// Classifier runs the retrieval-and-disambiguation pipeline for one query at
// a time: embed, fan out to every knowledge source, assemble context, apply
// the rule engine, consult the oracle and format the structured answer.
// Stateless across requests; all handles are injected.
type Classifier struct {
	embedder ports.Embedder
	sources  []ports.KnowledgeSource
	oracle   ports.ReasoningOracle
	rules    *RuleEngine
	topK     int
	log      *zap.Logger
}

// NewClassifier creates a Classifier with injected dependencies.
func NewClassifier(
	embedder ports.Embedder,
	sources []ports.KnowledgeSource,
	oracle ports.ReasoningOracle,
	rules *RuleEngine,
	topK int,
	log *zap.Logger,
) *Classifier {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if rules == nil {
		rules = NewRuleEngine(DefaultRuleConfig())
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		embedder: embedder,
		sources:  sources,
		oracle:   oracle,
		rules:    rules,
		topK:     topK,
		log:      log,
	}
}

// Classify processes a single query end to end.
func (c *Classifier) Classify(ctx context.Context, q entities.Query) (*entities.ClassifiedAnswer, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, entities.NewError(entities.ErrInvalidInput, "query text must be non-empty", nil)
	}

	vector, err := c.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fatal(err, entities.ErrEmbeddingUnavailable, "embedding query")
	}

	order, bySource := c.retrieve(ctx, vector)
	if err := ctx.Err(); err != nil {
		return nil, fatal(err, entities.ErrTimeout, "retrieval")
	}

	merged := mergeResults(order, bySource)
	findings := c.rules.Evaluate(q, merged)
	assembled := AssembleContext(order, bySource)

	c.log.Info("query evaluated",
		zap.Int("results", len(merged)),
		zap.Bool("divergence", findings.Divergence != nil),
		zap.Bool("no_corpus_evidence", findings.NoCorpusEvidence),
		zap.Strings("linguistic_tokens", findings.LinguisticTokens),
	)

	prompt := ComposePrompt(q, assembled, findings)
	raw, err := c.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, fatal(err, entities.ErrOracleUnavailable, "consulting oracle")
	}

	listing := entities.Listing(merged)

	// Divergence is resolved locally: the engine already holds the exact
	// class numbers, so the fixed-template assessment is the answer. The
	// oracle was still consulted (primed to report TV) and its text is kept
	// in the logs for audit.
	if findings.Divergence != nil {
		c.log.Info("class divergence corroboration", zap.String("oracle_response", raw))
		return &entities.ClassifiedAnswer{
			Assessment: &entities.ProblemAssessment{
				Kind:        entities.ProblemClassDivergence,
				Explanation: DivergenceExplanation(findings.Divergence.Classes),
			},
			Retrieved: listing,
		}, nil
	}

	classification, assessment, err := ParseAnswer(raw)
	if err != nil {
		return nil, err
	}
	if classification != nil {
		classification.Sources = contributingSources(order, bySource)
	}

	return &entities.ClassifiedAnswer{
		Classification: classification,
		Assessment:     assessment,
		Retrieved:      listing,
	}, nil
}

// retrieve fans out the similarity search to every source concurrently and
// awaits all results. A failed source degrades to zero results with a warning
// rather than failing the query; only context cancellation aborts.
func (c *Classifier) retrieve(ctx context.Context, vector []float32) ([]string, map[string][]entities.RetrievalResult) {
	order := make([]string, len(c.sources))
	perSource := make([][]entities.RetrievalResult, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		i, src := i, src
		order[i] = src.Name()
		g.Go(func() error {
			results, err := src.Search(gctx, vector, c.topK)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Warn("knowledge source degraded",
					zap.String("source", src.Name()),
					zap.Error(entities.NewError(entities.ErrSourceUnavailable, src.Name(), err)),
				)
				return nil
			}
			perSource[i] = results
			return nil
		})
	}
	// The only group error is context cancellation, which the caller checks.
	_ = g.Wait()

	bySource := make(map[string][]entities.RetrievalResult, len(order))
	for i, name := range order {
		bySource[name] = perSource[i]
	}
	return order, bySource
}

// mergeResults flattens per-source results in configured source order so the
// merged view is deterministic regardless of completion order.
func mergeResults(order []string, bySource map[string][]entities.RetrievalResult) []entities.RetrievalResult {
	var merged []entities.RetrievalResult
	for _, name := range order {
		merged = append(merged, bySource[name]...)
	}
	return merged
}

// contributingSources lists the sources that returned at least one result.
func contributingSources(order []string, bySource map[string][]entities.RetrievalResult) []string {
	var names []string
	for _, name := range order {
		if len(bySource[name]) > 0 {
			names = append(names, name)
		}
	}
	return names
}

// fatal wraps an adapter error as the given pipeline kind, except that an
// elapsed deadline always surfaces as Timeout: an abandoned query must never
// be reported as a service failure.
func fatal(err error, kind entities.ErrorKind, message string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = entities.ErrTimeout
	}
	return entities.NewError(kind, message, err)
}
