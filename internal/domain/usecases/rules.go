package usecases

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// RuleConfig parameterizes the pre-classification rule engine.
//
// RelevanceThreshold is the minimum similarity for a retrieval hit to count
// as evidence in the divergence check. DominanceMargin is how far the best
// score of the leading class must exceed the best score of every rival class
// for that class to dominate; below the margin the term is class-divergent.
// The original system left both implicit in prompt text; here they are
// explicit design parameters.
type RuleConfig struct {
	RelevanceThreshold float64
	DominanceMargin    float64
	VagueTerms         []string
}

// DefaultRuleConfig returns the engine defaults.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		RelevanceThreshold: 0.75,
		DominanceMargin:    0.10,
		VagueTerms: []string{
			"goods", "services", "products", "items", "equipment",
			"machines", "accessories", "materials", "apparatus", "supplies",
		},
	}
}

// DivergenceFinding records cross-source class disagreement.
type DivergenceFinding struct {
	Classes []int // distinct above-threshold classes, ascending
}

// Findings is the rule engine's output. Divergence is the only locally
// terminal condition; the remaining fields are advisory annotations that
// pre-seed the reasoning request.
type Findings struct {
	Divergence       *DivergenceFinding
	LinguisticTokens []string
	SuggestedTerm    string
	Vague            bool
	Incomprehensible bool
	NoCorpusEvidence bool
}

// RuleEngine applies vagueness, linguistic-error and incomprehensibility
// heuristics plus the cross-source class-divergence check.
type RuleEngine struct {
	cfg   RuleConfig
	vague map[string]bool
}

// NewRuleEngine creates a rule engine. Zero-valued config fields fall back to
// the defaults.
func NewRuleEngine(cfg RuleConfig) *RuleEngine {
	def := DefaultRuleConfig()
	if cfg.RelevanceThreshold <= 0 {
		cfg.RelevanceThreshold = def.RelevanceThreshold
	}
	if cfg.DominanceMargin <= 0 {
		cfg.DominanceMargin = def.DominanceMargin
	}
	if len(cfg.VagueTerms) == 0 {
		cfg.VagueTerms = def.VagueTerms
	}
	vague := make(map[string]bool, len(cfg.VagueTerms))
	for _, t := range cfg.VagueTerms {
		vague[strings.ToLower(t)] = true
	}
	return &RuleEngine{cfg: cfg, vague: vague}
}

// Evaluate runs all checks against a query and the merged retrieval results
// of every source. It never errors: defective queries become findings, and
// an empty result set becomes the no-corpus-evidence flag.
func (e *RuleEngine) Evaluate(q entities.Query, results []entities.RetrievalResult) Findings {
	f := Findings{NoCorpusEvidence: len(results) == 0}

	f.Divergence = e.checkDivergence(results)

	tokens := tokenize(q.Text)
	f.LinguisticTokens, f.SuggestedTerm = e.checkLinguistic(tokens, results)
	f.Vague = len(tokens) == 1 && e.vague[tokens[0]]
	f.Incomprehensible = checkIncomprehensible(q.Text, tokens)

	return f
}

// checkDivergence collects distinct classes among hits at or above the
// relevance threshold. Two or more classes diverge unless the leading class
// beats the best score of every rival by at least the dominance margin.
func (e *RuleEngine) checkDivergence(results []entities.RetrievalResult) *DivergenceFinding {
	best := make(map[int]float64)
	for _, r := range results {
		if r.Score < e.cfg.RelevanceThreshold || r.Term.Class == entities.ClassUnknown {
			continue
		}
		if r.Score > best[r.Term.Class] {
			best[r.Term.Class] = r.Score
		}
	}
	if len(best) < 2 {
		return nil
	}

	leadClass, leadScore := 0, -1.0
	for class, score := range best {
		if score > leadScore || (score == leadScore && class < leadClass) {
			leadClass, leadScore = class, score
		}
	}

	dominates := true
	for class, score := range best {
		if class == leadClass {
			continue
		}
		if leadScore-score < e.cfg.DominanceMargin {
			dominates = false
			break
		}
	}
	if dominates {
		return nil
	}

	classes := make([]int, 0, len(best))
	for class := range best {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return &DivergenceFinding{Classes: classes}
}

// DivergenceExplanation is the fixed template for class-divergence
// assessments. Tests depend on its exact wording.
func DivergenceExplanation(classes []int) string {
	labels := make([]string, len(classes))
	for i, c := range classes {
		labels[i] = entities.FormatClass(c)
	}
	return fmt.Sprintf(
		"the term matches goods or services in multiple Nice classes (%s) with no dominant match; it cannot be classified without clarification",
		strings.Join(labels, ", "))
}

// checkLinguistic flags query tokens that look like misspellings of retrieved
// terms, malformed possessives, or ASCII noise inside wordlike tokens. The
// check is advisory: corrected-term suggestion ultimately belongs to the
// oracle, these findings only pre-seed it.
func (e *RuleEngine) checkLinguistic(tokens []string, results []entities.RetrievalResult) ([]string, string) {
	corpus := corpusTokens(results)

	var flagged []string
	suggested := ""
	for _, tok := range tokens {
		switch {
		case malformedPossessive(tok), asciiNoise(tok):
			flagged = append(flagged, tok)
		case len(tok) >= 4 && !corpus[tok]:
			if near := nearestCorpusToken(tok, corpus); near != "" {
				flagged = append(flagged, tok)
				if suggested == "" {
					suggested = near
				}
			}
		}
	}
	return flagged, suggested
}

// corpusTokens collects the lowercase token set of all retrieved term texts.
func corpusTokens(results []entities.RetrievalResult) map[string]bool {
	set := make(map[string]bool)
	for _, r := range results {
		for _, tok := range tokenize(r.Term.Term) {
			set[tok] = true
		}
	}
	return set
}

// nearestCorpusToken returns the closest corpus token within edit distance 2
// that shares the first letter, or "" when none qualifies.
func nearestCorpusToken(tok string, corpus map[string]bool) string {
	bestDist := 3
	best := ""
	for cand := range corpus {
		if len(cand) < 4 || cand[0] != tok[0] {
			continue
		}
		if d := levenshtein(tok, cand); d > 0 && d < bestDist {
			bestDist = d
			best = cand
		} else if d == bestDist && d > 0 && (best == "" || cand < best) {
			best = cand
		}
	}
	return best
}

func malformedPossessive(tok string) bool {
	return strings.Contains(tok, "''") ||
		strings.HasSuffix(tok, "'") ||
		strings.Count(tok, "'") > 1
}

// asciiNoise reports tokens that mix letters with stray symbol characters,
// e.g. "comp#ters".
func asciiNoise(tok string) bool {
	letters, noise := 0, 0
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			letters++
		case r == '\'' || r == '-':
			// legitimate in-word punctuation
		default:
			noise++
		}
	}
	return letters > 0 && noise > 0
}

// checkIncomprehensible reports a query with no recognizable words: either no
// letters at all, or every token vowelless. Tokens with non-ASCII letters are
// assumed comprehensible; vowel structure is only meaningful for ASCII text.
func checkIncomprehensible(text string, tokens []string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return true
	}
	for _, tok := range tokens {
		if hasVowelOrNonASCII(tok) {
			return false
		}
	}
	return len(tokens) > 0
}

func hasVowelOrNonASCII(tok string) bool {
	for _, r := range tok {
		if r > unicode.MaxASCII {
			return true
		}
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'y':
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on anything that is not a letter, digit,
// apostrophe or hyphen. Symbol characters are kept attached to adjacent
// letters so the noise check can see them.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == '.' || r == '/'
	})
}

// levenshtein computes edit distance between two short tokens.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
