// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces. No framework
// code, no external service specifics - just the pipeline's decision logic.
package usecases

import (
	"fmt"
	"strings"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// NoTermsMarker is rendered for a source that yielded zero results, including
// sources absorbed after a retrieval failure.
const NoTermsMarker = "no terms found"

// AssembleContext merges per-source retrieval results into ordered text
// blocks. Pure formatting: identical inputs always render identical output,
// independent of how the retrievals completed. Iteration follows the given
// source order, never map order.
func AssembleContext(order []string, bySource map[string][]entities.RetrievalResult) entities.AssembledContext {
	ctx := make(entities.AssembledContext, 0, len(order))
	for _, source := range order {
		results := bySource[source]
		if len(results) == 0 {
			ctx = append(ctx, entities.SourceContext{Source: source, Text: NoTermsMarker})
			continue
		}
		lines := make([]string, len(results))
		for i, r := range results {
			lines[i] = renderTerm(r.Term)
		}
		ctx = append(ctx, entities.SourceContext{Source: source, Text: strings.Join(lines, "\n")})
	}
	return ctx
}

// renderTerm formats one reference term as "term (identifier, class N)".
// Class numbers outside 1-45 render as "Unknown".
func renderTerm(t entities.ReferenceTerm) string {
	id := t.LocalID
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("%s (%s, class %s)", t.Term, id, t.ClassLabel())
}
