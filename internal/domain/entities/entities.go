// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "strconv"

// ClassUnknown marks a reference term whose class number could not be parsed.
// Such terms render as "Unknown" instead of failing the query.
const ClassUnknown = 0

// MinClass and MaxClass bound the Nice Classification taxonomy.
const (
	MinClass = 1
	MaxClass = 45
)

// Query is the input unit of work: a free-text goods/services description.
type Query struct {
	Text     string
	Language string // optional hint, e.g. "en", "fr", "es"
}

// ReferenceTerm is an immutable curated term loaded at ingestion time.
type ReferenceTerm struct {
	Term        string
	Description string
	Class       int    // 1-45, or ClassUnknown
	Language    string // language code, e.g. "en"
	Source      string // knowledge source tag, e.g. "alphabetical"
	LocalID     string // source-local identifier, e.g. basic number
}

// ClassLabel returns the display form of the class number.
func (t ReferenceTerm) ClassLabel() string {
	return FormatClass(t.Class)
}

// RetrievalResult is one similarity-search hit, ephemeral to a single query.
type RetrievalResult struct {
	Term  ReferenceTerm
	Score float64 // cosine similarity, 0.0-1.0
}

// SourceContext is the rendered retrieval context for one knowledge source.
type SourceContext struct {
	Source string
	Text   string
}

// AssembledContext is the ordered per-source context, rebuilt every query.
type AssembledContext []SourceContext

// ProblemKind identifies why a term could not be safely classified.
type ProblemKind string

const (
	ProblemTooVague         ProblemKind = "TV"
	ProblemLinguisticError  ProblemKind = "TC"
	ProblemIncomprehensible ProblemKind = "TI"
	ProblemClassDivergence  ProblemKind = "CD"
)

// ProblemAssessment is the structured diagnostic returned instead of a class.
type ProblemAssessment struct {
	Kind          ProblemKind `json:"kind"`
	Explanation   string      `json:"explanation"`
	CorrectedTerm string      `json:"corrected_term,omitempty"`
}

// ClassificationResult is the terminal success output.
type ClassificationResult struct {
	Class       int      `json:"class"`
	Explanation string   `json:"explanation"`
	Sources     []string `json:"sources,omitempty"`
}

// SourceListing is one raw retrieval entry kept for auditability.
type SourceListing struct {
	Term    string  `json:"term"`
	LocalID string  `json:"id"`
	Class   string  `json:"class"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

// ClassifiedAnswer is the unit returned to the caller. Exactly one of
// Classification and Assessment is non-nil.
type ClassifiedAnswer struct {
	Classification *ClassificationResult `json:"classification,omitempty"`
	Assessment     *ProblemAssessment    `json:"assessment,omitempty"`
	Retrieved      []SourceListing       `json:"retrieved"`
}

// Listing converts retrieval results into their audit listing form.
func Listing(results []RetrievalResult) []SourceListing {
	out := make([]SourceListing, len(results))
	for i, r := range results {
		out[i] = SourceListing{
			Term:    r.Term.Term,
			LocalID: r.Term.LocalID,
			Class:   r.Term.ClassLabel(),
			Score:   r.Score,
			Source:  r.Term.Source,
		}
	}
	return out
}

// ParseClass parses a stored class-number field. Source files carry the value
// inconsistently ("9", "9.0", ""); anything unparseable or out of range maps
// to ClassUnknown rather than an error.
func ParseClass(raw string) int {
	if raw == "" {
		return ClassUnknown
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n >= MinClass && n <= MaxClass {
			return n
		}
		return ClassUnknown
	}
	// Stored floating-point class numbers ("9.0") collapse to integers.
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		n := int(f)
		if n >= MinClass && n <= MaxClass {
			return n
		}
	}
	return ClassUnknown
}

// FormatClass returns the display form of a class number.
func FormatClass(class int) string {
	if class < MinClass || class > MaxClass {
		return "Unknown"
	}
	return strconv.Itoa(class)
}
