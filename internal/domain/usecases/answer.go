package usecases

import (
	"strconv"
	"strings"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// ParseAnswer parses the oracle's raw text into the tagged result union.
// Exactly two response shapes are recognized:
//
//	Class: <1-45> - <explanation>
//	Assessment: <TV|TC|TI> - <explanation> [Correction: <term>]
//
// Anything else fails with UnparsableResponse carrying the verbatim text, so
// the failure stays diagnosable. There is no best-effort recovery: a guessed
// classification is worse than a visible parse failure.
func ParseAnswer(raw string) (*entities.ClassificationResult, *entities.ProblemAssessment, error) {
	text := stripFences(raw)

	if rest, ok := cutPrefixFold(text, "Class:"); ok {
		result, err := parseClassification(rest, raw)
		if err != nil {
			return nil, nil, err
		}
		return result, nil, nil
	}

	if rest, ok := cutPrefixFold(text, "Assessment:"); ok {
		assessment, err := parseAssessment(rest, raw)
		if err != nil {
			return nil, nil, err
		}
		return nil, assessment, nil
	}

	return nil, nil, entities.NewError(entities.ErrUnparsableResponse,
		"response matches neither Class nor Assessment shape: "+raw, nil)
}

func parseClassification(rest, raw string) (*entities.ClassificationResult, error) {
	num, explanation := splitDash(rest)
	class, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || class < entities.MinClass || class > entities.MaxClass {
		return nil, entities.NewError(entities.ErrUnparsableResponse,
			"class number out of range in response: "+raw, nil)
	}
	return &entities.ClassificationResult{Class: class, Explanation: explanation}, nil
}

func parseAssessment(rest, raw string) (*entities.ProblemAssessment, error) {
	code, explanation := splitDash(rest)

	var kind entities.ProblemKind
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "TV":
		kind = entities.ProblemTooVague
	case "TC":
		kind = entities.ProblemLinguisticError
	case "TI":
		kind = entities.ProblemIncomprehensible
	default:
		return nil, entities.NewError(entities.ErrUnparsableResponse,
			"unknown assessment code in response: "+raw, nil)
	}

	explanation, corrected := extractCorrection(explanation)
	return &entities.ProblemAssessment{
		Kind:          kind,
		Explanation:   explanation,
		CorrectedTerm: corrected,
	}, nil
}

// extractCorrection strips a trailing "[Correction: term]" marker.
func extractCorrection(explanation string) (string, string) {
	open := strings.LastIndex(explanation, "[Correction:")
	if open < 0 {
		return explanation, ""
	}
	end := strings.Index(explanation[open:], "]")
	if end < 0 {
		return explanation, ""
	}
	term := strings.TrimSpace(explanation[open+len("[Correction:") : open+end])
	rest := strings.TrimSpace(explanation[:open] + explanation[open+end+1:])
	return rest, term
}

// splitDash splits "code - explanation" on the first dash separator.
func splitDash(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "-"); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding on the prefix.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// stripFences removes surrounding markdown code fences the oracle sometimes
// wraps responses in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
