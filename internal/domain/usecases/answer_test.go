package usecases

import (
	"strings"
	"testing"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

func TestParseAnswer_Classification(t *testing.T) {
	result, assessment, err := ParseAnswer("Class: 9 - electronic apparatus and computers")

	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if assessment != nil {
		t.Fatal("classification response must not produce an assessment")
	}
	if result.Class != 9 {
		t.Errorf("expected class 9, got %d", result.Class)
	}
	if result.Explanation != "electronic apparatus and computers" {
		t.Errorf("unexpected explanation: %q", result.Explanation)
	}
}

func TestParseAnswer_BareClassNumber(t *testing.T) {
	result, _, err := ParseAnswer("Class: 9")

	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Class != 9 || result.Explanation != "" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestParseAnswer_AssessmentRoundTrip(t *testing.T) {
	explanation := "the term contains a spelling error"
	_, assessment, err := ParseAnswer("Assessment: TC - " + explanation)

	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if assessment.Kind != entities.ProblemLinguisticError {
		t.Errorf("expected TC kind, got %s", assessment.Kind)
	}
	if assessment.Explanation != explanation {
		t.Errorf("explanation changed in round trip: %q", assessment.Explanation)
	}
	if assessment.CorrectedTerm != "" {
		t.Errorf("no correction given, got %q", assessment.CorrectedTerm)
	}
}

func TestParseAnswer_AssessmentWithCorrection(t *testing.T) {
	_, assessment, err := ParseAnswer("Assessment: TC - misspelled term [Correction: computers]")

	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if assessment.CorrectedTerm != "computers" {
		t.Errorf("expected correction 'computers', got %q", assessment.CorrectedTerm)
	}
	if assessment.Explanation != "misspelled term" {
		t.Errorf("correction marker should be stripped, got %q", assessment.Explanation)
	}
}

func TestParseAnswer_AllAssessmentCodes(t *testing.T) {
	cases := map[string]entities.ProblemKind{
		"Assessment: TV - too vague":        entities.ProblemTooVague,
		"Assessment: TC - misspelled":       entities.ProblemLinguisticError,
		"Assessment: TI - incomprehensible": entities.ProblemIncomprehensible,
	}
	for raw, want := range cases {
		_, assessment, err := ParseAnswer(raw)
		if err != nil {
			t.Fatalf("parse %q failed: %v", raw, err)
		}
		if assessment.Kind != want {
			t.Errorf("%q: expected %s, got %s", raw, want, assessment.Kind)
		}
	}
}

func TestParseAnswer_MarkdownFencesStripped(t *testing.T) {
	result, _, err := ParseAnswer("```\nClass: 25 - clothing\n```")

	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Class != 25 {
		t.Errorf("expected class 25, got %d", result.Class)
	}
}

func TestParseAnswer_CaseInsensitivePrefix(t *testing.T) {
	result, _, err := ParseAnswer("class: 3 - cosmetics")
	if err != nil || result.Class != 3 {
		t.Errorf("lowercase prefix should parse, got %+v %v", result, err)
	}

	_, assessment, err := ParseAnswer("assessment: tv - vague")
	if err != nil || assessment.Kind != entities.ProblemTooVague {
		t.Errorf("lowercase code should parse, got %+v %v", assessment, err)
	}
}

func TestParseAnswer_UnrecognizedShapeFails(t *testing.T) {
	raw := "It is probably class 9, but I am not sure."
	_, _, err := ParseAnswer(raw)

	if entities.KindOf(err) != entities.ErrUnparsableResponse {
		t.Fatalf("expected unparsable_response, got %v", err)
	}
	if !strings.Contains(err.Error(), raw) {
		t.Error("verbatim response must be surfaced")
	}
}

func TestParseAnswer_ClassOutOfRangeFails(t *testing.T) {
	for _, raw := range []string{"Class: 0 - nothing", "Class: 46 - beyond", "Class: nine - words"} {
		if _, _, err := ParseAnswer(raw); entities.KindOf(err) != entities.ErrUnparsableResponse {
			t.Errorf("%q should fail as unparsable, got %v", raw, err)
		}
	}
}

func TestParseAnswer_UnknownAssessmentCodeFails(t *testing.T) {
	if _, _, err := ParseAnswer("Assessment: XX - mystery"); entities.KindOf(err) != entities.ErrUnparsableResponse {
		t.Errorf("unknown code should fail as unparsable, got %v", err)
	}
}
