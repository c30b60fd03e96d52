package usecases

import (
	"strings"
	"testing"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

func TestComposePrompt_CarriesVersionAndContract(t *testing.T) {
	prompt := ComposePrompt(entities.Query{Text: "computers"}, nil, Findings{})

	if !strings.Contains(prompt, "template "+PromptVersion) {
		t.Error("prompt should embed its template version")
	}
	if !strings.Contains(prompt, "Class: <1-45> - <explanation>") {
		t.Error("prompt should state the classification response shape")
	}
	if !strings.Contains(prompt, "Assessment: <TV|TC|TI> - <explanation> [Correction: <term>]") {
		t.Error("prompt should state the assessment response shape")
	}
}

func TestComposePrompt_RendersSourceBlocksInOrder(t *testing.T) {
	ctx := entities.AssembledContext{
		{Source: "alphabetical", Text: "computers (1, class 9)"},
		{Source: "ipos", Text: NoTermsMarker},
	}

	prompt := ComposePrompt(entities.Query{Text: "computers"}, ctx, Findings{})

	a := strings.Index(prompt, "[alphabetical]")
	b := strings.Index(prompt, "[ipos]")
	if a < 0 || b < 0 || a > b {
		t.Errorf("source blocks missing or out of order: a=%d b=%d", a, b)
	}
	if !strings.Contains(prompt, NoTermsMarker) {
		t.Error("empty source marker should survive composition")
	}
}

func TestComposePrompt_DivergencePrimesTV(t *testing.T) {
	f := Findings{Divergence: &DivergenceFinding{Classes: []int{9, 29}}}

	prompt := ComposePrompt(entities.Query{Text: "chips"}, nil, f)

	if !strings.Contains(prompt, "multiple classes (9, 29)") {
		t.Error("divergence instruction should list the classes")
	}
	if !strings.Contains(prompt, "respond with Assessment: TV") {
		t.Error("divergence should carry the must-report-TV instruction")
	}
}

func TestComposePrompt_AdvisoryFlags(t *testing.T) {
	f := Findings{
		LinguisticTokens: []string{"computerz"},
		SuggestedTerm:    "computers",
		Vague:            true,
		Incomprehensible: true,
		NoCorpusEvidence: true,
	}

	prompt := ComposePrompt(entities.Query{Text: "computerz", Language: "en"}, nil, f)

	for _, want := range []string{
		"Possible linguistic errors in the term: computerz",
		`A likely intended form is "computers"`,
		"bare category noun",
		"failed basic tokenization",
		"No corpus evidence",
		"language hint: en",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestComposePrompt_Deterministic(t *testing.T) {
	q := entities.Query{Text: "chips"}
	ctx := entities.AssembledContext{{Source: "alphabetical", Text: "a (1, class 9)"}}
	f := Findings{Divergence: &DivergenceFinding{Classes: []int{9, 29}}}

	first := ComposePrompt(q, ctx, f)
	for i := 0; i < 10; i++ {
		if ComposePrompt(q, ctx, f) != first {
			t.Fatal("prompt composition must be deterministic")
		}
	}
}
