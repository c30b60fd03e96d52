package usecases

import (
	"fmt"
	"strings"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
)

// PromptVersion identifies the reasoning request template. The template is
// part of the external contract: changing its wording changes observable
// answers, so any edit must bump this string.
const PromptVersion = "v1"

// ComposePrompt builds the single structured request handed to the reasoning
// oracle from the query, the assembled per-source context and the rule
// engine's findings.
func ComposePrompt(q entities.Query, ctx entities.AssembledContext, f Findings) string {
	var sb strings.Builder

	sb.WriteString("You are a Nice Classification expert assisting trademark filers and examiners. ")
	sb.WriteString("Answer in English, French or Spanish, matching the language of the term. ")
	sb.WriteString("(template " + PromptVersion + ")\n\n")

	sb.WriteString("Reference terms retrieved per knowledge source:\n")
	for _, block := range ctx {
		sb.WriteString("[" + block.Source + "]\n")
		sb.WriteString(block.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	writeFindings(&sb, f)

	sb.WriteString("Term to classify: ")
	sb.WriteString(q.Text)
	if q.Language != "" {
		sb.WriteString(" (language hint: " + q.Language + ")")
	}
	sb.WriteString("\n\n")

	sb.WriteString("Respond with exactly one line in one of these two forms:\n")
	sb.WriteString("Class: <1-45> - <explanation>\n")
	sb.WriteString("Assessment: <TV|TC|TI> - <explanation> [Correction: <term>]\n")
	sb.WriteString("TV means too vague, TC means linguistically incorrect, TI means incomprehensible. ")
	sb.WriteString("Include the bracketed correction only for TC when a corrected term exists. ")
	sb.WriteString("If the term is misspelled or malformed relative to the reference terms, you must report TC with the correction even when the intended class is obvious.\n")

	return sb.String()
}

// writeFindings renders the active rule-engine flags as oracle instructions.
func writeFindings(sb *strings.Builder, f Findings) {
	if f.Divergence != nil {
		labels := make([]string, len(f.Divergence.Classes))
		for i, c := range f.Divergence.Classes {
			labels[i] = entities.FormatClass(c)
		}
		fmt.Fprintf(sb,
			"The retrieved evidence spans multiple classes (%s) with no dominant match. You must report the term as too vague: respond with Assessment: TV.\n",
			strings.Join(labels, ", "))
	}
	if len(f.LinguisticTokens) > 0 {
		fmt.Fprintf(sb, "Possible linguistic errors in the term: %s.", strings.Join(f.LinguisticTokens, ", "))
		if f.SuggestedTerm != "" {
			fmt.Fprintf(sb, " A likely intended form is %q.", f.SuggestedTerm)
		}
		sb.WriteString("\n")
	}
	if f.Vague {
		sb.WriteString("The term is a bare category noun and is likely too vague on its own.\n")
	}
	if f.Incomprehensible {
		sb.WriteString("The term failed basic tokenization; it may be incomprehensible.\n")
	}
	if f.NoCorpusEvidence {
		sb.WriteString("No corpus evidence was found for this term. Do not cite reference sources in your explanation.\n")
	}
	if f.Divergence != nil || len(f.LinguisticTokens) > 0 || f.Vague || f.Incomprehensible || f.NoCorpusEvidence {
		sb.WriteString("\n")
	}
}
