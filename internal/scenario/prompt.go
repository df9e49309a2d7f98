package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/persona/internal/dimension"
)

const systemPrompt = `You write situational-judgement items for an entrepreneurial personality assessment.

Rules:
- Describe one realistic business situation in plain language, two or three sentences.
- Ask what the respondent would do.
- Provide exactly 4 answers ordered from the weakest to the strongest expression of the trait.
- Every answer must be a plausible, socially acceptable choice. Avoid obviously right or wrong answers.
- Keep each answer under 20 words.
- Match the requested difficulty: low difficulty means everyday situations, high difficulty means high-stakes situations where even the strongest answer carries real cost.
- Do not mention the trait name or the assessment.`

// buildUserMessage constructs the generation prompt for one dimension.
func buildUserMessage(dim dimension.Dimension, difficulty float64, bc map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Trait: %s\n", dim.Name)
	fmt.Fprintf(&b, "Description: %s\n", dim.Description)
	fmt.Fprintf(&b, "Difficulty: %.1f (scale -3 to +3)\n", difficulty)

	b.WriteString("\nBusiness context:\n")
	b.WriteString(buildContext(bc))
	return b.String()
}

// buildContext renders the business context in stable key order.
func buildContext(bc map[string]string) string {
	if len(bc) == 0 {
		return "None"
	}
	keys := make([]string, 0, len(bc))
	for k := range bc {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, bc[k])
	}
	return strings.TrimRight(b.String(), "\n")
}
