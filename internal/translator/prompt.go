package translator

import (
	"fmt"
	"strings"
	"time"
)

const extractionSystem = `You translate questions about shipment bookings into a JSON query.
Respond with ONE JSON object and nothing else. Schema:
{
  "intent": "report|table|chart|search|export|analysis|clarification",
  "filters": {
    "date_from": "YYYY-MM-DD, YYYY-MM, or a relative phrase like 'last quarter'",
    "date_to": "same forms as date_from, empty if open-ended",
    "client": "client name or code fragment, empty if none",
    "origin_port": "load port, port description, or country",
    "destination_port": "discharge port, port description, or country",
    "trade": "trade lane keyword, e.g. 'asia', empty if none",
    "status": "empty unless the user explicitly asks: all|active|cancelled",
    "commodity": "commodity description fragment, empty if none",
    "hazardous": false, "refrigerated": false, "oversized": false
  },
  "group_by": "client|origin_port|destination_port|origin_country|destination_country|trade|month|status|commodity",
  "metric": "bookings|teu|units|weight",
  "level": "booking|detail",
  "ambiguous": false,
  "clarification": "question to ask the user, only when ambiguous is true"
}
Rules:
- Leave "status" empty unless the user explicitly mentions cancelled or all bookings.
- Use metric "teu" for volume questions, "units" for container/unit counts, "weight" for weight.
- If several referents are equally plausible (e.g. two clients could match), set ambiguous=true and write a short clarification question instead of guessing.`

// buildExtractionPrompt assembles the user prompt: the current date anchors
// relative expressions, recent turns give the model pronoun referents.
func buildExtractionPrompt(question string, history []Turn, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current date: %s\n", now.Format(dateLayout))

	if len(history) > 0 {
		sb.WriteString("\nRecent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n\nJSON:", question)
	return sb.String()
}
