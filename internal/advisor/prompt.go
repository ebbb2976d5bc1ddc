package advisor

import (
	"fmt"
	"strings"

	"github.com/talgya/aisleflow/internal/traffic"
)

const systemPrompt = `You are a Retail Merchandising AI. Your goal is to optimize product placement without expensive construction.

Respond ONLY in the format requested. Refer to sections by their product names (e.g. "Meat", "Dairy", "Frozen"), never by grid letters.`

// BuildPrompt renders the layout and traffic report for the model.
func BuildPrompt(rows []string, summary traffic.Summary) string {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}

	var b strings.Builder
	b.WriteString("CURRENT LAYOUT (ASCII):\n")
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n\nTRAFFIC REPORT:\n")
	b.WriteString(summary.Report())
	fmt.Fprintf(&b, `

STRATEGY:
1. "Merchandising": Swap product categories on existing shelves to balance traffic. Move high-traffic items away from congestion.
2. "Dead Spots": If a floor area has 0 traffic, move a popular item nearby to draw shoppers in.
3. Prefer gentle changes over drastic shifts in the store layout.

ABSOLUTE RESTRICTIONS:
1. Perimeter walls (#) in row 0, row %[1]d, column 0, and column %[2]d must remain unchanged.
2. Maintain exactly %[3]d rows and %[4]d columns.
3. Keep Entrances (E) and Checkouts (X) in their exact positions.
4. Do not create new products or remove existing ones; only move existing product configurations.
5. Use only characters that already appear in the layout.

RESPONSE FORMAT:
SUGGESTIONS:
- [Suggestion 1]
- [Suggestion 2]
LAYOUT:
['row1', 'row2', ...]
`, height-1, width-1, height, width)
	return b.String()
}
