// Package advisor asks a language model to rearrange store merchandising
// based on a traffic report, and turns the reply into a candidate layout.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/talgya/aisleflow/internal/traffic"
	"github.com/talgya/aisleflow/internal/world"
)

const maxTokens = 8192

// Completer is the model call the advisor needs. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error)
}

// Advisor produces layout suggestions. A nil *Advisor is disabled.
type Advisor struct {
	model   Completer
	catalog world.Catalog
}

// New creates an advisor over a model and the catalog candidate layouts must use.
func New(model Completer, catalog world.Catalog) *Advisor {
	if catalog == nil {
		catalog = world.DefaultCatalog()
	}
	return &Advisor{model: model, catalog: catalog}
}

// Enabled reports whether the advisor can be called.
func (a *Advisor) Enabled() bool {
	return a != nil && a.model != nil
}

// Result is the advisor's answer. On any failure Layout is the unchanged
// input and Suggestions holds a single "API Error: ..." line.
type Result struct {
	Suggestions []string `json:"suggestions"`
	Layout      []string `json:"layout"`
	Changed     bool     `json:"changed"`
	Error       string   `json:"error,omitempty"`
}

// Advise sends the layout and traffic report to the model and parses the
// reply. The candidate is sanitized to the input's dimensions; walls,
// entrances, and checkouts are not checked.
func (a *Advisor) Advise(ctx context.Context, rows []string, summary traffic.Summary) Result {
	if !a.Enabled() {
		return failed(rows, fmt.Errorf("advisor not configured"))
	}
	if len(rows) == 0 {
		return failed(rows, fmt.Errorf("empty layout"))
	}

	prompt := BuildPrompt(rows, summary)
	slog.Debug("requesting layout advice", "report", summary.Report())

	text, err := a.model.Complete(ctx, systemPrompt, prompt, maxTokens)
	if err != nil {
		slog.Warn("layout advice failed", "error", err)
		return failed(rows, err)
	}

	res, err := a.parse(text, rows)
	if err != nil {
		slog.Warn("layout advice unusable", "error", err)
		return failed(rows, err)
	}
	slog.Info("layout advice received", "suggestions", len(res.Suggestions), "changed", res.Changed)
	return res
}

func failed(rows []string, err error) Result {
	return Result{
		Suggestions: []string{"API Error: " + err.Error()},
		Layout:      append([]string(nil), rows...),
		Error:       err.Error(),
	}
}

var (
	listPattern   = regexp.MustCompile(`(?s)\[.*\]`)
	quotedPattern = regexp.MustCompile(`'([^'\n]*)'|"([^"\n]*)"`)
)

// parse extracts suggestions and the proposed layout from a model reply.
// A reply without a layout keeps the current one.
func (a *Advisor) parse(text string, rows []string) (Result, error) {
	res := Result{
		Suggestions: ParseSuggestions(text),
		Layout:      append([]string(nil), rows...),
	}

	candidate := ParseLayout(text)
	if len(candidate) == 0 {
		return res, nil
	}

	width, height := len(rows[0]), len(rows)
	candidate = world.Sanitize(candidate, width, height)
	if unknown := world.UnknownCodes(candidate, a.catalog); len(unknown) > 0 {
		return Result{}, fmt.Errorf("candidate layout uses unknown codes %q", string(unknown))
	}

	res.Layout = candidate
	res.Changed = !slices.Equal(candidate, rows)
	return res, nil
}

// ParseSuggestions returns the "-" bullet lines between SUGGESTIONS: and LAYOUT:.
func ParseSuggestions(text string) []string {
	_, after, ok := strings.Cut(text, "SUGGESTIONS:")
	if !ok {
		return nil
	}
	section, _, _ := strings.Cut(after, "LAYOUT:")

	var out []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") {
			out = append(out, line)
		}
	}
	return out
}

// ParseLayout returns the quoted rows of the bracketed list following
// LAYOUT:. Without the marker the text after the suggestion bullets is
// searched, or the whole reply when there are no suggestions either.
func ParseLayout(text string) []string {
	if _, after, ok := strings.Cut(text, "LAYOUT:"); ok {
		text = after
	} else if _, after, ok := strings.Cut(text, "SUGGESTIONS:"); ok {
		text = skipBullets(after)
	}
	block := listPattern.FindString(text)
	if block == "" {
		return nil
	}

	var rows []string
	for _, m := range quotedPattern.FindAllStringSubmatch(block, -1) {
		row := m[1]
		if row == "" {
			row = m[2]
		}
		row = strings.TrimSpace(row)
		if row != "" {
			rows = append(rows, row)
		}
	}
	return rows
}

// skipBullets drops the leading run of blank and "-" lines.
func skipBullets(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "-") {
			return strings.Join(lines[i:], "\n")
		}
	}
	return ""
}
