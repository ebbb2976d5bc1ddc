package advisor

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/talgya/aisleflow/internal/traffic"
)

type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeModel) Complete(_ context.Context, _, userPrompt string, _ int) (string, error) {
	f.prompt = userPrompt
	return f.reply, f.err
}

var store = []string{
	"######",
	"#M..X#",
	"#.cc.#",
	"#E...#",
	"######",
}

var report = traffic.Summary{MaxCount: 42, DeadSpots: 3}

func TestAdviseParsesReply(t *testing.T) {
	model := &fakeModel{reply: `Here is my plan.
SUGGESTIONS:
- Move Cereal toward the back to pull shoppers past Meat
- [Keep] the checkout clear
LAYOUT:
['######', '#M..X#', '#.jj.#', "#E...#", '######']
`}
	a := New(model, nil)
	res := a.Advise(context.Background(), store, report)

	if res.Error != "" {
		t.Fatalf("unexpected error %q", res.Error)
	}
	wantSugg := []string{
		"- Move Cereal toward the back to pull shoppers past Meat",
		"- [Keep] the checkout clear",
	}
	if !slices.Equal(res.Suggestions, wantSugg) {
		t.Errorf("Suggestions = %q", res.Suggestions)
	}
	if !res.Changed || res.Layout[2] != "#.jj.#" {
		t.Errorf("Layout = %q changed=%v", res.Layout, res.Changed)
	}
	if !strings.Contains(model.prompt, "Max Traffic: 42, Unvisited Floor Tiles: 3") {
		t.Error("prompt is missing the traffic report")
	}
	if !strings.Contains(model.prompt, "Maintain exactly 5 rows and 6 columns") {
		t.Error("prompt is missing the dimension restriction")
	}
}

func TestAdviseSanitizesToCurrentSize(t *testing.T) {
	model := &fakeModel{reply: "SUGGESTIONS:\n- trim\nLAYOUT:\n['#######', '#M..X#', '#.c', '#E...#']"}
	res := New(model, nil).Advise(context.Background(), store, report)

	want := []string{"######", "#M..X#", "#.c...", "#E...#", "......"}
	if !slices.Equal(res.Layout, want) {
		t.Errorf("Layout = %q, want %q", res.Layout, want)
	}
}

func TestAdviseFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		model   *fakeModel
		wantErr string
	}{
		{"model error", &fakeModel{err: errors.New("timeout")}, "timeout"},
		{"unknown codes", &fakeModel{reply: "LAYOUT:\n['######', '#M..X#', '#.??.#', '#E...#', '######']"}, "unknown codes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.model, nil).Advise(context.Background(), store, report)
			if !slices.Equal(res.Layout, store) || res.Changed {
				t.Errorf("fallback layout = %q changed=%v, want the current layout", res.Layout, res.Changed)
			}
			if len(res.Suggestions) != 1 || !strings.HasPrefix(res.Suggestions[0], "API Error: ") {
				t.Errorf("Suggestions = %q, want one API Error line", res.Suggestions)
			}
			if !strings.Contains(res.Error, tt.wantErr) {
				t.Errorf("Error = %q, want %q", res.Error, tt.wantErr)
			}
		})
	}
}

func TestAdviseWithoutLayoutKeepsCurrent(t *testing.T) {
	model := &fakeModel{reply: "SUGGESTIONS:\n- Nothing to change"}
	res := New(model, nil).Advise(context.Background(), store, report)
	if res.Error != "" || res.Changed || !slices.Equal(res.Layout, store) {
		t.Errorf("result = %+v, want current layout unchanged", res)
	}
	if len(res.Suggestions) != 1 {
		t.Errorf("Suggestions = %q", res.Suggestions)
	}
}

func TestDisabledAdvisor(t *testing.T) {
	var a *Advisor
	if a.Enabled() {
		t.Fatal("nil advisor reports enabled")
	}
	res := a.Advise(context.Background(), store, report)
	if res.Error == "" || !slices.Equal(res.Layout, store) {
		t.Errorf("disabled advisor result = %+v", res)
	}
}

func TestParseLayoutWithoutMarker(t *testing.T) {
	rows := ParseLayout(`["#.#", "#E#"]`)
	if !slices.Equal(rows, []string{"#.#", "#E#"}) {
		t.Errorf("ParseLayout = %q", rows)
	}
	if rows := ParseLayout("no list here"); rows != nil {
		t.Errorf("ParseLayout = %q, want nil", rows)
	}
}

func TestParseLayoutIgnoresQuotedSuggestions(t *testing.T) {
	reply := `SUGGESTIONS:
- Swap 'Cereal' with "Chips" near the [front]
- Move 'Meat' to the back wall

['#####', '#.cX#', '#E..#']`
	rows := ParseLayout(reply)
	if !slices.Equal(rows, []string{"#####", "#.cX#", "#E..#"}) {
		t.Errorf("ParseLayout = %q, want only the layout rows", rows)
	}

	if rows := ParseLayout("SUGGESTIONS:\n- Keep 'Meat' where it is"); rows != nil {
		t.Errorf("ParseLayout = %q, want nil when only bullets follow", rows)
	}
}
