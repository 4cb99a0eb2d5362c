package cmd

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"

	"gbdis/internal/ui/colorize"
)

func loadedModel(t *testing.T) model {
	t.Helper()
	t.Setenv(colorize.NoColorEnv, "1")
	path := writeROM(t, t.TempDir(), "game.gb")

	m := NewModel(path, DefaultConfig())
	if !m.loading {
		t.Fatal("new model is not loading")
	}
	next, _ := m.Update(analyzeCmd(path, DefaultConfig())())
	return next.(model)
}

func TestModelAnalyzed(t *testing.T) {
	m := loadedModel(t)
	if m.loading || m.err != nil || m.result == nil {
		t.Fatalf("model after analysis: loading %v err %v", m.loading, m.err)
	}

	var names []string
	for _, it := range m.labels.Items() {
		names = append(names, it.(labelItem).name)
	}
	if got := strings.Join(names, " "); got != "entry loc_0150 sub_0160" {
		t.Errorf("labels = %q", got)
	}

	if view := m.View(); !strings.Contains(view, "entry:") || !strings.Contains(view, "L: labels") {
		t.Errorf("listing view:\n%s", view)
	}
}

func TestModelJumpToLabel(t *testing.T) {
	m := loadedModel(t)
	rows, at := m.rows, m.labelRow

	item := m.labels.Items()[2].(labelItem)
	if rows[item.row] != "sub_0160:"+strings.Repeat(" ", 40-len("sub_0160"))+" ; xref $0150" {
		t.Errorf("row %d = %q, want the sub_0160 label", item.row, rows[item.row])
	}
	if item.row != at[0x160] {
		t.Errorf("item row %d, listing row %d", item.row, at[0x160])
	}

	m.mode = viewLabels
	m.jumpTo(item)
	if m.mode != viewListing {
		t.Errorf("mode after jump = %v", m.mode)
	}
}

func TestModelCycle(t *testing.T) {
	m := loadedModel(t)
	tests := []struct {
		from viewMode
		step int
		want viewMode
	}{
		{from: viewListing, step: 1, want: viewLabels},
		{from: viewLabels, step: 1, want: viewInfo},
		{from: viewInfo, step: 1, want: viewListing},
		{from: viewListing, step: -1, want: viewInfo},
	}
	for _, tt := range tests {
		m.mode = tt.from
		if got := m.cycle(tt.step); got != tt.want {
			t.Errorf("cycle(%d) from %v = %v, want %v", tt.step, tt.from, got, tt.want)
		}
	}

	empty := NewModel("missing.gb", DefaultConfig())
	if got := empty.cycle(1); got != viewInfo {
		t.Errorf("cycle without labels = %v, want info", got)
	}
}

func TestModelWindowSize(t *testing.T) {
	m := loadedModel(t)
	before := m.rows
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(model)
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}
	if len(m.rows) == 0 || &m.rows[0] != &before[0] {
		t.Error("resize rebuilt the listing rows")
	}
	m.mode = viewInfo
	if view := m.View(); !strings.Contains(view, "CMDTEST") {
		t.Errorf("info view missing title:\n%s", view)
	}
}
