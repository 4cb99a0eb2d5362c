package styles

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	md := "# TETRIS\n\n| Field | Value |\n|---|---|\n| Type | MBC1 |\n"

	for _, color := range []bool{false, true} {
		out, err := Render(md, 80, color)
		if err != nil {
			t.Fatalf("Render(color=%v) error = %v", color, err)
		}
		for _, want := range []string{"TETRIS", "MBC1"} {
			if !strings.Contains(out, want) {
				t.Errorf("Render(color=%v) missing %q:\n%s", color, want, out)
			}
		}
	}
}
