package analysis

import (
	"strings"

	"gbdis/internal/sm83"
	"gbdis/internal/traverse"
)

// Summary condenses a traversal result.
type Summary struct {
	Instructions int     `json:"instructions"`
	Errors       int     `json:"errors"`
	Subroutines  int     `json:"subroutines"`
	Labels       int     `json:"labels"`
	CodeBytes    int     `json:"code_bytes"`
	ImageBytes   int     `json:"image_bytes"`
	Coverage     float64 `json:"coverage"`
	Truncated    bool    `json:"truncated"`
}

// Summarize counts instructions, failures, labels and the share of the image
// decoded as code. Bytes shared by overlapping instructions count once.
func Summarize(res *traverse.Result, image []byte) Summary {
	s := Summary{
		Instructions: len(res.Instructions),
		Errors:       len(res.Errors),
		ImageBytes:   len(image),
		Truncated:    res.Truncated,
	}

	covered := make(map[sm83.Addr]struct{})
	for pc, inst := range res.Instructions {
		for n := range inst.Length {
			covered[pc+sm83.Addr(n)] = struct{}{}
		}
	}
	s.CodeBytes = len(covered)
	if len(image) > 0 {
		s.Coverage = float64(s.CodeBytes) / float64(len(image))
	}

	for _, name := range (LabelAnnotator{Result: res}).Labels() {
		s.Labels++
		if strings.HasPrefix(name, "sub_") {
			s.Subroutines++
		}
	}
	return s
}
