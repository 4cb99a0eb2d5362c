package analysis

import (
	"gbdis/internal/cart"
	"gbdis/internal/traverse"
)

// Annotator enriches listing lines. It may add annotations, rewrite
// operands or insert rows, and returns the resulting listing.
type Annotator interface {
	Annotate(lines []Line) []Line
}

// AnnotatorChain runs multiple annotators in sequence
type AnnotatorChain struct {
	annotators []Annotator
}

// NewAnnotatorChain creates a new annotator chain
func NewAnnotatorChain(annotators ...Annotator) *AnnotatorChain {
	return &AnnotatorChain{
		annotators: annotators,
	}
}

// Annotate runs all annotators in sequence
func (ac *AnnotatorChain) Annotate(lines []Line) []Line {
	result := lines
	for _, annotator := range ac.annotators {
		result = annotator.Annotate(result)
	}
	return result
}

// Annotated builds the listing of res and runs the standard annotators over
// it. The header annotator is skipped for images without a header.
func Annotated(res *traverse.Result, im *cart.Image) []Line {
	chain := NewAnnotatorChain(
		LabelAnnotator{Result: res},
		HardwareAnnotator{},
		HeaderAnnotator{Header: im.Header},
		StringAnnotator{Image: im.Data},
	)
	return chain.Annotate(BuildListing(res, im.Data))
}
