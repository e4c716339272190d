package model

// LabelCodec maps the classifier's numeric output classes to semantic
// labels. The reverse map is derived from the canonical forward mapping,
// never authored separately, so the two cannot drift.
type LabelCodec struct {
	forward  map[string]int
	reverse  map[int]string
	fallback string
}

// NewLabelCodec builds the codec from the canonical mapping: "yes" is class
// 0, "no" is class 1. Unknown class indices resolve to "no" so inference
// always returns a label.
func NewLabelCodec() LabelCodec {
	forward := map[string]int{"yes": 0, "no": 1}
	reverse := make(map[int]string, len(forward))
	for label, idx := range forward {
		reverse[idx] = label
	}
	return LabelCodec{forward: forward, reverse: reverse, fallback: "no"}
}

// Label returns the label for a class index, or the fallback when the index
// is outside the known set.
func (c LabelCodec) Label(classIndex int) string {
	if label, ok := c.reverse[classIndex]; ok {
		return label
	}
	return c.fallback
}

// Index returns the class index for a label.
func (c LabelCodec) Index(label string) (int, bool) {
	idx, ok := c.forward[label]
	return idx, ok
}
