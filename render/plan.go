package render

// PlanKind is the redraw strategy chosen by Decide.
type PlanKind uint8

const (
	PlanNone PlanKind = iota
	// PlanFullRedraw clears and redraws Width characters.
	PlanFullRedraw
	// PlanCellEdits replaces only the characters at Indices.
	PlanCellEdits
)

// Plan is the outcome of comparing two display strings.
type Plan struct {
	Kind    PlanKind
	Width   int   // Characters to clear (PlanFullRedraw).
	Indices []int // Changed positions (PlanCellEdits).
}

// Decide compares the string on screen with its replacement. A length
// change shifts the right-aligned string, so every column must be redrawn;
// otherwise only differing columns are touched.
func Decide(old, next string) Plan {
	if old == next {
		return Plan{}
	}
	if len(old) != len(next) {
		return Plan{Kind: PlanFullRedraw, Width: max(len(old), len(next))}
	}
	var idx []int
	for i := 0; i < len(next); i++ {
		if old[i] != next[i] {
			idx = append(idx, i)
		}
	}
	return Plan{Kind: PlanCellEdits, Indices: idx}
}
