package anomaly

import (
	"testing"

	"RetScan/internal/domain/models"
)

func TestCompareOverlap(t *testing.T) {
	a := models.NewLabelSet([]int{3, 7, 12, 40})
	b := models.NewLabelSet([]int{7, 12, 55})
	rep := Compare(a, b, 100)

	if rep.Sliding.Count != 4 || rep.Robust.Count != 3 {
		t.Fatalf("counts = %d/%d, want 4/3", rep.Sliding.Count, rep.Robust.Count)
	}
	if rep.Sliding.Rate != 0.04 || rep.Robust.Rate != 0.03 {
		t.Fatalf("rates = %v/%v, want 0.04/0.03", rep.Sliding.Rate, rep.Robust.Rate)
	}
	if rep.OverlapCount != 2 {
		t.Fatalf("overlap = %d, want 2", rep.OverlapCount)
	}
	if rep.OverlapRate != 0.02 {
		t.Fatalf("overlap rate = %v, want 0.02", rep.OverlapRate)
	}
}

func TestCompareDisjointAndEmpty(t *testing.T) {
	a := models.NewLabelSet([]int{1, 2})
	b := models.NewLabelSet([]int{3, 4})
	if rep := Compare(a, b, 10); rep.OverlapCount != 0 {
		t.Fatalf("disjoint sets overlap = %d", rep.OverlapCount)
	}

	empty := models.LabelSet{}
	rep := Compare(empty, empty, 0)
	if rep.Sliding.Rate != 0 || rep.OverlapRate != 0 {
		t.Fatalf("zero-length series must report zero rates, got %+v", rep)
	}
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	a := models.NewLabelSet([]int{5, 1, 9})
	b := models.NewLabelSet([]int{9, 5})
	_ = Compare(a, b, 20)
	if !a.Contains(1) || !a.Contains(5) || !a.Contains(9) || a.Count() != 3 {
		t.Fatalf("input set mutated: %v", a)
	}
}
