package timeline

import "testing"

func TestDeriveTargetGroupsConsecutiveSpans(t *testing.T) {
	spans := []Interval{{0, 4}, {4.5, 9}, {10, 14}, {15, 18}}
	labels := []Label{SlideLabel(1), SlideLabel(1), SlideLabel(2), SlideLabel(2)}

	got := DeriveTarget(spans, labels, 20)
	want := []Segment{
		{Label: SlideLabel(1), Start: 0, End: 10},
		{Label: SlideLabel(2), Start: 10, End: 20},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d segments %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDeriveTargetAbsorbsLeadingGap(t *testing.T) {
	spans := []Interval{{2.0, 5}, {5, 8}}
	labels := []Label{SlideLabel(1), SlideLabel(2)}

	got := DeriveTarget(spans, labels, 10)
	if got[0].Start != 0 {
		t.Fatalf("leading gap not absorbed: first start = %v", got[0].Start)
	}
}

func TestDeriveTargetKeepsSmallLeadingOffset(t *testing.T) {
	spans := []Interval{{0.3, 5}}
	labels := []Label{SlideLabel(1)}

	got := DeriveTarget(spans, labels, 10)
	if got[0].Start != 0.3 {
		t.Fatalf("sub-threshold offset should be kept: first start = %v", got[0].Start)
	}
}

func TestDeriveTargetContiguousAndClosed(t *testing.T) {
	spans := []Interval{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	labels := []Label{SlideLabel(1), NoSlide(), NoSlide(), SlideLabel(2)}

	got := DeriveTarget(spans, labels, 9)
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].End != got[i].Start {
			t.Fatalf("gap between segments %d and %d: %v", i-1, i, got)
		}
	}
	if got[len(got)-1].End != 9 {
		t.Fatalf("last segment must close at total duration, got %v", got[len(got)-1].End)
	}
	if got[1].Label != NoSlide() {
		t.Fatalf("null-labeled run must survive grouping, got %v", got[1].Label)
	}
}

func TestDeriveTargetEmpty(t *testing.T) {
	if got := DeriveTarget(nil, nil, 10); got != nil {
		t.Fatalf("expected nil for empty spans, got %v", got)
	}
}
