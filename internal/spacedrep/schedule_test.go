package spacedrep

import (
	"math"
	"testing"
)

func TestNextEase(t *testing.T) {
	tests := []struct {
		ease float64
		q    int
		want float64
	}{
		{2.5, 5, 2.6},
		{2.5, 4, 2.5},
		{2.5, 3, 2.36},
		{2.5, 0, 1.7},
		{1.3, 0, 1.3},
	}
	for _, tt := range tests {
		if got := NextEase(tt.ease, tt.q); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NextEase(%.2f, %d) = %f, want %f", tt.ease, tt.q, got, tt.want)
		}
	}
}

func TestNextInterval(t *testing.T) {
	if NextInterval(1, 0, 2.5) != 1 {
		t.Error("first success should schedule 1 day")
	}
	if NextInterval(2, 1, 2.5) != 6 {
		t.Error("second success should schedule 6 days")
	}
	if got := NextInterval(3, 6, 2.5); got != 15 {
		t.Errorf("NextInterval(3, 6, 2.5) = %d, want 15", got)
	}
}

func TestValidateQuality(t *testing.T) {
	for q := 0; q <= 5; q++ {
		if err := ValidateQuality(q); err != nil {
			t.Errorf("ValidateQuality(%d) = %v", q, err)
		}
	}
	if ValidateQuality(7) == nil {
		t.Error("expected error for quality 7")
	}
}
