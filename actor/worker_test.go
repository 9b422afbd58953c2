package actor

import "testing"

func TestBatchSizeNegativeWeightAlwaysOne(t *testing.T) {
	for _, length := range []int{0, 1, 5, 1000} {
		if got := batchSize(-1, length); got != 1 {
			t.Fatalf("batchSize(-1, %d) = %d, want 1", length, got)
		}
	}
}

func TestBatchSizeZeroWeightDrainsAll(t *testing.T) {
	for _, length := range []int{0, 1, 5, 1000} {
		if got := batchSize(0, length); got != length {
			t.Fatalf("batchSize(0, %d) = %d, want %d", length, got, length)
		}
	}
}

func TestBatchSizePositiveWeightShiftsAndFloors(t *testing.T) {
	cases := []struct{ weight, length, want int }{
		{1, 8, 4},
		{2, 8, 2},
		{3, 8, 1},
		{3, 4, 1}, // shifted result below 1 floors to 1
		{1, 0, 1},
	}
	for _, c := range cases {
		if got := batchSize(c.weight, c.length); got != c.want {
			t.Fatalf("batchSize(%d, %d) = %d, want %d", c.weight, c.length, got, c.want)
		}
	}
}

func TestDefaultWeightFuncMatchesReferenceScheduleAndFallsBackToZero(t *testing.T) {
	if DefaultWeightFunc(0) != -1 {
		t.Fatalf("DefaultWeightFunc(0) = %d, want -1", DefaultWeightFunc(0))
	}
	if DefaultWeightFunc(31) != 3 {
		t.Fatalf("DefaultWeightFunc(31) = %d, want 3", DefaultWeightFunc(31))
	}
	if DefaultWeightFunc(32) != 0 {
		t.Fatalf("DefaultWeightFunc(32) = %d, want 0 (past the reference table)", DefaultWeightFunc(32))
	}
}
