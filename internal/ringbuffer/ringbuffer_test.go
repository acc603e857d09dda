package ringbuffer

import (
	"errors"
	"testing"
)

func TestPushAndAt(t *testing.T) {
	tests := []struct {
		name   string
		pushes []int
		want   []int
	}{
		{name: "empty", pushes: nil, want: nil},
		{name: "single", pushes: []int{7}, want: []int{7}},
		{name: "several", pushes: []int{1, 2, 3, 4, 5}, want: []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New[int](2, 0)
			for _, v := range tt.pushes {
				if err := r.Push(v); err != nil {
					t.Fatalf("Push(%d): %v", v, err)
				}
			}
			if r.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
			for i, want := range tt.want {
				if got := r.At(i); got != want {
					t.Errorf("At(%d) = %d, want %d", i, got, want)
				}
			}
		})
	}
}

func TestDropAdvancesHead(t *testing.T) {
	r := New[int](4, 0)
	_ = r.PushSlice([]int{1, 2, 3, 4, 5})
	r.Drop(2)

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if got := r.At(0); got != 3 {
		t.Errorf("At(0) = %d, want 3", got)
	}

	// Push past the wrap point to exercise the modular indexing.
	_ = r.Push(6)
	want := []int{3, 4, 5, 6}
	got := r.PeekAll()
	for i, w := range want {
		if got[i] != w {
			t.Errorf("PeekAll()[%d] = %d, want %d", i, got[i], w)
		}
	}
}

func TestGrowthRespectsCeiling(t *testing.T) {
	r := New[int](2, 4)
	for i := 0; i < 4; i++ {
		if err := r.Push(i); err != nil {
			t.Fatalf("Push(%d): unexpected error %v", i, err)
		}
	}

	if err := r.Push(99); !errors.Is(err, ErrAllocationFailed) {
		t.Fatalf("Push past ceiling: err = %v, want ErrAllocationFailed", err)
	}
}

func TestSliceRange(t *testing.T) {
	r := New[int](8, 0)
	_ = r.PushSlice([]int{10, 20, 30, 40})

	got := r.Slice(1, 3)
	want := []int{20, 30}
	if len(got) != len(want) {
		t.Fatalf("Slice len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("Slice()[%d] = %d, want %d", i, got[i], w)
		}
	}
}
