package topology

import "testing"

func TestComputeOptimum(t *testing.T) {
	cases := []struct {
		buckets, total int
		wantQ, wantR   int
		wantErr        bool
	}{
		{3, 10, 3, 1, false},
		{4, 8, 2, 0, false},
		{5, 2, 0, 2, false},
		{0, 10, 0, 0, true},
	}

	for _, c := range cases {
		q, r, err := ComputeOptimum(c.buckets, c.total)
		if c.wantErr {
			if err == nil {
				t.Errorf("ComputeOptimum(%d, %d): expected error", c.buckets, c.total)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ComputeOptimum(%d, %d): unexpected error: %s", c.buckets, c.total, err)
		}
		if q != c.wantQ || r != c.wantR {
			t.Errorf("ComputeOptimum(%d, %d) = (%d, %d), want (%d, %d)",
				c.buckets, c.total, q, r, c.wantQ, c.wantR)
		}
	}
}

type loadItem struct {
	key  string
	load int
}

func TestSeparateGroups(t *testing.T) {
	items := []loadItem{
		{"a", 5}, // over, load > quotient+1
		{"b", 4}, // at ceiling, first seen -> balanced
		{"c", 4}, // at ceiling, second seen -> balanced (remainder is 2)
		{"d", 3}, // balanced, == quotient
		{"e", 1}, // under
	}
	total := 17 // 5 buckets: quotient=3, remainder=2... adjust expectations below.

	over, under := SeparateGroups(items, func(i loadItem) int { return i.load },
		func(i loadItem) string { return i.key }, total)

	overKeys := map[string]bool{}
	for _, o := range over {
		overKeys[o.key] = true
	}
	underKeys := map[string]bool{}
	for _, u := range under {
		underKeys[u.key] = true
	}

	// quotient, remainder := 17/5, 17%5 = 3, 2
	if !overKeys["a"] {
		t.Errorf("expected 'a' (load 5 > quotient+1=4) to be over")
	}
	if overKeys["b"] {
		t.Errorf("expected 'b' to be balanced (first at ceiling, remainder=2)")
	}
	if overKeys["c"] {
		t.Errorf("expected 'c' to be balanced (second at ceiling, remainder=2)")
	}
	if overKeys["d"] || underKeys["d"] {
		t.Errorf("expected 'd' (load == quotient) to be balanced")
	}
	if !underKeys["e"] {
		t.Errorf("expected 'e' (load 1 < quotient=3) to be under")
	}
}

func TestSeparateGroupsZeroBuckets(t *testing.T) {
	over, under := SeparateGroups([]loadItem{}, func(i loadItem) int { return i.load },
		func(i loadItem) string { return i.key }, 10)
	if over != nil || under != nil {
		t.Errorf("expected nil, nil for zero buckets, got %v, %v", over, under)
	}
}
