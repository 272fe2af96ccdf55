package merge

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGroups(t *testing.T) {
	cases := []struct {
		pageCount, n int
		want         [][]int
	}{
		{0, 1, nil},
		{0, 3, nil},
		{1, 1, [][]int{{0}}},
		{3, 1, [][]int{{0}, {1}, {2}}},
		{5, 2, [][]int{{0, 1}, {2, 3}, {4}}},
		{6, 3, [][]int{{0, 1, 2}, {3, 4, 5}}},
		{2, 5, [][]int{{0, 1}}},
	}
	for _, test := range cases {
		got, err := Groups(test.pageCount, test.n)
		if err != nil {
			t.Errorf("Groups(%d, %d): %v", test.pageCount, test.n, err)
			continue
		}
		if d := cmp.Diff(test.want, got); d != "" {
			t.Errorf("Groups(%d, %d): unexpected groups (-want +got):\n%s", test.pageCount, test.n, d)
		}
	}
}

func TestGroupsPartition(t *testing.T) {
	for pageCount := 0; pageCount < 40; pageCount++ {
		for n := 1; n < 12; n++ {
			groups, err := Groups(pageCount, n)
			if err != nil {
				t.Fatal(err)
			}

			wantGroups := (pageCount + n - 1) / n
			if len(groups) != wantGroups {
				t.Fatalf("%d pages, n=%d: %d groups, want %d", pageCount, n, len(groups), wantGroups)
			}

			next := 0
			for i, group := range groups {
				wantSize := n
				if i == len(groups)-1 && pageCount%n != 0 {
					wantSize = pageCount % n
				}
				if len(group) != wantSize {
					t.Errorf("%d pages, n=%d: group %d has %d pages, want %d",
						pageCount, n, i, len(group), wantSize)
				}
				for _, idx := range group {
					if idx != next {
						t.Fatalf("%d pages, n=%d: page %d out of order", pageCount, n, idx)
					}
					next++
				}
			}
			if next != pageCount {
				t.Errorf("%d pages, n=%d: %d pages grouped", pageCount, n, next)
			}
		}
	}
}

func TestGroupsInvalid(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := Groups(10, n)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Groups(10, %d): got %v, want ErrInvalidArgument", n, err)
		}
		_, err = Layout([]Size{{1, 1}}, n)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Layout(n=%d): got %v, want ErrInvalidArgument", n, err)
		}
	}
}

func TestLayoutUniform(t *testing.T) {
	sizes := []Size{{100, 200}, {100, 200}, {100, 200}, {100, 200}, {100, 200}}
	sheets, err := Layout(sizes, 2)
	if err != nil {
		t.Fatal(err)
	}

	want := []Sheet{
		{Width: 200, Height: 200, Placements: []Placement{
			{Page: 0, X: 0, Y: 0, Width: 100, Height: 200},
			{Page: 1, X: 100, Y: 0, Width: 100, Height: 200},
		}},
		{Width: 200, Height: 200, Placements: []Placement{
			{Page: 2, X: 0, Y: 0, Width: 100, Height: 200},
			{Page: 3, X: 100, Y: 0, Width: 100, Height: 200},
		}},
		{Width: 100, Height: 200, Placements: []Placement{
			{Page: 4, X: 0, Y: 0, Width: 100, Height: 200},
		}},
	}
	if d := cmp.Diff(want, sheets); d != "" {
		t.Errorf("unexpected layout (-want +got):\n%s", d)
	}
}

func TestLayoutTopAligned(t *testing.T) {
	sizes := []Size{{50, 100}, {60, 150}, {70, 120}}
	sheets, err := Layout(sizes, 3)
	if err != nil {
		t.Fatal(err)
	}

	want := []Sheet{
		{Width: 180, Height: 150, Placements: []Placement{
			{Page: 0, X: 0, Y: 50, Width: 50, Height: 100},
			{Page: 1, X: 50, Y: 0, Width: 60, Height: 150},
			{Page: 2, X: 110, Y: 30, Width: 70, Height: 120},
		}},
	}
	if d := cmp.Diff(want, sheets); d != "" {
		t.Errorf("unexpected layout (-want +got):\n%s", d)
	}
}

func TestLayoutExactWidths(t *testing.T) {
	sizes := []Size{{0.1, 1}, {0.2, 2}, {595.276, 841.89}}
	sheets, err := Layout(sizes, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheets) != 1 {
		t.Fatalf("got %d sheets, want 1", len(sheets))
	}

	a, b, c := 0.1, 0.2, 595.276
	wantWidth := a + b + c
	if sheets[0].Width != wantWidth {
		t.Errorf("width %v, want %v", sheets[0].Width, wantWidth)
	}
	if sheets[0].Height != 841.89 {
		t.Errorf("height %v, want 841.89", sheets[0].Height)
	}
	if x := sheets[0].Placements[2].X; x != a+b {
		t.Errorf("third page at x=%v, want %v", x, a+b)
	}
}

func TestLayoutEmpty(t *testing.T) {
	sheets, err := Layout(nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheets) != 0 {
		t.Errorf("got %d sheets for an empty document", len(sheets))
	}
}
