package entity

import (
	"slices"
	"testing"
)

func names(cs []Circle) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func positions(cs []Circle) []int {
	out := make([]int, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Position)
	}
	return out
}

func TestCircleMembers(t *testing.T) {
	c := &Circle{}
	if !c.AddMember("a") || !c.AddMember("b") {
		t.Fatal("AddMember() = false for new members")
	}
	if c.AddMember("a") {
		t.Error("AddMember(a) twice = true, want false")
	}
	if !slices.Equal(c.Members, []string{"a", "b"}) || !slices.Equal(c.Order, []string{"a", "b"}) {
		t.Errorf("circle = %+v, want members and order [a b]", c)
	}
	if !c.RemoveMember("a") {
		t.Error("RemoveMember(a) = false, want true")
	}
	if c.RemoveMember("a") {
		t.Error("RemoveMember(a) twice = true, want false")
	}
	if !c.Consistent() {
		t.Errorf("circle %+v not consistent", c)
	}
}

func TestIsPermutation(t *testing.T) {
	c := &Circle{Members: []string{"a", "b", "c"}, Order: []string{"a", "b", "c"}}
	tests := []struct {
		name  string
		order []string
		want  bool
	}{
		{"same", []string{"a", "b", "c"}, true},
		{"reordered", []string{"c", "a", "b"}, true},
		{"missing", []string{"a", "b"}, false},
		{"duplicate", []string{"a", "a", "b"}, false},
		{"stranger", []string{"a", "b", "z"}, false},
		{"extra", []string{"a", "b", "c", "d"}, false},
	}
	for _, tt := range tests {
		if got := c.IsPermutation(tt.order); got != tt.want {
			t.Errorf("%s: IsPermutation(%v) = %v, want %v", tt.name, tt.order, got, tt.want)
		}
	}
}

func TestConsistentDetectsDuplicateMembers(t *testing.T) {
	c := &Circle{Members: []string{"a", "a"}, Order: []string{"a", "a"}}
	if c.Consistent() {
		t.Error("Consistent() = true for duplicated members")
	}
}

func TestParseCircleRef(t *testing.T) {
	r := ParseCircleRef("2")
	if !r.ByIndex || r.Index != 2 {
		t.Errorf("ParseCircleRef(2) = %+v, want index 2", r)
	}
	r = ParseCircleRef("3f1c0a1e-aaaa-bbbb-cccc-000000000000")
	if r.ByIndex || r.ID != "3f1c0a1e-aaaa-bbbb-cccc-000000000000" {
		t.Errorf("ParseCircleRef(uuid) = %+v, want id", r)
	}
	if r.String() != r.ID {
		t.Errorf("String() = %q, want %q", r.String(), r.ID)
	}
}

func TestFindCircle(t *testing.T) {
	u := &User{}
	u.AppendCircle("c0", "A")
	u.AppendCircle("c1", "B")

	if i, ok := u.FindCircle(CircleRef{ID: "c1"}); !ok || i != 1 {
		t.Errorf("FindCircle(c1) = %d, %v; want 1, true", i, ok)
	}
	if i, ok := u.FindCircle(CircleRef{Index: 0, ByIndex: true}); !ok || i != 0 {
		t.Errorf("FindCircle(#0) = %d, %v; want 0, true", i, ok)
	}
	for _, ref := range []CircleRef{{Index: 2, ByIndex: true}, {Index: -1, ByIndex: true}, {ID: "nope"}} {
		if _, ok := u.FindCircle(ref); ok {
			t.Errorf("FindCircle(%v) found a circle", ref)
		}
	}
}

func TestDeleteCircleShiftsLaterCircles(t *testing.T) {
	u := &User{}
	u.AppendCircle("c0", "A")
	u.AppendCircle("c1", "B")
	u.AppendCircle("c2", "C")

	u.DeleteCircleAt(1)

	if got := names(u.Circles); !slices.Equal(got, []string{"A", "C"}) {
		t.Errorf("names = %v, want [A C]", got)
	}
	if got := positions(u.Circles); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("positions = %v, want [0 1]", got)
	}
}

func TestMoveCircle(t *testing.T) {
	u := &User{}
	for _, n := range []string{"A", "B", "C", "D"} {
		u.AppendCircle("id-"+n, n)
	}

	u.MoveCircle(0, 2)
	if got := names(u.Circles); !slices.Equal(got, []string{"B", "C", "A", "D"}) {
		t.Errorf("after move 0->2 names = %v", got)
	}
	u.MoveCircle(3, 99)
	if got := names(u.Circles); !slices.Equal(got, []string{"B", "C", "A", "D"}) {
		t.Errorf("after clamped move names = %v", got)
	}
	u.MoveCircle(2, -5)
	if got := names(u.Circles); !slices.Equal(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("after move to front names = %v", got)
	}
	if got := positions(u.Circles); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("positions = %v", got)
	}
}

func TestSortCircles(t *testing.T) {
	u := &User{Circles: []Circle{{ID: "b", Name: "B", Position: 5}, {ID: "a", Name: "A", Position: 1}}}
	u.SortCircles()
	if got := names(u.Circles); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("names = %v, want [A B]", got)
	}
	if got := positions(u.Circles); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("positions = %v, want [0 1]", got)
	}
}
