package entity

import (
	"slices"
	"strconv"
	"strings"
)

// Circle is an owner-curated group of the owner's connections.
// Members is the membership set, Order the display sequence; both always
// hold the same ids.
type Circle struct {
	ID       string   `json:"id" bson:"id"`
	Name     string   `json:"name" bson:"name"`
	Position int      `json:"position" bson:"position"`
	Members  []string `json:"members" bson:"members"`
	Order    []string `json:"order" bson:"order"`
}

func (c *Circle) HasMember(id string) bool { return slices.Contains(c.Members, id) }

// AddMember appends id to both Members and Order. It reports false when
// id was already a member.
func (c *Circle) AddMember(id string) bool {
	if c.HasMember(id) {
		return false
	}
	c.Members = append(c.Members, id)
	c.Order = append(c.Order, id)
	return true
}

func (c *Circle) RemoveMember(id string) bool {
	var inMembers, inOrder bool
	c.Members, inMembers = without(c.Members, id)
	c.Order, inOrder = without(c.Order, id)
	return inMembers || inOrder
}

// IsPermutation reports whether order holds exactly the current members, each once.
func (c *Circle) IsPermutation(order []string) bool {
	if len(order) != len(c.Members) {
		return false
	}
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup || !c.HasMember(id) {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

// Consistent reports whether Order is a permutation of Members.
func (c *Circle) Consistent() bool {
	if !c.IsPermutation(c.Order) {
		return false
	}
	seen := make(map[string]struct{}, len(c.Members))
	for _, id := range c.Members {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

func (c Circle) Clone() Circle {
	c.Members = slices.Clone(c.Members)
	c.Order = slices.Clone(c.Order)
	return c
}

// CircleRef addresses a circle either by its id or, for older clients, by
// its position in the owner's list.
type CircleRef struct {
	ID      string
	Index   int
	ByIndex bool
}

// ParseCircleRef treats an all-digit value as a position and anything else as an id.
func ParseCircleRef(s string) CircleRef {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return CircleRef{Index: i, ByIndex: true}
	}
	return CircleRef{ID: s}
}

func (r CircleRef) String() string {
	if r.ByIndex {
		return strconv.Itoa(r.Index)
	}
	return r.ID
}

// FindCircle resolves ref against the user's circles and returns the slice index.
func (u *User) FindCircle(ref CircleRef) (int, bool) {
	if ref.ByIndex {
		if ref.Index < 0 || ref.Index >= len(u.Circles) {
			return -1, false
		}
		return ref.Index, true
	}
	for i := range u.Circles {
		if u.Circles[i].ID == ref.ID {
			return i, true
		}
	}
	return -1, false
}

// AppendCircle adds a new empty circle at the end of the list.
func (u *User) AppendCircle(id, name string) *Circle {
	u.Circles = append(u.Circles, Circle{
		ID:       id,
		Name:     name,
		Position: len(u.Circles),
		Members:  []string{},
		Order:    []string{},
	})
	return &u.Circles[len(u.Circles)-1]
}

// DeleteCircleAt removes the circle at i; later circles move down by one.
func (u *User) DeleteCircleAt(i int) {
	u.Circles = slices.Delete(u.Circles, i, i+1)
	u.renumberCircles()
}

// MoveCircle places the circle at index from at position to, clamped to the list bounds.
func (u *User) MoveCircle(from, to int) {
	if to < 0 {
		to = 0
	}
	if to >= len(u.Circles) {
		to = len(u.Circles) - 1
	}
	c := u.Circles[from]
	u.Circles = slices.Delete(u.Circles, from, from+1)
	u.Circles = slices.Insert(u.Circles, to, c)
	u.renumberCircles()
}

// SortCircles orders circles by Position, for records loaded from storage.
func (u *User) SortCircles() {
	slices.SortStableFunc(u.Circles, func(a, b Circle) int { return a.Position - b.Position })
	u.renumberCircles()
}

func (u *User) renumberCircles() {
	for i := range u.Circles {
		u.Circles[i].Position = i
	}
}
