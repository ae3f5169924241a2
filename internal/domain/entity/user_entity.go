package entity

import (
	"slices"
	"strings"
	"time"
)

// DefaultProfileImage is served for users who never uploaded a picture.
const DefaultProfileImage = "/uploads/default.png"

// Socials maps a platform name (facebook, x, instagram, linkedin, github, ...) to a profile URL.
type Socials map[string]string

// Link is one outbound entry on the profile page.
type Link struct {
	ID    string `json:"id" bson:"id"`
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
	Icon  string `json:"icon,omitempty" bson:"icon,omitempty"`
}

// User is the aggregate root for the profile and its social graph.
// Circles, connections and pending requests are embedded and always
// persisted together with the user.
//
// Version is bumped by the repository on every successful write and is
// used as the optimistic concurrency token.
type User struct {
	ID           string
	Email        string
	Username     string
	Name         string
	Bio          string
	Headline     string
	Socials      Socials
	ProfileImage string
	Links        []Link

	CircleMembers  []string
	CircleRequests []string
	Circles        []Circle

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeUsername returns the canonical "@name" form.
func NormalizeUsername(username string) string {
	u := strings.TrimSpace(username)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "@") {
		u = "@" + u
	}
	return u
}

// NormalizeEmail lower-cases and trims an email so comparisons are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsConnectedTo(id string) bool { return slices.Contains(u.CircleMembers, id) }

func (u *User) HasRequestFrom(id string) bool { return slices.Contains(u.CircleRequests, id) }

// AddRequest records a pending request from id. It reports false when a
// request is already pending or the two users are already connected.
func (u *User) AddRequest(from string) bool {
	if u.HasRequestFrom(from) || u.IsConnectedTo(from) {
		return false
	}
	u.CircleRequests = append(u.CircleRequests, from)
	return true
}

// RemoveRequest drops a pending request and reports whether one existed.
func (u *User) RemoveRequest(from string) bool {
	var removed bool
	u.CircleRequests, removed = without(u.CircleRequests, from)
	return removed
}

// AddConnection adds id to the connection set. Adding an existing
// connection is a no-op.
func (u *User) AddConnection(id string) {
	if !u.IsConnectedTo(id) {
		u.CircleMembers = append(u.CircleMembers, id)
	}
}

// RemoveConnection drops id from the connection set and from every circle,
// so circle membership never outlives the connection.
func (u *User) RemoveConnection(id string) bool {
	var removed bool
	u.CircleMembers, removed = without(u.CircleMembers, id)
	for i := range u.Circles {
		if u.Circles[i].RemoveMember(id) {
			removed = true
		}
	}
	return removed
}

// Clone returns a deep copy, so callers can mutate without touching a stored value.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Socials != nil {
		c.Socials = make(Socials, len(u.Socials))
		for k, v := range u.Socials {
			c.Socials[k] = v
		}
	}
	c.Links = slices.Clone(u.Links)
	c.CircleMembers = slices.Clone(u.CircleMembers)
	c.CircleRequests = slices.Clone(u.CircleRequests)
	if u.Circles != nil {
		c.Circles = make([]Circle, len(u.Circles))
		for i, ci := range u.Circles {
			c.Circles[i] = ci.Clone()
		}
	}
	return &c
}

func without(ids []string, id string) ([]string, bool) {
	out := ids[:0:0]
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if !removed {
		return ids, false
	}
	return out, true
}
