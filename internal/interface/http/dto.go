package handlers

import (
	"time"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

// userResponse is the public JSON shape of a user; field names follow the
// editor UI.
type userResponse struct {
	ID             string            `json:"id"`
	Email          string            `json:"email"`
	Username       string            `json:"username"`
	Name           string            `json:"name"`
	Bio            string            `json:"bio"`
	BioHTML        string            `json:"bioHtml,omitempty"`
	Headline       string            `json:"headline"`
	Socials        map[string]string `json:"socials"`
	ProfileImage   string            `json:"profileImage"`
	Links          []entity.Link     `json:"links"`
	CircleMembers  []string          `json:"circleMembers"`
	CircleRequests []string          `json:"circleRequests"`
	Circles        []circleResponse  `json:"circles"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type circleResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Members  []string `json:"members"`
	Order    []string `json:"order"`
}

func toUser(u *entity.User) userResponse {
	out := userResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		Name:           u.Name,
		Bio:            u.Bio,
		Headline:       u.Headline,
		Socials:        u.Socials,
		ProfileImage:   u.ProfileImage,
		Links:          u.Links,
		CircleMembers:  orEmpty(u.CircleMembers),
		CircleRequests: orEmpty(u.CircleRequests),
		Circles:        toCircles(u.Circles),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if out.Socials == nil {
		out.Socials = map[string]string{}
	}
	if out.Links == nil {
		out.Links = []entity.Link{}
	}
	if html, err := helpers.RenderBio(u.Bio); err == nil {
		out.BioHTML = html
	}
	return out
}

func toUsers(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return out
}

func toCircle(c entity.Circle) circleResponse {
	return circleResponse{
		ID:       c.ID,
		Name:     c.Name,
		Position: c.Position,
		Members:  orEmpty(c.Members),
		Order:    orEmpty(c.Order),
	}
}

func toCircles(cs []entity.Circle) []circleResponse {
	out := make([]circleResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCircle(c))
	}
	return out
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
