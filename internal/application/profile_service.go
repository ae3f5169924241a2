package application

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/domain/apperror"
	"github.com/oksasatya/linkcircle/internal/domain/entity"
	repo "github.com/oksasatya/linkcircle/internal/domain/repository"
)

// UserIndex is a full-text index over public profile fields.
type UserIndex interface {
	Index(ctx context.Context, u *entity.User) error
	// Search returns matching user ids, best match first.
	Search(ctx context.Context, q string, size int) ([]string, error)
}

// ImageStore persists an uploaded profile image and returns its public path or URL.
type ImageStore interface {
	Save(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
}

var ErrImageStoreUnavailable = errors.New("image storage not configured")

// ProfileService owns user records: identity, profile fields, links and images.
type ProfileService struct {
	Repo   repo.UserRepository
	Cache  *ProfileCache
	Index  UserIndex
	Images ImageStore
	Logger *logrus.Logger

	store userStore
}

func NewProfileService(repo repo.UserRepository, cache *ProfileCache, index UserIndex, images ImageStore, logger *logrus.Logger) *ProfileService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ProfileService{
		Repo:   repo,
		Cache:  cache,
		Index:  index,
		Images: images,
		Logger: logger,
		store:  userStore{repo: repo, cache: cache},
	}
}

type CreateUserInput struct {
	Email        string
	Username     string
	Name         string
	ProfileImage string
}

// CreateUser registers a user. The username is stored with its "@" prefix;
// name defaults to the username and the image to the default avatar.
func (s *ProfileService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	email := entity.NormalizeEmail(in.Email)
	username := entity.NormalizeUsername(in.Username)
	if email == "" {
		return nil, apperror.MissingField("email")
	}
	if username == "" || username == "@" {
		return nil, apperror.MissingField("username")
	}

	u := &entity.User{
		ID:             uuid.NewString(),
		Email:          email,
		Username:       username,
		Name:           strings.TrimSpace(in.Name),
		ProfileImage:   strings.TrimSpace(in.ProfileImage),
		Socials:        entity.Socials{},
		Links:          []entity.Link{},
		CircleMembers:  []string{},
		CircleRequests: []string{},
		Circles:        []entity.Circle{},
	}
	if u.Name == "" {
		u.Name = username
	}
	if u.ProfileImage == "" {
		u.ProfileImage = entity.DefaultProfileImage
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, mapRepoError(err)
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user created")
	s.index(ctx, u)
	return u, nil
}

func (s *ProfileService) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return s.store.load(ctx, id)
}

func (s *ProfileService) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, mapRepoError(err)
	}
	return u, nil
}

// GetByUsername accepts the name with or without the "@" prefix and serves
// from the profile cache when possible.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	username = entity.NormalizeUsername(username)
	if u, ok := s.Cache.Get(ctx, username); ok {
		return u, nil
	}
	u, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.Cache.Set(ctx, u)
	return u, nil
}

func (s *ProfileService) List(ctx context.Context) ([]*entity.User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return users, nil
}

// UpdateProfileInput carries a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	Name     *string
	Bio      *string
	Headline *string
	Username *string
	Socials  entity.Socials
}

func (s *ProfileService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*entity.User, error) {
	var username string
	if in.Username != nil {
		username = entity.NormalizeUsername(*in.Username)
		if username == "" || username == "@" {
			return nil, apperror.MissingField("username")
		}
	}

	u, err := s.store.mutate(ctx, id, func(u *entity.User) (bool, error) {
		if in.Name != nil {
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.Bio != nil {
			u.Bio = *in.Bio
		}
		if in.Headline != nil {
			u.Headline = strings.TrimSpace(*in.Headline)
		}
		if username != "" {
			u.Username = username
		}
		if in.Socials != nil {
			u.Socials = cleanSocials(in.Socials)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.index(ctx, u)
	return u, nil
}

type LinkInput struct {
	Title string
	URL   string
	Icon  string
}

func (s *ProfileService) AddLink(ctx context.Context, userID string, in LinkInput) (*entity.User, error) {
	link, err := newLink("", in)
	if err != nil {
		return nil, err
	}
	return s.store.mutate(ctx, userID, func(u *entity.User) (bool, error) {
		u.Links = append(u.Links, link)
		return true, nil
	})
}

// RemoveLink deletes a link by id; removing an unknown id is not an error.
func (s *ProfileService) RemoveLink(ctx context.Context, userID, linkID string) (*entity.User, error) {
	return s.store.mutate(ctx, userID, func(u *entity.User) (bool, error) {
		for i, l := range u.Links {
			if l.ID == linkID {
				u.Links = append(u.Links[:i:i], u.Links[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

// ReplaceLinks stores links as the complete ordered list. Links without an
// id get a fresh one.
func (s *ProfileService) ReplaceLinks(ctx context.Context, userID string, links []LinkInputWithID) (*entity.User, error) {
	out := make([]entity.Link, 0, len(links))
	for _, in := range links {
		l, err := newLink(in.ID, in.LinkInput)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return s.store.mutate(ctx, userID, func(u *entity.User) (bool, error) {
		u.Links = out
		return true, nil
	})
}

type LinkInputWithID struct {
	ID string
	LinkInput
}

// UploadProfileImage stores the image and points the profile at it.
func (s *ProfileService) UploadProfileImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.Images == nil {
		return nil, ErrImageStoreUnavailable
	}
	if _, err := s.store.load(ctx, userID); err != nil {
		return nil, err
	}
	path, err := s.Images.Save(ctx, userID, r, filename, contentType)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("profile image upload failed")
		return nil, err
	}
	u, err := s.store.mutate(ctx, userID, func(u *entity.User) (bool, error) {
		u.ProfileImage = path
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.index(ctx, u)
	return u, nil
}

// Search matches username and name. The full-text index is used when
// configured; otherwise, or when it fails, users are scanned directly.
func (s *ProfileService) Search(ctx context.Context, q string, size int) ([]*entity.User, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	q = strings.TrimSpace(q)
	if s.Index != nil && q != "" {
		ids, err := s.Index.Search(ctx, q, size)
		if err == nil {
			out := make([]*entity.User, 0, len(ids))
			for _, id := range ids {
				u, gErr := s.Repo.GetByID(ctx, id)
				if gErr != nil {
					// stale index entry
					continue
				}
				out = append(out, u)
			}
			return out, nil
		}
		s.Logger.WithError(err).Warn("search index unavailable, scanning users")
	}

	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(q)
	out := make([]*entity.User, 0, size)
	for _, u := range users {
		if len(out) == size {
			break
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Username), needle) ||
			strings.Contains(strings.ToLower(u.Name), needle) {
			out = append(out, u)
		}
	}
	return out, nil
}

// Reindex pushes every user to the search index and returns how many were indexed.
func (s *ProfileService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	users, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if err := s.Index.Index(ctx, u); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *ProfileService) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("search index update failed")
	}
}

func newLink(id string, in LinkInput) (entity.Link, error) {
	title := strings.TrimSpace(in.Title)
	url := strings.TrimSpace(in.URL)
	if title == "" {
		return entity.Link{}, apperror.MissingField("title")
	}
	if url == "" {
		return entity.Link{}, apperror.MissingField("url")
	}
	if id == "" {
		id = uuid.NewString()
	}
	return entity.Link{ID: id, Title: title, URL: url, Icon: strings.TrimSpace(in.Icon)}, nil
}

func cleanSocials(in entity.Socials) entity.Socials {
	out := make(entity.Socials, len(in))
	for k, v := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
