package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/domain/apperror"
	"github.com/oksasatya/linkcircle/internal/domain/entity"
	repo "github.com/oksasatya/linkcircle/internal/domain/repository"
)

// Notifier is told about request protocol transitions. Delivery is best
// effort and never fails the operation.
type Notifier interface {
	RequestReceived(ctx context.Context, recipient, sender *entity.User)
	RequestAccepted(ctx context.Context, sender, recipient *entity.User)
}

// CircleService runs the connection request protocol and circle management.
//
// Request states per (sender, recipient): none -> requested -> connected | none.
// Pending requests live only on the recipient.
type CircleService struct {
	Repo     repo.UserRepository
	Notifier Notifier
	Logger   *logrus.Logger

	store userStore
}

func NewCircleService(repo repo.UserRepository, cache *ProfileCache, notifier Notifier, logger *logrus.Logger) *CircleService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CircleService{
		Repo:     repo,
		Notifier: notifier,
		Logger:   logger,
		store:    userStore{repo: repo, cache: cache},
	}
}

// SendRequest records a pending request from fromID on toID's record.
func (s *CircleService) SendRequest(ctx context.Context, fromID, toID string) error {
	if fromID == toID {
		return apperror.ErrSelfRequest
	}
	sender, err := s.store.load(ctx, fromID)
	if err != nil {
		return err
	}
	recipient, err := s.store.mutate(ctx, toID, func(to *entity.User) (bool, error) {
		if !to.AddRequest(fromID) {
			return false, apperror.ErrAlreadyConnectedOrRequested
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{"from_user_id": fromID, "to_user_id": toID}).Info("circle request sent")
	if s.Notifier != nil {
		s.Notifier.RequestReceived(ctx, recipient, sender)
	}
	return nil
}

// AcceptRequest connects both users and clears the pending request. Both
// records are written through one UpdatePair; the request is re-checked on
// every attempt, so a decline that commits first turns this into
// ErrNoSuchRequest instead of a connection.
func (s *CircleService) AcceptRequest(ctx context.Context, fromID, toID string) error {
	recipient, sender, err := s.store.mutatePair(ctx, toID, fromID, func(to, from *entity.User) (bool, error) {
		if !to.RemoveRequest(from.ID) {
			return false, apperror.ErrNoSuchRequest
		}
		to.AddConnection(from.ID)
		from.AddConnection(to.ID)
		// a crossed request in the other direction is settled as well
		from.RemoveRequest(to.ID)
		return true, nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindConsistencyFault {
			s.Logger.WithError(err).WithFields(logrus.Fields{
				"consistency_fault": true,
				"operation":         "accept_request",
				"from_user_id":      fromID,
				"to_user_id":        toID,
			}).Error("connection persisted on one side only, run reconcile to repair")
		}
		return err
	}
	s.Logger.WithFields(logrus.Fields{"from_user_id": fromID, "to_user_id": toID}).Info("circle request accepted")
	if s.Notifier != nil {
		s.Notifier.RequestAccepted(ctx, sender, recipient)
	}
	return nil
}

// DeclineRequest drops a pending request. Declining a request that does not
// exist succeeds.
func (s *CircleService) DeclineRequest(ctx context.Context, fromID, toID string) error {
	_, err := s.store.mutate(ctx, toID, func(to *entity.User) (bool, error) {
		return to.RemoveRequest(fromID), nil
	})
	return err
}

// Disconnect removes the connection on both sides, along with any circle
// membership that depended on it.
func (s *CircleService) Disconnect(ctx context.Context, userID, otherID string) error {
	_, _, err := s.store.mutatePair(ctx, userID, otherID, func(u, other *entity.User) (bool, error) {
		a := u.RemoveConnection(other.ID)
		b := other.RemoveConnection(u.ID)
		return a || b, nil
	})
	if err != nil && apperror.KindOf(err) == apperror.KindConsistencyFault {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"consistency_fault": true,
			"operation":         "disconnect",
			"user_id":           userID,
			"other_user_id":     otherID,
		}).Error("disconnect persisted on one side only, run reconcile to repair")
	}
	return err
}

// CreateCircle appends an empty circle and returns the owner's circles.
func (s *CircleService) CreateCircle(ctx context.Context, ownerID, name string) ([]entity.Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.MissingField("name")
	}
	u, err := s.store.mutate(ctx, ownerID, func(u *entity.User) (bool, error) {
		u.AppendCircle(uuid.NewString(), name)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return u.Circles, nil
}

// CircleUpdate is a partial circle update; nil fields are left unchanged.
type CircleUpdate struct {
	Name  *string
	Order []string
}

// UpdateCircle renames and/or reorders a circle. A new order must list
// exactly the current members.
func (s *CircleService) UpdateCircle(ctx context.Context, ownerID string, ref entity.CircleRef, in CircleUpdate) (*entity.Circle, error) {
	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.MissingField("name")
		}
	}
	return s.mutateCircle(ctx, ownerID, ref, func(_ *entity.User, c *entity.Circle) (bool, error) {
		if in.Order != nil {
			if !c.IsPermutation(in.Order) {
				return false, apperror.ErrInvalidOrder
			}
			c.Order = append([]string{}, in.Order...)
		}
		if name != "" {
			c.Name = name
		}
		return in.Order != nil || name != "", nil
	})
}

func (s *CircleService) RenameCircle(ctx context.Context, ownerID string, ref entity.CircleRef, name string) (*entity.Circle, error) {
	return s.UpdateCircle(ctx, ownerID, ref, CircleUpdate{Name: &name})
}

func (s *CircleService) ReorderCircle(ctx context.Context, ownerID string, ref entity.CircleRef, order []string) (*entity.Circle, error) {
	if order == nil {
		order = []string{}
	}
	return s.UpdateCircle(ctx, ownerID, ref, CircleUpdate{Order: order})
}

// DeleteCircle removes a circle and returns the remaining ones. Circles
// after it move down one position; connections are untouched.
func (s *CircleService) DeleteCircle(ctx context.Context, ownerID string, ref entity.CircleRef) ([]entity.Circle, error) {
	u, err := s.store.mutate(ctx, ownerID, func(u *entity.User) (bool, error) {
		i, ok := u.FindCircle(ref)
		if !ok {
			return false, apperror.ErrCircleNotFound
		}
		u.DeleteCircleAt(i)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return u.Circles, nil
}

// MoveCircle changes a circle's display position.
func (s *CircleService) MoveCircle(ctx context.Context, ownerID string, ref entity.CircleRef, position int) ([]entity.Circle, error) {
	u, err := s.store.mutate(ctx, ownerID, func(u *entity.User) (bool, error) {
		i, ok := u.FindCircle(ref)
		if !ok {
			return false, apperror.ErrCircleNotFound
		}
		if i == position {
			return false, nil
		}
		u.MoveCircle(i, position)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return u.Circles, nil
}

// AddMember puts one of the owner's connections into a circle. Adding an
// existing member returns the circle unchanged.
func (s *CircleService) AddMember(ctx context.Context, ownerID string, ref entity.CircleRef, memberID string) (*entity.Circle, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, apperror.MissingField("memberId")
	}
	return s.mutateCircle(ctx, ownerID, ref, func(owner *entity.User, c *entity.Circle) (bool, error) {
		if c.HasMember(memberID) {
			return false, nil
		}
		if !owner.IsConnectedTo(memberID) {
			return false, apperror.ErrNotAConnection
		}
		return c.AddMember(memberID), nil
	})
}

// RemoveMember takes a member out of a circle; the connection itself stays.
func (s *CircleService) RemoveMember(ctx context.Context, ownerID string, ref entity.CircleRef, memberID string) (*entity.Circle, error) {
	return s.mutateCircle(ctx, ownerID, ref, func(_ *entity.User, c *entity.Circle) (bool, error) {
		return c.RemoveMember(memberID), nil
	})
}

func (s *CircleService) mutateCircle(ctx context.Context, ownerID string, ref entity.CircleRef, fn func(owner *entity.User, c *entity.Circle) (bool, error)) (*entity.Circle, error) {
	var idx int
	u, err := s.store.mutate(ctx, ownerID, func(u *entity.User) (bool, error) {
		i, ok := u.FindCircle(ref)
		if !ok {
			return false, apperror.ErrCircleNotFound
		}
		idx = i
		return fn(u, &u.Circles[i])
	})
	if err != nil {
		return nil, err
	}
	c := u.Circles[idx].Clone()
	return &c, nil
}
