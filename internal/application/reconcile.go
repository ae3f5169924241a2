package application

import (
	"context"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	repo "github.com/oksasatya/linkcircle/internal/domain/repository"
)

type IssueKind string

const (
	// IssueOneSided: the user lists other as a connection but other does not list the user.
	IssueOneSided IssueKind = "one_sided_connection"
	// IssueDangling: a connection or request points at a user that no longer exists.
	IssueDangling IssueKind = "dangling_reference"
	// IssueStaleRequest: a pending request from someone already connected.
	IssueStaleRequest IssueKind = "request_while_connected"
	// IssueNonConnectionMember: a circle member that is not a connection of the owner.
	IssueNonConnectionMember IssueKind = "circle_member_not_connected"
	// IssueOrderMismatch: a circle whose order is not a permutation of its members.
	IssueOrderMismatch IssueKind = "circle_order_mismatch"
)

type Issue struct {
	Kind     IssueKind `json:"kind"`
	UserID   string    `json:"userId"`
	OtherID  string    `json:"otherId,omitempty"`
	CircleID string    `json:"circleId,omitempty"`
}

type Report struct {
	Users    int     `json:"users"`
	Issues   []Issue `json:"issues"`
	Repaired int     `json:"repaired"`
}

// Reconciler finds and repairs cross-record damage left by partially
// committed pair writes. One-sided connections are completed rather than
// dropped; a half-applied disconnect can be retried by the user.
type Reconciler struct {
	Repo   repo.UserRepository
	Logger *logrus.Logger

	store userStore
}

func NewReconciler(repo repo.UserRepository, cache *ProfileCache, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reconciler{Repo: repo, Logger: logger, store: userStore{repo: repo, cache: cache}}
}

// Run scans every user. With repair set, each affected record is rewritten
// through the normal version-checked path.
func (r *Reconciler) Run(ctx context.Context, repair bool) (Report, error) {
	users, err := r.Repo.List(ctx)
	if err != nil {
		return Report{}, mapRepoError(err)
	}
	byID := make(map[string]*entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	rep := Report{Users: len(users), Issues: []Issue{}}
	for _, u := range users {
		rep.Issues = append(rep.Issues, inspect(u, byID)...)
	}
	if !repair || len(rep.Issues) == 0 {
		return rep, nil
	}

	exists := func(id string) bool { _, ok := byID[id]; return ok }

	// users whose own record needs local cleanup, and the reverse edges to add
	local := map[string]struct{}{}
	reverse := map[string][]string{}
	for _, is := range rep.Issues {
		if is.Kind == IssueOneSided {
			reverse[is.OtherID] = append(reverse[is.OtherID], is.UserID)
			continue
		}
		local[is.UserID] = struct{}{}
	}

	for id, froms := range reverse {
		_, err := r.store.mutate(ctx, id, func(u *entity.User) (bool, error) {
			changed := false
			for _, from := range froms {
				if !u.IsConnectedTo(from) {
					u.AddConnection(from)
					changed = true
				}
				if u.RemoveRequest(from) {
					changed = true
				}
			}
			return changed, nil
		})
		if err != nil {
			r.Logger.WithError(err).WithField("user_id", id).Error("reconcile: completing connection failed")
			continue
		}
		rep.Repaired += len(froms)
	}

	for id := range local {
		_, err := r.store.mutate(ctx, id, func(u *entity.User) (bool, error) {
			return cleanRecord(u, exists), nil
		})
		if err != nil {
			r.Logger.WithError(err).WithField("user_id", id).Error("reconcile: cleanup failed")
			continue
		}
		rep.Repaired++
	}

	r.Logger.WithFields(logrus.Fields{
		"users":    rep.Users,
		"issues":   len(rep.Issues),
		"repaired": rep.Repaired,
	}).Info("reconcile finished")
	return rep, nil
}

func inspect(u *entity.User, byID map[string]*entity.User) []Issue {
	var out []Issue
	for _, id := range u.CircleMembers {
		other, ok := byID[id]
		switch {
		case !ok:
			out = append(out, Issue{Kind: IssueDangling, UserID: u.ID, OtherID: id})
		case !other.IsConnectedTo(u.ID):
			out = append(out, Issue{Kind: IssueOneSided, UserID: u.ID, OtherID: id})
		}
	}
	for _, id := range u.CircleRequests {
		if _, ok := byID[id]; !ok {
			out = append(out, Issue{Kind: IssueDangling, UserID: u.ID, OtherID: id})
		} else if u.IsConnectedTo(id) {
			out = append(out, Issue{Kind: IssueStaleRequest, UserID: u.ID, OtherID: id})
		}
	}
	for _, c := range u.Circles {
		for _, m := range c.Members {
			if !u.IsConnectedTo(m) {
				out = append(out, Issue{Kind: IssueNonConnectionMember, UserID: u.ID, OtherID: m, CircleID: c.ID})
			}
		}
		if !c.Consistent() {
			out = append(out, Issue{Kind: IssueOrderMismatch, UserID: u.ID, CircleID: c.ID})
		}
	}
	return out
}

// cleanRecord fixes everything about u that can be fixed from u alone.
func cleanRecord(u *entity.User, exists func(string) bool) bool {
	changed := false
	for _, id := range slices.Clone(u.CircleMembers) {
		if !exists(id) && u.RemoveConnection(id) {
			changed = true
		}
	}
	for _, id := range slices.Clone(u.CircleRequests) {
		if (!exists(id) || u.IsConnectedTo(id)) && u.RemoveRequest(id) {
			changed = true
		}
	}
	for i := range u.Circles {
		c := &u.Circles[i]
		for _, m := range slices.Clone(c.Members) {
			if !u.IsConnectedTo(m) && c.RemoveMember(m) {
				changed = true
			}
		}
		if !c.Consistent() {
			c.Members, c.Order = repairOrder(c.Members, c.Order)
			changed = true
		}
	}
	return changed
}

// repairOrder dedups members, keeps the surviving order entries in their
// sequence and appends members the order was missing.
func repairOrder(members, order []string) ([]string, []string) {
	seen := map[string]struct{}{}
	m := make([]string, 0, len(members))
	for _, id := range members {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			m = append(m, id)
		}
	}
	placed := map[string]struct{}{}
	o := make([]string, 0, len(m))
	for _, id := range order {
		if _, ok := seen[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		o = append(o, id)
	}
	for _, id := range m {
		if _, ok := placed[id]; !ok {
			o = append(o, id)
		}
	}
	return m, o
}
