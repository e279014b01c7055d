package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cartmates/cartmates-backend/internal/activity"
	"github.com/cartmates/cartmates-backend/internal/lists/domain"
)

// previewLimit bounds the unpurchased preview attached to a list
// representation.
const previewLimit = 3

// ListStore is the persistence contract the list service needs.
type ListStore interface {
	Create(ctx context.Context, name, creatorID string) (*domain.ShoppingList, error)
	Get(ctx context.Context, listID string) (*domain.ShoppingList, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.ShoppingList, int, error)
	Update(ctx context.Context, listID, name string, lastInteraction *time.Time) (*domain.ShoppingList, error)
	Delete(ctx context.Context, listID string) (bool, error)
	IsMember(ctx context.Context, userID, listID string) (bool, error)
	Members(ctx context.Context, listID string) ([]domain.Member, error)
	UpdateMembers(ctx context.Context, listID string, userIDs []string, apply domain.MemberApply) error
	UnpurchasedNames(ctx context.Context, listID string) ([]string, error)
}

// UserCounter validates member payloads against the users table.
type UserCounter interface {
	CountExisting(ctx context.Context, ids []string) (int, error)
}

// ActivityRecorder appends events to a list's activity feed. Recording is
// best-effort: feed failures never fail the mutation that triggered them.
type ActivityRecorder interface {
	Record(ctx context.Context, listID string, ev activity.Event) error
}

// ActivityFeed extends the recorder with the member-facing read path.
type ActivityFeed interface {
	ActivityRecorder
	Recent(ctx context.Context, listID string, n int) ([]activity.Event, error)
}

// ListService handles shopping-list business logic: creation with
// creator auto-membership, the recomputed unpurchased preview, and
// membership updates.
type ListService struct {
	store ListStore
	users UserCounter
	guard *Guard
	feed  ActivityFeed
	log   *logrus.Logger
}

func NewListService(store ListStore, users UserCounter, guard *Guard, feed ActivityFeed, log *logrus.Logger) *ListService {
	return &ListService{store: store, users: users, guard: guard, feed: feed, log: log}
}

// Create makes a new list with the caller as sole initial member.
func (s *ListService) Create(ctx context.Context, caller Caller, name string) (*domain.ListDetail, error) {
	l, err := s.store.Create(ctx, name, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, l)
}

// Get returns the full list representation, guarded on membership.
func (s *ListService) Get(ctx context.Context, caller Caller, listID string) (*domain.ListDetail, error) {
	l, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	return s.detail(ctx, l)
}

// List returns the caller's lists ordered by last_interaction descending.
func (s *ListService) List(ctx context.Context, caller Caller, limit, offset int) ([]domain.ListDetail, int, error) {
	lists, total, err := s.store.ListForUser(ctx, caller.UserID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.ListDetail, 0, len(lists))
	for i := range lists {
		d, err := s.detail(ctx, &lists[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, nil
}

// Update renames a list and, when lastInteraction is non-nil, sets the
// interaction timestamp explicitly. A nil name keeps the current one
// (partial update).
func (s *ListService) Update(ctx context.Context, caller Caller, listID string, name *string, lastInteraction *time.Time) (*domain.ListDetail, error) {
	l, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	newName := l.Name
	if name != nil {
		newName = *name
	}

	updated, err := s.store.Update(ctx, listID, newName, lastInteraction)
	if err != nil {
		return nil, err
	}

	if name != nil && *name != l.Name {
		s.record(ctx, listID, activity.Event{
			Type:    activity.EventListRenamed,
			Actor:   caller.UserID,
			Subject: *name,
		})
	}

	return s.detail(ctx, updated)
}

// Delete removes a list and everything under it.
func (s *ListService) Delete(ctx context.Context, caller Caller, listID string) error {
	if _, err := s.store.Get(ctx, listID); err != nil {
		return err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	found, err := s.store.Delete(ctx, listID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrListNotFound
	}
	return nil
}

// UpdateMembers applies the given user ids by union (add) or
// set-difference (remove). All ids must refer to existing users; the
// operation itself is idempotent per element.
func (s *ListService) UpdateMembers(ctx context.Context, caller Caller, listID string, memberIDs []string, apply domain.MemberApply) ([]domain.Member, error) {
	if _, err := s.store.Get(ctx, listID); err != nil {
		return nil, err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	ids := dedupe(memberIDs)
	n, err := s.users.CountExisting(ctx, ids)
	if err != nil {
		return nil, err
	}
	if n != len(ids) {
		return nil, domain.ErrUnknownMember
	}

	if err := s.store.UpdateMembers(ctx, listID, ids, apply); err != nil {
		return nil, err
	}

	evType := activity.EventMembersAdded
	if apply == domain.ApplyRemove {
		evType = activity.EventMembersRemoved
	}
	s.record(ctx, listID, activity.Event{Type: evType, Actor: caller.UserID})

	return s.store.Members(ctx, listID)
}

// detail assembles the serialized list shape: members plus the bounded
// unpurchased preview, recomputed from the current item set on every
// read.
func (s *ListService) detail(ctx context.Context, l *domain.ShoppingList) (*domain.ListDetail, error) {
	members, err := s.store.Members(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	names, err := s.store.UnpurchasedNames(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if len(names) > previewLimit {
		names = names[:previewLimit]
	}

	preview := make([]domain.PreviewItem, 0, len(names))
	for _, name := range names {
		preview = append(preview, domain.PreviewItem{Name: name})
	}

	return &domain.ListDetail{
		ShoppingList:     *l,
		UnpurchasedItems: preview,
		Members:          members,
	}, nil
}

// Activity returns recent feed events for a list, guarded on membership.
func (s *ListService) Activity(ctx context.Context, caller Caller, listID string, n int) ([]activity.Event, error) {
	if _, err := s.store.Get(ctx, listID); err != nil {
		return nil, err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	if s.feed == nil {
		return []activity.Event{}, nil
	}
	return s.feed.Recent(ctx, listID, n)
}

func (s *ListService) record(ctx context.Context, listID string, ev activity.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Record(ctx, listID, ev); err != nil {
		s.log.WithError(err).WithField("list_id", listID).Warn("failed to record activity")
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
