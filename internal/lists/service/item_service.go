package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cartmates/cartmates-backend/internal/activity"
	"github.com/cartmates/cartmates-backend/internal/lists/domain"
)

// ItemStore is the persistence contract the item service needs.
type ItemStore interface {
	Create(ctx context.Context, listID, name string, purchased bool) (*domain.ShoppingItem, error)
	Get(ctx context.Context, itemID string) (*domain.ShoppingItem, error)
	ResolveOwningList(ctx context.Context, itemID string) (string, error)
	Update(ctx context.Context, itemID, name string, purchased bool) (*domain.ShoppingItem, error)
	Delete(ctx context.Context, itemID string) (bool, error)
	ListByList(ctx context.Context, listID, orderBy string, limit, offset int) ([]domain.ShoppingItem, int, error)
	Search(ctx context.Context, userID, substr string, limit, offset int) ([]domain.ShoppingItem, int, error)
}

// ListGetter checks parent list existence before item operations.
type ListGetter interface {
	Get(ctx context.Context, listID string) (*domain.ShoppingList, error)
}

// ItemService handles item business logic: guarded CRUD, duplicate
// prevention (delegated to the store's transactional check) and the
// interaction-time side effect on the parent list.
type ItemService struct {
	store    ItemStore
	lists    ListGetter
	guard    *Guard
	recorder ActivityRecorder
	log      *logrus.Logger
}

func NewItemService(store ItemStore, lists ListGetter, guard *Guard, recorder ActivityRecorder, log *logrus.Logger) *ItemService {
	return &ItemService{store: store, lists: lists, guard: guard, recorder: recorder, log: log}
}

// Create adds an item to a list. The store rejects a second unpurchased
// item with the same name on the same list; the check and the insert are
// one transactional unit.
func (s *ItemService) Create(ctx context.Context, caller Caller, listID, name string, purchased bool) (*domain.ShoppingItem, error) {
	if _, err := s.lists.Get(ctx, listID); err != nil {
		return nil, err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	it, err := s.store.Create(ctx, listID, name, purchased)
	if err != nil {
		return nil, err
	}

	s.record(ctx, listID, activity.Event{
		Type:    activity.EventItemAdded,
		Actor:   caller.UserID,
		Subject: it.Name,
	})

	return it, nil
}

// Get returns a single item, guarded via its owning list.
func (s *ItemService) Get(ctx context.Context, caller Caller, itemID string) (*domain.ShoppingItem, error) {
	ok, err := s.guard.AllowItem(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.store.Get(ctx, itemID)
}

// Update writes the item's name and/or purchased flag. Nil fields keep
// their current value (partial update). Any update advances the parent
// list's last_interaction.
func (s *ItemService) Update(ctx context.Context, caller Caller, itemID string, name *string, purchased *bool) (*domain.ShoppingItem, error) {
	ok, err := s.guard.AllowItem(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	current, err := s.store.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	newName := current.Name
	if name != nil {
		newName = *name
	}
	newPurchased := current.Purchased
	if purchased != nil {
		newPurchased = *purchased
	}

	it, err := s.store.Update(ctx, itemID, newName, newPurchased)
	if err != nil {
		return nil, err
	}

	s.record(ctx, it.ListID, activity.Event{
		Type:    activity.EventItemUpdated,
		Actor:   caller.UserID,
		Subject: it.Name,
	})

	return it, nil
}

// Delete removes an item. Deletion does not advance last_interaction.
func (s *ItemService) Delete(ctx context.Context, caller Caller, itemID string) error {
	listID, err := s.store.ResolveOwningList(ctx, itemID)
	if err != nil {
		return err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	found, err := s.store.Delete(ctx, itemID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrItemNotFound
	}

	s.record(ctx, listID, activity.Event{
		Type:  activity.EventItemRemoved,
		Actor: caller.UserID,
	})

	return nil
}

// List returns the items of a list, unpurchased first, optionally sorted
// by an explicit field.
func (s *ItemService) List(ctx context.Context, caller Caller, listID, orderBy string, limit, offset int) ([]domain.ShoppingItem, int, error) {
	if _, err := s.lists.Get(ctx, listID); err != nil {
		return nil, 0, err
	}

	ok, err := s.guard.AllowList(ctx, caller, listID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrForbidden
	}

	return s.store.ListByList(ctx, listID, orderBy, limit, offset)
}

// Search finds items by case-insensitive substring across the caller's
// lists, ordered by name.
func (s *ItemService) Search(ctx context.Context, caller Caller, substr string, limit, offset int) ([]domain.ShoppingItem, int, error) {
	return s.store.Search(ctx, caller.UserID, substr, limit, offset)
}

func (s *ItemService) record(ctx context.Context, listID string, ev activity.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, listID, ev); err != nil {
		s.log.WithError(err).WithField("list_id", listID).Warn("failed to record activity")
	}
}
