package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cartmates/cartmates-backend/internal/activity"
	"github.com/cartmates/cartmates-backend/internal/lists/domain"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It
// implements ListStore, ItemStore, UserCounter and the guard interfaces,
// mirroring the transactional duplicate check and the last_interaction
// bump so the services can be exercised without a database.
type fakeStore struct {
	mu sync.Mutex

	lists     map[string]*domain.ShoppingList
	members   map[string][]string // listID -> userIDs, insertion order
	items     map[string]*domain.ShoppingItem
	itemOrder []string // itemIDs, creation order
	users     map[string]string // userID -> username

	base time.Time
	tick int
	seq  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists:   make(map[string]*domain.ShoppingList),
		members: make(map[string][]string),
		items:   make(map[string]*domain.ShoppingItem),
		users:   make(map[string]string),
		base:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) addUser(id, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = username
}

// now yields strictly increasing timestamps so ordering assertions never
// race on equal times.
func (f *fakeStore) now() time.Time {
	f.tick++
	return f.base.Add(time.Duration(f.tick) * time.Second)
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) Create(ctx context.Context, name, creatorID string) (*domain.ShoppingList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l := &domain.ShoppingList{
		ID:              f.nextID("list"),
		Name:            name,
		LastInteraction: f.now(),
	}
	l.CreatedAt = l.LastInteraction
	f.lists[l.ID] = l
	f.members[l.ID] = []string{creatorID}
	out := *l
	return &out, nil
}

func (f *fakeStore) Get(ctx context.Context, listID string) (*domain.ShoppingList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.lists[listID]
	if !ok {
		return nil, domain.ErrListNotFound
	}
	out := *l
	return &out, nil
}

func (f *fakeStore) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.ShoppingList, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.ShoppingList
	for id, l := range f.lists {
		for _, m := range f.members[id] {
			if m == userID {
				out = append(out, *l)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastInteraction.After(out[j].LastInteraction)
	})

	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeStore) Update(ctx context.Context, listID, name string, lastInteraction *time.Time) (*domain.ShoppingList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.lists[listID]
	if !ok {
		return nil, domain.ErrListNotFound
	}
	l.Name = name
	if lastInteraction != nil {
		l.LastInteraction = *lastInteraction
	}
	out := *l
	return &out, nil
}

func (f *fakeStore) Delete(ctx context.Context, listID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.lists[listID]; !ok {
		return false, nil
	}
	delete(f.lists, listID)
	delete(f.members, listID)
	for id, it := range f.items {
		if it.ListID == listID {
			delete(f.items, id)
		}
	}
	return true, nil
}

func (f *fakeStore) IsMember(ctx context.Context, userID, listID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.members[listID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Members(ctx context.Context, listID string) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Member, 0, len(f.members[listID]))
	for _, id := range f.members[listID] {
		out = append(out, domain.Member{ID: id, Username: f.users[id]})
	}
	return out, nil
}

func (f *fakeStore) UpdateMembers(ctx context.Context, listID string, userIDs []string, apply domain.MemberApply) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.members[listID]
	switch apply {
	case domain.ApplyAdd:
		for _, id := range userIDs {
			exists := false
			for _, m := range current {
				if m == id {
					exists = true
					break
				}
			}
			if !exists {
				current = append(current, id)
			}
		}
	case domain.ApplyRemove:
		drop := make(map[string]bool, len(userIDs))
		for _, id := range userIDs {
			drop[id] = true
		}
		kept := current[:0]
		for _, m := range current {
			if !drop[m] {
				kept = append(kept, m)
			}
		}
		current = kept
	}
	f.members[listID] = current
	return nil
}

func (f *fakeStore) UnpurchasedNames(ctx context.Context, listID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, id := range f.itemOrder {
		it, ok := f.items[id]
		if !ok || it.ListID != listID || it.Purchased {
			continue
		}
		out = append(out, it.Name)
	}
	return out, nil
}

func (f *fakeStore) CreateItem(ctx context.Context, listID, name string, purchased bool) (*domain.ShoppingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.lists[listID]; !ok {
		return nil, domain.ErrListNotFound
	}
	// The create-path duplicate check fires regardless of the incoming
	// purchased flag, like the store's pre-insert existence query.
	if f.hasUnpurchasedLocked(listID, name, "") {
		return nil, domain.ErrDuplicateItem
	}

	it := &domain.ShoppingItem{
		ID:        f.nextID("item"),
		ListID:    listID,
		Name:      name,
		Purchased: purchased,
		CreatedAt: f.now(),
	}
	it.UpdatedAt = it.CreatedAt
	f.items[it.ID] = it
	f.itemOrder = append(f.itemOrder, it.ID)
	f.lists[listID].LastInteraction = f.now()
	out := *it
	return &out, nil
}

func (f *fakeStore) GetItem(ctx context.Context, itemID string) (*domain.ShoppingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	out := *it
	return &out, nil
}

func (f *fakeStore) ResolveOwningList(ctx context.Context, itemID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[itemID]
	if !ok {
		return "", domain.ErrItemNotFound
	}
	return it.ListID, nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, itemID, name string, purchased bool) (*domain.ShoppingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	it, ok := f.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if !purchased && f.hasUnpurchasedLocked(it.ListID, name, itemID) {
		return nil, domain.ErrDuplicateItem
	}

	it.Name = name
	it.Purchased = purchased
	it.UpdatedAt = f.now()
	f.lists[it.ListID].LastInteraction = f.now()
	out := *it
	return &out, nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, itemID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[itemID]; !ok {
		return false, nil
	}
	delete(f.items, itemID)
	return true, nil
}

func (f *fakeStore) ListByList(ctx context.Context, listID, orderBy string, limit, offset int) ([]domain.ShoppingItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.ShoppingItem
	for _, id := range f.itemOrder {
		it, ok := f.items[id]
		if !ok || it.ListID != listID {
			continue
		}
		out = append(out, *it)
	}

	switch orderBy {
	case "name":
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return !out[i].Purchased && out[j].Purchased
		})
	}

	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeStore) SearchItems(ctx context.Context, userID, substr string, limit, offset int) ([]domain.ShoppingItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	needle := strings.ToLower(substr)
	var out []domain.ShoppingItem
	for _, id := range f.itemOrder {
		it, ok := f.items[id]
		if !ok || !strings.Contains(strings.ToLower(it.Name), needle) {
			continue
		}
		member := false
		for _, m := range f.members[it.ListID] {
			if m == userID {
				member = true
				break
			}
		}
		if member {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeStore) CountExisting(ctx context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, id := range ids {
		if _, ok := f.users[id]; ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) hasUnpurchasedLocked(listID, name, excludeID string) bool {
	for _, it := range f.items {
		if it.ListID == listID && it.Name == name && !it.Purchased && it.ID != excludeID {
			return true
		}
	}
	return false
}

// itemStoreAdapter renames the fake's item methods to the ItemStore
// contract, which shares method names with ListStore.
type itemStoreAdapter struct{ *fakeStore }

func (a itemStoreAdapter) Create(ctx context.Context, listID, name string, purchased bool) (*domain.ShoppingItem, error) {
	return a.CreateItem(ctx, listID, name, purchased)
}

func (a itemStoreAdapter) Get(ctx context.Context, itemID string) (*domain.ShoppingItem, error) {
	return a.GetItem(ctx, itemID)
}

func (a itemStoreAdapter) Update(ctx context.Context, itemID, name string, purchased bool) (*domain.ShoppingItem, error) {
	return a.UpdateItem(ctx, itemID, name, purchased)
}

func (a itemStoreAdapter) Delete(ctx context.Context, itemID string) (bool, error) {
	return a.DeleteItem(ctx, itemID)
}

func (a itemStoreAdapter) Search(ctx context.Context, userID, substr string, limit, offset int) ([]domain.ShoppingItem, int, error) {
	return a.SearchItems(ctx, userID, substr, limit, offset)
}

// fakeFeed captures recorded events in memory, newest first.
type fakeFeed struct {
	mu     sync.Mutex
	events map[string][]activity.Event
	fail   error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{events: make(map[string][]activity.Event)}
}

func (f *fakeFeed) Record(ctx context.Context, listID string, ev activity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		return f.fail
	}
	f.events[listID] = append([]activity.Event{ev}, f.events[listID]...)
	return nil
}

func (f *fakeFeed) Recent(ctx context.Context, listID string, n int) ([]activity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.events[listID]
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return append([]activity.Event(nil), out...), nil
}
