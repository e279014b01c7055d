package domain

import "time"

// ShoppingList is a shared list owned jointly by its members.
// It is intentionally storage-agnostic and used across repository and HTTP layers.
type ShoppingList struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	LastInteraction time.Time `json:"last_interaction"`
	CreatedAt       time.Time `json:"-"`
}

// Member is a user with access to a shopping list.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ShoppingItem belongs to exactly one list; the list reference is
// immutable after creation.
type ShoppingItem struct {
	ID        string    `json:"id"`
	ListID    string    `json:"-"`
	Name      string    `json:"name"`
	Purchased bool      `json:"purchased"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ListDetail is the full list representation returned on reads: the list,
// its members and the bounded unpurchased preview. The preview is a
// read-time projection, recomputed on every read.
type ListDetail struct {
	ShoppingList
	UnpurchasedItems []PreviewItem `json:"unpurchased_items"`
	Members          []Member      `json:"members"`
}

// PreviewItem is a single entry of the unpurchased preview.
type PreviewItem struct {
	Name string `json:"name"`
}

// MemberApply selects the set operation for a membership update.
type MemberApply int

const (
	ApplyAdd MemberApply = iota
	ApplyRemove
)
