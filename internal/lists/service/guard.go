package service

import (
	"context"
	"errors"
)

// ErrForbidden marks a guard refusal. The HTTP layer maps it to 403
// without leaking anything about the target.
var ErrForbidden = errors.New("forbidden")

// Caller is the authenticated identity performing an operation. Staff
// callers bypass membership checks.
type Caller struct {
	UserID string
	Staff  bool
}

// MembershipStore is the slice of the list repository the guard needs.
type MembershipStore interface {
	IsMember(ctx context.Context, userID, listID string) (bool, error)
}

// ItemResolver maps an item to the list that owns it.
type ItemResolver interface {
	ResolveOwningList(ctx context.Context, itemID string) (string, error)
}

// Guard gates every list- and item-scoped operation on current
// membership. It is a pure predicate: a false result carries no error.
type Guard struct {
	members  MembershipStore
	resolver ItemResolver
}

func NewGuard(members MembershipStore, resolver ItemResolver) *Guard {
	return &Guard{members: members, resolver: resolver}
}

// AllowList reports whether the caller may perform a list-scoped
// operation on listID.
func (g *Guard) AllowList(ctx context.Context, caller Caller, listID string) (bool, error) {
	if caller.Staff {
		return true, nil
	}
	return g.members.IsMember(ctx, caller.UserID, listID)
}

// AllowItem resolves the item's owning list and applies the same rule.
// There is exactly one authorization rule, parameterized by which list it
// resolves to.
func (g *Guard) AllowItem(ctx context.Context, caller Caller, itemID string) (bool, error) {
	listID, err := g.resolver.ResolveOwningList(ctx, itemID)
	if err != nil {
		return false, err
	}
	return g.AllowList(ctx, caller, listID)
}
