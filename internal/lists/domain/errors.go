package domain

import "errors"

var (
	ErrListNotFound  = errors.New("shopping list not found")
	ErrItemNotFound  = errors.New("shopping item not found")
	ErrDuplicateItem = errors.New("item already exists unpurchased on this list")
	ErrUnknownMember = errors.New("unknown user in members")
)
