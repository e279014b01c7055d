package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cartmates/cartmates-backend/internal/lists/domain"
)

// ListRepository provides persistence for shopping lists and their
// membership relation.
type ListRepository struct {
	db *pgxpool.Pool
}

func NewListRepository(db *pgxpool.Pool) *ListRepository {
	return &ListRepository{db: db}
}

// Create inserts a new list and grants the creator membership in the same
// transaction.
func (r *ListRepository) Create(ctx context.Context, name, creatorID string) (*domain.ShoppingList, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertList = `
insert into shopping_lists (id, name)
values ($1, $2)
returning id, name, last_interaction, created_at;
`
	var l domain.ShoppingList
	err = tx.QueryRow(ctx, insertList, uuid.New().String(), name).
		Scan(&l.ID, &l.Name, &l.LastInteraction, &l.CreatedAt)
	if err != nil {
		return nil, err
	}

	const insertMember = `insert into list_members (list_id, user_id) values ($1::uuid, $2::uuid);`
	if _, err := tx.Exec(ctx, insertMember, l.ID, creatorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &l, nil
}

// Get returns a single list by id.
func (r *ListRepository) Get(ctx context.Context, listID string) (*domain.ShoppingList, error) {
	const q = `
select id, name, last_interaction, created_at
from shopping_lists
where id = $1::uuid;
`
	var l domain.ShoppingList
	err := r.db.QueryRow(ctx, q, listID).
		Scan(&l.ID, &l.Name, &l.LastInteraction, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListForUser returns the lists the user is a member of, most recently
// touched first, plus the total count for pagination.
func (r *ListRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.ShoppingList, int, error) {
	const countQ = `
select count(*)
from shopping_lists l
join list_members m on m.list_id = l.id
where m.user_id = $1::uuid;
`
	var total int
	if err := r.db.QueryRow(ctx, countQ, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
select l.id, l.name, l.last_interaction, l.created_at
from shopping_lists l
join list_members m on m.list_id = l.id
where m.user_id = $1::uuid
order by l.last_interaction desc
limit $2 offset $3;
`
	rows, err := r.db.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.ShoppingList, 0, 16)
	for rows.Next() {
		var l domain.ShoppingList
		if err := rows.Scan(&l.ID, &l.Name, &l.LastInteraction, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// Update renames a list. When lastInteraction is non-nil it is applied as
// well; normal item operations never go through this path.
func (r *ListRepository) Update(ctx context.Context, listID, name string, lastInteraction *time.Time) (*domain.ShoppingList, error) {
	const q = `
update shopping_lists
set name = $2,
    last_interaction = coalesce($3, last_interaction)
where id = $1::uuid
returning id, name, last_interaction, created_at;
`
	var l domain.ShoppingList
	err := r.db.QueryRow(ctx, q, listID, name, lastInteraction).
		Scan(&l.ID, &l.Name, &l.LastInteraction, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Delete removes a list; items and memberships go with it via cascade.
func (r *ListRepository) Delete(ctx context.Context, listID string) (bool, error) {
	const q = `delete from shopping_lists where id = $1::uuid;`

	ct, err := r.db.Exec(ctx, q, listID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// IsMember reports whether the user belongs to the list.
func (r *ListRepository) IsMember(ctx context.Context, userID, listID string) (bool, error) {
	const q = `
select exists (
    select 1 from list_members
    where list_id = $1::uuid and user_id = $2::uuid
);
`
	var ok bool
	if err := r.db.QueryRow(ctx, q, listID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Members returns the member set of a list.
func (r *ListRepository) Members(ctx context.Context, listID string) ([]domain.Member, error) {
	const q = `
select u.id, u.username
from list_members m
join users u on u.id = m.user_id
where m.list_id = $1::uuid
order by m.added_at;
`
	rows, err := r.db.Query(ctx, q, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Member, 0, 4)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Username); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMembers applies the member ids by union (add) or set-difference
// (remove). Adding a present member or removing an absent one is a no-op.
func (r *ListRepository) UpdateMembers(ctx context.Context, listID string, userIDs []string, apply domain.MemberApply) error {
	if len(userIDs) == 0 {
		return nil
	}

	switch apply {
	case domain.ApplyAdd:
		const q = `
insert into list_members (list_id, user_id)
select $1::uuid, unnest($2::uuid[])
on conflict do nothing;
`
		_, err := r.db.Exec(ctx, q, listID, userIDs)
		return err
	case domain.ApplyRemove:
		const q = `
delete from list_members
where list_id = $1::uuid and user_id = any($2::uuid[]);
`
		_, err := r.db.Exec(ctx, q, listID, userIDs)
		return err
	}
	return nil
}

// UnpurchasedNames returns the names of the list's unpurchased items in
// creation order. The preview truncation happens in the service.
func (r *ListRepository) UnpurchasedNames(ctx context.Context, listID string) ([]string, error) {
	const q = `
select name
from shopping_items
where list_id = $1::uuid and not purchased
order by created_at;
`
	rows, err := r.db.Query(ctx, q, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 8)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
