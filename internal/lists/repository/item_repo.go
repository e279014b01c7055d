package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cartmates/cartmates-backend/internal/lists/domain"
)

// ItemRepository provides persistence for shopping items. Item writes that
// must keep the parent list consistent (duplicate check, last_interaction)
// run as single transactions.
type ItemRepository struct {
	db *pgxpool.Pool
}

func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

const touchList = `update shopping_lists set last_interaction = now() where id = $1::uuid;`

// Create inserts a new item and advances the parent list's
// last_interaction in one transaction. The pre-check and the partial
// unique index both map to ErrDuplicateItem; the index is the arbiter
// under concurrent creates.
func (r *ItemRepository) Create(ctx context.Context, listID, name string, purchased bool) (*domain.ShoppingItem, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const dupQ = `
select exists (
    select 1 from shopping_items
    where list_id = $1::uuid and name = $2 and not purchased
);
`
	var dup bool
	if err := tx.QueryRow(ctx, dupQ, listID, name).Scan(&dup); err != nil {
		return nil, err
	}
	if dup {
		return nil, domain.ErrDuplicateItem
	}

	const insertQ = `
insert into shopping_items (id, list_id, name, purchased)
values ($1, $2::uuid, $3, $4)
returning id, list_id, name, purchased, created_at, updated_at;
`
	var it domain.ShoppingItem
	err = tx.QueryRow(ctx, insertQ, uuid.New().String(), listID, name, purchased).
		Scan(&it.ID, &it.ListID, &it.Name, &it.Purchased, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, translateItemErr(err)
	}

	if _, err := tx.Exec(ctx, touchList, listID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateItemErr(err)
	}
	return &it, nil
}

// Get returns a single item by id.
func (r *ItemRepository) Get(ctx context.Context, itemID string) (*domain.ShoppingItem, error) {
	const q = `
select id, list_id, name, purchased, created_at, updated_at
from shopping_items
where id = $1::uuid;
`
	var it domain.ShoppingItem
	err := r.db.QueryRow(ctx, q, itemID).
		Scan(&it.ID, &it.ListID, &it.Name, &it.Purchased, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

// ResolveOwningList maps an item id to the id of the list that owns it.
// The authorization guard runs against the resolved list.
func (r *ItemRepository) ResolveOwningList(ctx context.Context, itemID string) (string, error) {
	const q = `select list_id from shopping_items where id = $1::uuid;`

	var listID string
	err := r.db.QueryRow(ctx, q, itemID).Scan(&listID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrItemNotFound
		}
		return "", err
	}
	return listID, nil
}

// Update writes the item's name and purchased flag and advances the
// parent list's last_interaction in the same transaction. An update that
// would collide with an existing unpurchased item of the same name is
// rejected like a duplicate create.
func (r *ItemRepository) Update(ctx context.Context, itemID, name string, purchased bool) (*domain.ShoppingItem, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
update shopping_items
set name = $2, purchased = $3, updated_at = now()
where id = $1::uuid
returning id, list_id, name, purchased, created_at, updated_at;
`
	var it domain.ShoppingItem
	err = tx.QueryRow(ctx, q, itemID, name, purchased).
		Scan(&it.ID, &it.ListID, &it.Name, &it.Purchased, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, translateItemErr(err)
	}

	if _, err := tx.Exec(ctx, touchList, it.ListID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateItemErr(err)
	}
	return &it, nil
}

// Delete removes an item. Deletion deliberately does not touch the parent
// list's last_interaction.
func (r *ItemRepository) Delete(ctx context.Context, itemID string) (bool, error) {
	const q = `delete from shopping_items where id = $1::uuid;`

	ct, err := r.db.Exec(ctx, q, itemID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// ListByList returns the items of a list, unpurchased partition first,
// plus the total count for pagination. orderBy may be "name" or
// "purchased" for an explicit sort; anything else gets the default order.
func (r *ItemRepository) ListByList(ctx context.Context, listID, orderBy string, limit, offset int) ([]domain.ShoppingItem, int, error) {
	const countQ = `select count(*) from shopping_items where list_id = $1::uuid;`

	var total int
	if err := r.db.QueryRow(ctx, countQ, listID).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `
select id, list_id, name, purchased, created_at, updated_at
from shopping_items
where list_id = $1::uuid
`
	switch orderBy {
	case "name":
		q += "order by name"
	case "purchased":
		q += "order by purchased, name"
	default:
		q += "order by purchased, created_at"
	}
	q += " limit $2 offset $3;"

	rows, err := r.db.Query(ctx, q, listID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.ShoppingItem, 0, 16)
	for rows.Next() {
		var it domain.ShoppingItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.Name, &it.Purchased, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// Search returns items whose name contains the substring
// (case-insensitive), restricted to lists the user is a member of,
// ordered by name ascending. The substring is matched literally; LIKE
// metacharacters in it do not act as wildcards.
func (r *ItemRepository) Search(ctx context.Context, userID, substr string, limit, offset int) ([]domain.ShoppingItem, int, error) {
	substr = escapeLike(substr)

	const countQ = `
select count(*)
from shopping_items i
join list_members m on m.list_id = i.list_id
where m.user_id = $1::uuid and i.name ilike '%' || $2 || '%';
`
	var total int
	if err := r.db.QueryRow(ctx, countQ, userID, substr).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
select i.id, i.list_id, i.name, i.purchased, i.created_at, i.updated_at
from shopping_items i
join list_members m on m.list_id = i.list_id
where m.user_id = $1::uuid and i.name ilike '%' || $2 || '%'
order by i.name
limit $3 offset $4;
`
	rows, err := r.db.Query(ctx, q, userID, substr, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.ShoppingItem, 0, 16)
	for rows.Next() {
		var it domain.ShoppingItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.Name, &it.Purchased, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// PurgePurchasedBefore deletes purchased items last updated before the
// cutoff. Used by the maintenance janitor only.
func (r *ItemRepository) PurgePurchasedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `delete from shopping_items where purchased and updated_at < $1;`

	ct, err := r.db.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so a user-supplied search
// term matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// unique violation on the partial (list_id, name) index means a duplicate
func translateItemErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateItem
	}
	return err
}
