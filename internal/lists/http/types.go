package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartmates/cartmates-backend/internal/activity"
	"github.com/cartmates/cartmates-backend/internal/lists/domain"
	"github.com/cartmates/cartmates-backend/internal/lists/service"
)

// ListService is the list-side surface the handlers call.
type ListService interface {
	Create(ctx context.Context, caller service.Caller, name string) (*domain.ListDetail, error)
	Get(ctx context.Context, caller service.Caller, listID string) (*domain.ListDetail, error)
	List(ctx context.Context, caller service.Caller, limit, offset int) ([]domain.ListDetail, int, error)
	Update(ctx context.Context, caller service.Caller, listID string, name *string, lastInteraction *time.Time) (*domain.ListDetail, error)
	Delete(ctx context.Context, caller service.Caller, listID string) error
	UpdateMembers(ctx context.Context, caller service.Caller, listID string, memberIDs []string, apply domain.MemberApply) ([]domain.Member, error)
	Activity(ctx context.Context, caller service.Caller, listID string, n int) ([]activity.Event, error)
}

// ItemService is the item-side surface the handlers call.
type ItemService interface {
	Create(ctx context.Context, caller service.Caller, listID, name string, purchased bool) (*domain.ShoppingItem, error)
	Get(ctx context.Context, caller service.Caller, itemID string) (*domain.ShoppingItem, error)
	Update(ctx context.Context, caller service.Caller, itemID string, name *string, purchased *bool) (*domain.ShoppingItem, error)
	Delete(ctx context.Context, caller service.Caller, itemID string) error
	List(ctx context.Context, caller service.Caller, listID, orderBy string, limit, offset int) ([]domain.ShoppingItem, int, error)
	Search(ctx context.Context, caller service.Caller, substr string, limit, offset int) ([]domain.ShoppingItem, int, error)
}

const (
	listPageSize = 10
	itemPageSize = 50
	maxPageSize  = 100
)

type createListReq struct {
	Name string `json:"name"`
}

type updateListReq struct {
	Name            *string    `json:"name"`
	LastInteraction *time.Time `json:"last_interaction"`
}

type membersReq struct {
	Members []string `json:"members"`
}

type createItemReq struct {
	Name      *string `json:"name"`
	Purchased *bool   `json:"purchased"`
}

type updateItemReq struct {
	Name      *string `json:"name"`
	Purchased *bool   `json:"purchased"`
}

type pageResp struct {
	Count   int `json:"count"`
	Results any `json:"results"`
}

// pagination reads limit/offset query parameters with a per-endpoint
// default page size.
func pagination(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// pathUUID reads and validates a uuid path parameter. A malformed id
// responds like an id that does not exist, so probing with garbage and
// probing with absent ids are indistinguishable.
func pathUUID(c *gin.Context, param string, notFound error) (string, bool) {
	id := c.Param(param)
	if _, err := uuid.Parse(id); err != nil {
		respondErr(c, notFound)
		return "", false
	}
	return id, true
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrListNotFound), errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateItem), errors.Is(err, domain.ErrUnknownMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
