package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cartmates/cartmates-backend/internal/lists/domain"
)

// createItem requires both name and purchased, matching the full item
// field set.
func (h *Handler) createItem(c *gin.Context) {
	listID, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	var req createItemReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Purchased == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and purchased are required"})
		return
	}

	// Duplicate comparison is exact: no trimming or case folding on the
	// stored name.
	it, err := h.items.Create(c.Request.Context(), caller(c), listID, *req.Name, *req.Purchased)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, it)
}

func (h *Handler) listItems(c *gin.Context) {
	listID, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	limit, offset := pagination(c, itemPageSize)
	orderBy := c.Query("order_by")

	results, total, err := h.items.List(c.Request.Context(), caller(c), listID, orderBy, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResp{Count: total, Results: results})
}

func (h *Handler) getItem(c *gin.Context) {
	itemID, ok := pathUUID(c, "item_id", domain.ErrItemNotFound)
	if !ok {
		return
	}

	it, err := h.items.Get(c.Request.Context(), caller(c), itemID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, it)
}

// updateItem is the full update: the complete field set is required.
func (h *Handler) updateItem(c *gin.Context) {
	itemID, ok := pathUUID(c, "item_id", domain.ErrItemNotFound)
	if !ok {
		return
	}

	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Purchased == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and purchased are required"})
		return
	}

	it, err := h.items.Update(c.Request.Context(), caller(c), itemID, req.Name, req.Purchased)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, it)
}

// patchItem is the partial update: absent fields keep their value.
func (h *Handler) patchItem(c *gin.Context) {
	itemID, ok := pathUUID(c, "item_id", domain.ErrItemNotFound)
	if !ok {
		return
	}

	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
		return
	}

	it, err := h.items.Update(c.Request.Context(), caller(c), itemID, req.Name, req.Purchased)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, it)
}

func (h *Handler) deleteItem(c *gin.Context) {
	itemID, ok := pathUUID(c, "item_id", domain.ErrItemNotFound)
	if !ok {
		return
	}

	if err := h.items.Delete(c.Request.Context(), caller(c), itemID); err != nil {
		respondErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) searchItems(c *gin.Context) {
	substr := c.Query("search")
	if substr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search query parameter is required"})
		return
	}

	limit, offset := pagination(c, itemPageSize)

	results, total, err := h.items.Search(c.Request.Context(), caller(c), substr, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResp{Count: total, Results: results})
}
