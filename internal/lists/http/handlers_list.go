package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cartmates/cartmates-backend/internal/auth"
	"github.com/cartmates/cartmates-backend/internal/lists/domain"
	"github.com/cartmates/cartmates-backend/internal/lists/service"
)

func caller(c *gin.Context) service.Caller {
	identity := auth.CurrentUser(c)
	return service.Caller{UserID: identity.UserID, Staff: identity.IsStaff}
}

func (h *Handler) createList(c *gin.Context) {
	var req createListReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	l, err := h.lists.Create(c.Request.Context(), caller(c), strings.TrimSpace(req.Name))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, l)
}

func (h *Handler) listLists(c *gin.Context) {
	limit, offset := pagination(c, listPageSize)

	results, total, err := h.lists.List(c.Request.Context(), caller(c), limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResp{Count: total, Results: results})
}

func (h *Handler) getList(c *gin.Context) {
	id, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	l, err := h.lists.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

// updateList is the full update: name is required.
func (h *Handler) updateList(c *gin.Context) {
	id, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	var req updateListReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	name := strings.TrimSpace(*req.Name)
	l, err := h.lists.Update(c.Request.Context(), caller(c), id, &name, req.LastInteraction)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

// patchList is the partial update: absent fields keep their value.
func (h *Handler) patchList(c *gin.Context) {
	id, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	var req updateListReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
			return
		}
		name = &trimmed
	}

	l, err := h.lists.Update(c.Request.Context(), caller(c), id, name, req.LastInteraction)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

func (h *Handler) deleteList(c *gin.Context) {
	id, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	if err := h.lists.Delete(c.Request.Context(), caller(c), id); err != nil {
		respondErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) addMembers(c *gin.Context) {
	h.applyMembers(c, domain.ApplyAdd)
}

func (h *Handler) removeMembers(c *gin.Context) {
	h.applyMembers(c, domain.ApplyRemove)
}

// applyMembers is the single parameterized membership operation; add and
// remove differ only in the set operation applied.
func (h *Handler) applyMembers(c *gin.Context, apply domain.MemberApply) {
	id, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	var req membersReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Members) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "members is required"})
		return
	}

	// Malformed ids are a validation failure, caught before any store
	// call so nothing reaches the uuid[] parameter encoder.
	for _, m := range req.Members {
		if _, err := uuid.Parse(m); err != nil {
			respondErr(c, domain.ErrUnknownMember)
			return
		}
	}

	members, err := h.lists.UpdateMembers(c.Request.Context(), caller(c), id, req.Members, apply)
	if err != nil {
		respondErr(c, err)
		return
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	c.JSON(http.StatusOK, gin.H{"members": ids})
}

func (h *Handler) listActivity(c *gin.Context) {
	id, ok := pathUUID(c, "id", domain.ErrListNotFound)
	if !ok {
		return
	}

	limit, _ := pagination(c, 20)

	events, err := h.lists.Activity(c.Request.Context(), caller(c), id, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
