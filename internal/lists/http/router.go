package http

import "github.com/gin-gonic/gin"

type Handler struct {
	lists ListService
	items ItemService
}

func Register(rg *gin.RouterGroup, lists ListService, items ItemService) {
	h := &Handler{lists: lists, items: items}

	sl := rg.Group("/shopping-lists")
	sl.GET("", h.listLists)
	sl.POST("", h.createList)
	sl.GET("/:id", h.getList)
	sl.PUT("/:id", h.updateList)
	sl.PATCH("/:id", h.patchList)
	sl.DELETE("/:id", h.deleteList)
	sl.PUT("/:id/add-members", h.addMembers)
	sl.PUT("/:id/remove-members", h.removeMembers)
	sl.GET("/:id/activity", h.listActivity)

	sl.GET("/:id/shopping-items", h.listItems)
	sl.POST("/:id/shopping-items", h.createItem)
	sl.GET("/:id/shopping-items/:item_id", h.getItem)
	sl.PUT("/:id/shopping-items/:item_id", h.updateItem)
	sl.PATCH("/:id/shopping-items/:item_id", h.patchItem)
	sl.DELETE("/:id/shopping-items/:item_id", h.deleteItem)

	rg.GET("/search/shopping-items", h.searchItems)
}
