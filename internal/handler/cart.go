package handler

import (
	"net/http"

	"skbeauty-be/internal/cart"
	"skbeauty-be/internal/utils"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	carts cart.Service
}

func NewCartHandler(carts cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) List(c *gin.Context) {
	items, err := h.carts.GetItems(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []cart.CartItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *CartHandler) Add(c *gin.Context) {
	var params cart.AddItemParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	item, err := h.carts.AddItem(c.Request.Context(), mustUserID(c), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CartHandler) Update(c *gin.Context) {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item id."})
		return
	}

	var params cart.UpdateItemParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	item, err := h.carts.UpdateItem(c.Request.Context(), mustUserID(c), id, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CartHandler) Delete(c *gin.Context) {
	id, err := utils.ToUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item id."})
		return
	}

	if err := h.carts.DeleteItem(c.Request.Context(), mustUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
