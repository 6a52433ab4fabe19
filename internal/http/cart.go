package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type addToCartReq struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required,size"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateCartItemReq struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// @Summary Get cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Cart
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	cart, err := s.carts.Get(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Add item to cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addToCartReq true "Item"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /cart [post]
func (s *Server) addToCart(c *gin.Context) {
	var req addToCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cart, err := s.carts.AddItem(c.Request.Context(), mustUser(c).ID, req.ProductID, domain.Size(req.Size), req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Change cart line quantity
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Cart line ID"
// @Param input body updateCartItemReq true "Quantity"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /cart/{itemId} [put]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cart, err := s.carts.UpdateItem(c.Request.Context(), mustUser(c).ID, c.Param("itemId"), req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Remove cart line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Cart line ID"
// @Success 200 {object} domain.Cart
// @Failure 404 {object} messageResponse
// @Router /cart/{itemId} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	cart, err := s.carts.RemoveItem(c.Request.Context(), mustUser(c).ID, c.Param("itemId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Clear cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Cart
// @Failure 404 {object} messageResponse
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	cart, err := s.carts.Clear(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
