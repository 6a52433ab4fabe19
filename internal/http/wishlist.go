package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type wishlistResponse struct {
	Message  string           `json:"message,omitempty"`
	Wishlist []domain.Product `json:"wishlist"`
}

type wishlistBodyReq struct {
	ProductID string `json:"productId" binding:"required"`
}

// @Summary Get wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} wishlistResponse
// @Router /wishlist [get]
// @Router /users/wishlist [get]
func (s *Server) getWishlist(c *gin.Context) {
	list, err := s.users.Wishlist(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlistResponse{Wishlist: list})
}

// @Summary Add to wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} wishlistResponse
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /wishlist/{productId} [post]
func (s *Server) addToWishlist(c *gin.Context) {
	s.addWishlistProduct(c, c.Param("productId"))
}

// @Summary Add to wishlist
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body wishlistBodyReq true "Product"
// @Success 200 {object} wishlistResponse
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /users/wishlist [post]
func (s *Server) addToWishlistBody(c *gin.Context) {
	var req wishlistBodyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product ID is required")
		return
	}
	s.addWishlistProduct(c, req.ProductID)
}

func (s *Server) addWishlistProduct(c *gin.Context, productID string) {
	list, err := s.users.AddToWishlist(c.Request.Context(), mustUser(c).ID, productID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlistResponse{Message: "product added to wishlist", Wishlist: list})
}

// @Summary Remove from wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} wishlistResponse
// @Failure 400 {object} messageResponse
// @Router /wishlist/{productId} [delete]
// @Router /users/wishlist/{productId} [delete]
func (s *Server) removeFromWishlist(c *gin.Context) {
	list, err := s.users.RemoveFromWishlist(c.Request.Context(), mustUser(c).ID, c.Param("productId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlistResponse{Message: "product removed from wishlist", Wishlist: list})
}

// @Summary Clear wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} wishlistResponse
// @Router /wishlist [delete]
func (s *Server) clearWishlist(c *gin.Context) {
	if err := s.users.ClearWishlist(c.Request.Context(), mustUser(c).ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlistResponse{Message: "wishlist cleared", Wishlist: []domain.Product{}})
}

// @Summary Is product in wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} map[string]bool
// @Router /wishlist/check/{productId} [get]
func (s *Server) checkWishlist(c *gin.Context) {
	ok, err := s.users.InWishlist(c.Request.Context(), mustUser(c).ID, c.Param("productId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isInWishlist": ok})
}
