package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service"
)

// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardStats
// @Router /admin/dashboard/stats [get]
func (s *Server) dashboardStats(c *gin.Context) {
	st, err := s.admin.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary All orders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Router /admin/orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.orders.ListOrders(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary All users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.User
// @Router /admin/users [get]
// @Router /users [get]
func (s *Server) listUsers(c *gin.Context) {
	list, err := s.admin.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Failure 404 {object} messageResponse
// @Router /admin/users/{id} [get]
func (s *Server) getUser(c *gin.Context) {
	u, err := s.admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateUserReq struct {
	Role      *string `json:"role" binding:"omitempty,oneof=user admin"`
	IsBlocked *bool   `json:"isBlocked"`
}

// @Summary Update user role or block flag
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param input body updateUserReq true "Changes"
// @Success 200 {object} domain.User
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /admin/users/{id} [put]
func (s *Server) updateUser(c *gin.Context) {
	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var upd service.UserUpdate
	if req.Role != nil {
		role := domain.Role(*req.Role)
		upd.Role = &role
	}
	upd.IsBlocked = req.IsBlocked
	s.applyUserUpdate(c, upd)
}

type roleReq struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// @Summary Change user role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param input body roleReq true "Role"
// @Success 200 {object} domain.User
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /users/{id}/role [put]
func (s *Server) updateUserRole(c *gin.Context) {
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	role := domain.Role(req.Role)
	s.applyUserUpdate(c, service.UserUpdate{Role: &role})
}

func (s *Server) applyUserUpdate(c *gin.Context, upd service.UserUpdate) {
	u, err := s.admin.UpdateUser(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Delete user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /admin/users/{id} [delete]
// @Router /users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	if err := s.admin.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "user deleted successfully"})
}
