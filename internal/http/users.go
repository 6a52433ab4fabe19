package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service"
)

type signupReq struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Register
// @Tags users
// @Accept json
// @Produce json
// @Param input body signupReq true "Account"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} messageResponse
// @Router /users/signup [post]
func (s *Server) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := s.users.Signup(c.Request.Context(), service.SignupInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary Log in
// @Tags users
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} messageResponse
// @Router /users/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// токены не хранятся на сервере, клиент просто забывает свой
//
// @Summary Log out
// @Tags users
// @Produce json
// @Success 200 {object} messageResponse
// @Router /users/logout [post]
func (s *Server) logout(c *gin.Context) {
	c.JSON(http.StatusOK, messageResponse{Message: "logged out successfully"})
}

// @Summary Current profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Router /users/profile [get]
func (s *Server) getProfile(c *gin.Context) {
	u, err := s.users.Profile(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileReq struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" binding:"omitempty,email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password" binding:"omitempty,min=6"`
}

// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body profileReq true "Changed fields"
// @Success 200 {object} domain.User
// @Failure 400 {object} messageResponse
// @Router /users/profile [put]
func (s *Server) updateProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := s.users.UpdateProfile(c.Request.Context(), mustUser(c).ID, service.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type addressReq struct {
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Country   string `json:"country" binding:"required"`
	ZipCode   string `json:"zipCode" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	IsDefault bool   `json:"isDefault"`
}

func (r addressReq) toInput() service.AddressInput {
	return service.AddressInput{
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		Country:   r.Country,
		ZipCode:   r.ZipCode,
		Phone:     r.Phone,
		IsDefault: r.IsDefault,
	}
}

type addressesResponse struct {
	Addresses []domain.Address `json:"addresses"`
}

// @Summary Add address
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addressReq true "Address"
// @Success 201 {object} addressesResponse
// @Failure 400 {object} messageResponse
// @Router /users/address [post]
func (s *Server) addAddress(c *gin.Context) {
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	list, err := s.users.AddAddress(c.Request.Context(), mustUser(c).ID, req.toInput())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, addressesResponse{Addresses: list})
}

// @Summary Update address
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param addressId path string true "Address ID"
// @Param input body addressReq true "Address"
// @Success 200 {object} addressesResponse
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /users/address/{addressId} [put]
func (s *Server) updateAddress(c *gin.Context) {
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	list, err := s.users.UpdateAddress(c.Request.Context(), mustUser(c).ID, c.Param("addressId"), req.toInput())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addressesResponse{Addresses: list})
}

type defaultAddressReq struct {
	AddressID string `json:"addressId" binding:"required"`
}

// @Summary Set default address
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body defaultAddressReq true "Address"
// @Success 200 {object} addressesResponse
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /users/address/default [put]
func (s *Server) setDefaultAddress(c *gin.Context) {
	var req defaultAddressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "address ID is required")
		return
	}
	list, err := s.users.SetDefaultAddress(c.Request.Context(), mustUser(c).ID, req.AddressID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addressesResponse{Addresses: list})
}

// @Summary Delete address
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param addressId path string true "Address ID"
// @Success 200 {object} addressesResponse
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /users/address/{addressId} [delete]
func (s *Server) deleteAddress(c *gin.Context) {
	list, err := s.users.DeleteAddress(c.Request.Context(), mustUser(c).ID, c.Param("addressId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addressesResponse{Addresses: list})
}
