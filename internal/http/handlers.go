package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
)

type sizeStockReq struct {
	Size     string `json:"size" binding:"required,size"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

type colorReq struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

// productReq тело создания и замены товара
type productReq struct {
	Name             string         `json:"name" binding:"required"`
	Description      string         `json:"description" binding:"required"`
	Price            float64        `json:"price" binding:"gte=0"`
	Images           []string       `json:"images"`
	Category         string         `json:"category" binding:"required,category"`
	SubCategory      string         `json:"subCategory" binding:"required,subcategory"`
	Sizes            []sizeStockReq `json:"sizes" binding:"dive"`
	Color            colorReq       `json:"color" binding:"required"`
	Brand            string         `json:"brand" binding:"required"`
	Material         string         `json:"material" binding:"required"`
	Features         []string       `json:"features"`
	CareInstructions []string       `json:"careInstructions"`
	Tags             []string       `json:"tags"`
	IsOnSale         bool           `json:"isOnSale"`
	SalePrice        float64        `json:"salePrice" binding:"gte=0"`
	IsNewArrival     bool           `json:"isNewArrival"`
	IsFeatured       bool           `json:"isFeatured"`
}

func (r productReq) toDomain() domain.Product {
	return domain.Product{
		Name:             r.Name,
		Description:      r.Description,
		Price:            r.Price,
		Images:           r.Images,
		Category:         domain.Category(r.Category),
		SubCategory:      domain.SubCategory(r.SubCategory),
		Sizes:            toSizes(r.Sizes),
		Color:            domain.Color{Name: r.Color.Name, Code: r.Color.Code},
		Brand:            r.Brand,
		Material:         r.Material,
		Features:         r.Features,
		CareInstructions: r.CareInstructions,
		Tags:             r.Tags,
		IsOnSale:         r.IsOnSale,
		SalePrice:        r.SalePrice,
		IsNewArrival:     r.IsNewArrival,
		IsFeatured:       r.IsFeatured,
	}
}

func toSizes(in []sizeStockReq) []domain.SizeStock {
	out := make([]domain.SizeStock, 0, len(in))
	for _, s := range in {
		out = append(out, domain.SizeStock{Size: domain.Size(s.Size), Quantity: s.Quantity})
	}
	return out
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} messageResponse
// @Failure 401 {object} messageResponse
// @Router /products [post]
// @Router /admin/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := s.products.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} messageResponse
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /products/{id} [put]
// @Router /admin/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := s.products.Update(c.Request.Context(), c.Param("id"), req.toDomain())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type stockReq struct {
	Sizes []sizeStockReq `json:"sizes" binding:"required,dive"`
}

// @Summary Replace product stock
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body stockReq true "Sizes"
// @Success 200 {object} domain.Product
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /admin/products/{id}/stock [put]
func (s *Server) updateStock(c *gin.Context) {
	var req stockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := s.products.UpdateStock(c.Request.Context(), c.Param("id"), toSizes(req.Sizes))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /products/{id} [delete]
// @Router /admin/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "product removed"})
}

type listProductsQuery struct {
	Category    string   `form:"category"`
	SubCategory string   `form:"subCategory"`
	Brand       string   `form:"brand"`
	Color       string   `form:"color"`
	Size        string   `form:"size"`
	MinPrice    *float64 `form:"minPrice"`
	MaxPrice    *float64 `form:"maxPrice"`
	Sort        string   `form:"sort" binding:"omitempty,oneof=price-asc price-desc newest rating"`
	Page        int      `form:"page" binding:"gte=0"`
	Limit       int      `form:"limit" binding:"gte=0"`
}

// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "Category"
// @Param subCategory query string false "Sub category"
// @Param brand query string false "Brand"
// @Param color query string false "Color name"
// @Param size query string false "Size"
// @Param minPrice query number false "Min price"
// @Param maxPrice query number false "Max price"
// @Param sort query string false "price-asc, price-desc, newest, rating"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} service.ProductPage
// @Failure 400 {object} messageResponse
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	page, err := s.products.List(c.Request.Context(), repository.ProductFilter{
		Category:    domain.Category(q.Category),
		SubCategory: domain.SubCategory(q.SubCategory),
		Brand:       q.Brand,
		Color:       q.Color,
		Size:        domain.Size(q.Size),
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		Sort:        q.Sort,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type reviewReq struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// @Summary Review product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body reviewReq true "Review"
// @Success 201 {object} domain.Product
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /products/{id}/reviews [post]
func (s *Server) addReview(c *gin.Context) {
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := s.products.AddReview(c.Request.Context(), mustUser(c), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Order handlers
type shippingAddressReq struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Country string `json:"country" binding:"required"`
	ZipCode string `json:"zipCode" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
}

func (r shippingAddressReq) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  r.Street,
		City:    r.City,
		State:   r.State,
		Country: r.Country,
		ZipCode: r.ZipCode,
		Phone:   r.Phone,
	}
}

type createOrderReq struct {
	ShippingAddress shippingAddressReq `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required,oneof=razorpay cash_on_delivery"`
}

// @Summary Create order from cart
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createOrderReq true "Order"
// @Success 201 {object} service.PlacedOrder
// @Failure 400 {object} messageResponse
// @Failure 502 {object} messageResponse
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	placed, err := s.orders.CreateOrder(c.Request.Context(), mustUser(c).ID, req.ShippingAddress.toDomain(), domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, placed)
}

// @Summary Current user's orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Router /orders/myorders [get]
func (s *Server) myOrders(c *gin.Context) {
	list, err := s.orders.MyOrders(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 401 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.orders.GetOrder(c.Request.Context(), mustUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type verifyPaymentReq struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// @Summary Verify online payment
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body verifyPaymentReq true "Gateway confirmation"
// @Success 200 {object} domain.Order
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /orders/{id}/verify-payment [post]
func (s *Server) verifyPayment(c *gin.Context) {
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := s.orders.VerifyPayment(c.Request.Context(), mustUser(c), c.Param("id"), service.PaymentConfirmation{
		GatewayOrderID:   req.OrderID,
		GatewayPaymentID: req.PaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type orderStatusReq struct {
	Status         string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	TrackingNumber string `json:"trackingNumber"`
}

// @Summary Update order status
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body orderStatusReq true "Status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} messageResponse
// @Failure 404 {object} messageResponse
// @Router /orders/{id}/status [put]
// @Router /admin/orders/{id}/status [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	var req orderStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status), req.TrackingNumber)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
