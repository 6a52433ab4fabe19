package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/service"
)

// Deps сервисы, которые обслуживает HTTP-слой
type Deps struct {
	Products *service.ProductService
	Carts    *service.CartService
	Orders   *service.OrderService
	Users    *service.UserService
	Admin    *service.AdminService
	Log      zerolog.Logger
	// AllowedOrigins пусто или "*" разрешает любой origin
	AllowedOrigins []string
}

type Server struct {
	engine   *gin.Engine
	products *service.ProductService
	carts    *service.CartService
	orders   *service.OrderService
	users    *service.UserService
	admin    *service.AdminService
	log      zerolog.Logger
}

func NewServer(d Deps) *Server {
	registerValidators()

	r := gin.New()
	r.Use(RequestID(), RequestLogger(d.Log), Recovery(d.Log), corsMiddleware(d.AllowedOrigins))
	s := &Server{
		engine:   r,
		products: d.Products,
		carts:    d.Carts,
		orders:   d.Orders,
		users:    d.Users,
		admin:    d.Admin,
		log:      d.Log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	// credentials только для явного списка origin; для "*" ответ без Allow-Credentials
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	authed := s.Auth()
	admin := []gin.HandlerFunc{authed, AdminOnly()}

	users := api.Group("/users")
	{
		users.POST("/signup", s.signup)
		users.POST("/login", s.login)
		users.POST("/logout", s.logout)

		users.GET("/profile", authed, s.getProfile)
		users.PUT("/profile", authed, s.updateProfile)
		users.POST("/address", authed, s.addAddress)
		users.PUT("/address/default", authed, s.setDefaultAddress)
		users.PUT("/address/:addressId", authed, s.updateAddress)
		users.DELETE("/address/:addressId", authed, s.deleteAddress)
		users.GET("/wishlist", authed, s.getWishlist)
		users.POST("/wishlist", authed, s.addToWishlistBody)
		users.DELETE("/wishlist/:productId", authed, s.removeFromWishlist)

		users.GET("", append(admin, s.listUsers)...)
		users.DELETE("/:id", append(admin, s.deleteUser)...)
		users.PUT("/:id/role", append(admin, s.updateUserRole)...)
	}

	products := api.Group("/products")
	{
		products.GET("", s.listProducts)
		products.GET("/:id", s.getProduct)
		products.POST("", append(admin, s.createProduct)...)
		products.PUT("/:id", append(admin, s.updateProduct)...)
		products.DELETE("/:id", append(admin, s.deleteProduct)...)
		products.POST("/:id/reviews", authed, s.addReview)
	}

	cart := api.Group("/cart", authed)
	{
		cart.GET("", s.getCart)
		cart.POST("", s.addToCart)
		cart.PUT("/:itemId", s.updateCartItem)
		cart.DELETE("/:itemId", s.removeCartItem)
		cart.DELETE("", s.clearCart)
	}

	orders := api.Group("/orders", authed)
	{
		orders.POST("", s.createOrder)
		orders.GET("/myorders", s.myOrders)
		orders.GET("/:id", s.getOrder)
		orders.POST("/:id/verify-payment", s.verifyPayment)
		orders.PUT("/:id/status", AdminOnly(), s.updateOrderStatus)
	}

	wishlist := api.Group("/wishlist", authed)
	{
		wishlist.GET("", s.getWishlist)
		wishlist.DELETE("", s.clearWishlist)
		wishlist.GET("/check/:productId", s.checkWishlist)
		wishlist.POST("/:productId", s.addToWishlist)
		wishlist.DELETE("/:productId", s.removeFromWishlist)
	}

	adm := api.Group("/admin", admin...)
	{
		adm.GET("/users", s.listUsers)
		adm.GET("/users/:id", s.getUser)
		adm.PUT("/users/:id", s.updateUser)
		adm.DELETE("/users/:id", s.deleteUser)

		adm.POST("/products", s.createProduct)
		adm.PUT("/products/:id", s.updateProduct)
		adm.DELETE("/products/:id", s.deleteProduct)
		adm.PUT("/products/:id/stock", s.updateStock)

		adm.GET("/orders", s.listOrders)
		adm.PUT("/orders/:id/status", s.updateOrderStatus)
		adm.GET("/dashboard/stats", s.dashboardStats)
	}
}
