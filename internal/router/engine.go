package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"julianmorley.ca/con-plar/storefront/pkg/global"
)

// NewEngine builds the gin engine with CORS, session resolution, request
// logging and the /api routes.
func NewEngine(cfg global.Config, h *Handler, log *slog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", SessionHeader},
		ExposeHeaders:    []string{"Content-Length", SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(RequestLogger(log))
	router.Use(RequestTimeout(cfg.RequestTimeout))

	InitializeRoutes(router, h)
	return router
}

func InitializeRoutes(router *gin.Engine, h *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/products", h.GetAllProducts)
		api.GET("/orders", h.GetAllOrders)

		cart := api.Group("/cart")
		cart.Use(SessionMiddleware())
		{
			cart.GET("", h.GetCart)
			cart.POST("", h.AddToCart)
			cart.DELETE("/:id", h.RemoveFromCart)
		}

		checkout := api.Group("/checkout")
		checkout.Use(SessionMiddleware())
		{
			checkout.POST("", h.Checkout)
		}
	}
}
