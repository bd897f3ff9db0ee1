package api

import (
	"net/http" // HTTP status codes
	"slices"   // Origin lookup
	"time"     // CORS max age

	"finance_tracker/internal/alerts"     // Budget alerts
	"finance_tracker/internal/auth"       // Auth gateway
	"finance_tracker/internal/config"     // Configuration
	"finance_tracker/internal/domain"     // Roles
	"finance_tracker/internal/events"     // Event publishing
	"finance_tracker/internal/middleware" // Custom middleware
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
	"gorm.io/gorm"                // GORM ORM library
)

// Deps are the shared resources the handlers run on
type Deps struct {
	DB        *gorm.DB
	Gateway   *auth.Gateway
	Cache     *utils.Cache     // May wrap a nil client
	Publisher events.Publisher // Nil drops events
	Config    *config.Config
}

// corsMiddleware allows the configured browser origins
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// NewRouter builds the HTTP API
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	gdb := d.DB
	checker := alerts.NewChecker(gdb, d.Publisher)

	r := gin.New() // Gin router instance
	r.Use(middleware.RequestLogger(), middleware.Recovery())
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}
	r.Use(middleware.ErrorHandler())

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			middleware.Log(c).WithField("error", err.Error()).Error("Database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authn := middleware.Authenticate(d.Gateway)
	adminOnly := middleware.Authorize(d.Gateway, domain.RoleAdmin)
	apiGroup := r.Group("/api")

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", RegisterHandler(d.Gateway, d.Cache)) // Registration endpoint
	authGroup.POST("/login",
		middleware.LoginThrottle(d.Cache, cfg.LoginMaxAttempts, cfg.LoginWindow),
		LoginHandler(d.Gateway)) // Login endpoint
	listUsers := []gin.HandlerFunc{authn}
	if cfg.RestrictUserList {
		listUsers = append(listUsers, adminOnly)
	}
	authGroup.GET("/users", append(listUsers, ListUsersHandler(gdb, d.Cache))...)
	authGroup.GET("/me", authn, GetMeHandler())
	authGroup.GET("/:id", authn, GetUserHandler(gdb))
	authGroup.PUT("/:id", authn, UpdateUserHandler(gdb, d.Cache))
	authGroup.DELETE("/:id", authn, DeleteUserHandler(gdb, d.Cache))

	// Transaction routes
	txGroup := apiGroup.Group("/transactions", authn)
	txGroup.POST("", CreateTransactionHandler(gdb, checker, d.Cache))
	txGroup.GET("", ListTransactionsHandler(gdb))
	txGroup.GET("/user/:userId", UserTransactionsHandler(gdb))
	txGroup.GET("/:id", GetTransactionHandler(gdb))
	txGroup.PUT("/:id", UpdateTransactionHandler(gdb, checker, d.Cache))
	txGroup.DELETE("/:id", DeleteTransactionHandler(gdb, d.Cache))

	// Budget routes
	budgetGroup := apiGroup.Group("/budgets", authn)
	budgetGroup.POST("", CreateBudgetHandler(gdb))
	budgetGroup.GET("", ListBudgetsHandler(gdb))
	budgetGroup.GET("/:id", GetBudgetHandler(gdb))
	budgetGroup.PUT("/:id", UpdateBudgetHandler(gdb))
	budgetGroup.DELETE("/:id", DeleteBudgetHandler(gdb))

	// Goal routes
	goalGroup := apiGroup.Group("/goals", authn)
	goalGroup.POST("", CreateGoalHandler(gdb))
	goalGroup.GET("", ListGoalsHandler(gdb))
	goalGroup.GET("/:id", GetGoalHandler(gdb))
	goalGroup.PUT("/:id", UpdateGoalHandler(gdb, checker))
	goalGroup.POST("/:id/contribute", ContributeGoalHandler(gdb, checker))
	goalGroup.DELETE("/:id", DeleteGoalHandler(gdb))

	// Category routes
	catGroup := apiGroup.Group("/categories", authn)
	catGroup.POST("", CreateCategoryHandler(gdb))
	catGroup.GET("", ListCategoriesHandler(gdb))
	catGroup.PUT("/:id", UpdateCategoryHandler(gdb))
	catGroup.DELETE("/:id", DeleteCategoryHandler(gdb))

	// Notification routes
	noteGroup := apiGroup.Group("/notifications", authn)
	noteGroup.GET("", ListNotificationsHandler(gdb))
	noteGroup.PUT("/read-all", MarkAllNotificationsReadHandler(gdb))
	noteGroup.PUT("/:id/read", MarkNotificationReadHandler(gdb))
	noteGroup.DELETE("/:id", DeleteNotificationHandler(gdb))
	noteGroup.POST("", adminOnly, SendNotificationHandler(gdb, checker))

	// Report routes
	reportGroup := apiGroup.Group("/reports", authn)
	reportGroup.GET("/summary", SummaryReportHandler(gdb, d.Cache))
	reportGroup.GET("/users/:userId", adminOnly, UserReportHandler(gdb, d.Cache))

	// Admin routes (protected, admin only)
	adminGroup := apiGroup.Group("/admin", authn, adminOnly)
	adminGroup.GET("/transactions", ListAllTransactionsHandler(gdb, d.Cache))

	return r
}
