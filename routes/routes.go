package routes

import (
	"net/http"

	"condofee-backend/config"
	"condofee-backend/controllers"
	"condofee-backend/logger"
	"condofee-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(allowedOrigins []string, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Invoices-Generated"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return origins[origin]
		},
	}))

	r.Use(config.PerformanceLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
		auth.PUT("/profile", controllers.UpdateProfile)
		auth.PUT("/password", controllers.ChangePassword)
		auth.POST("/register", utils.RequireAdmin(), controllers.Register)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		admin := utils.RequireAdmin()

		// Household directory
		households := api.Group("/households")
		{
			households.GET("", controllers.GetHouseholds)
			households.GET("/:id", controllers.GetHousehold)
			households.POST("", admin, controllers.CreateHousehold)
			households.PUT("/:id", admin, controllers.UpdateHousehold)
			households.DELETE("/:id", admin, controllers.DeleteHousehold)
		}

		// Fee catalog
		fees := api.Group("/fees")
		{
			fees.GET("", controllers.GetFees)
			fees.GET("/:id", controllers.GetFee)
			fees.POST("", admin, controllers.CreateFee)
			fees.PUT("/:id", admin, controllers.UpdateFee)
			fees.DELETE("/:id", admin, controllers.DeleteFee)
		}

		api.POST("/paymentSession", controllers.CreatePaymentSession)

		payments := api.Group("/payments")
		{
			sessions := payments.Group("/sessions")
			{
				sessions.GET("", controllers.GetPaymentSessions)
				sessions.POST("", controllers.CreatePaymentSession)
				sessions.GET("/:id", controllers.GetPaymentSession)
				sessions.PUT("/:id", controllers.UpdatePaymentSession)
				sessions.DELETE("/:id", admin, controllers.DeletePaymentSession)
				sessions.DELETE("/:id/:feeId", controllers.RemoveSessionFee)
				sessions.GET("/:id/invoices", controllers.GetSessionInvoices)
				sessions.POST("/:id/invoices", controllers.GenerateSessionInvoices)
				sessions.PUT("/:id/fees/:feeId/invoices", controllers.UpdateSessionInvoices)
				sessions.GET("/:id/transactions", controllers.GetSessionTransactions)
				sessions.GET("/:id/summary", controllers.GetSessionSummary)
				sessions.POST("/:id/reminders", controllers.SendSessionReminders)
			}

			payments.POST("/transactions", controllers.CreateTransaction)
			payments.PUT("/transactions/:id", controllers.UpdateTransaction)
			payments.DELETE("/transactions/:id", admin, controllers.DeleteTransaction)
		}

		api.GET("/transactions", controllers.GetTransactions)

		invoices := api.Group("/invoices")
		{
			invoices.GET("", controllers.GetInvoices)
			invoices.GET("/:id", controllers.GetInvoice)
		}

		reportController := controllers.ReportController{}
		api.GET("/reports", reportController.GetCollectionAnalytics)

		api.GET("/dashboard", controllers.GetDashboardOverview)
		api.GET("/reminders", controllers.GetReminderLogs)
	}

	return r
}
