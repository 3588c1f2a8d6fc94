package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"condofee-backend/config"
	"condofee-backend/controllers"
	"condofee-backend/logger"
	"condofee-backend/routes"
	"condofee-backend/services"
	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "gen-secret" {
		fmt.Println(utils.GenerateJWTSecret())
		return
	}

	envErr := godotenv.Load()

	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:     logger.ParseLevel(cfg.LogLevel),
		Component: logger.ComponentApp,
		JSON:      cfg.LogJSON,
		Output:    os.Stdout,
	})
	logger.SetDefault(log)
	if envErr != nil {
		log.Info("No .env file found")
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", logger.FieldError, err)
		os.Exit(1)
	}

	decimal.MarshalJSONWithoutQuotes = true
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTExpiryHours)
	utils.RegisterValidators()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := config.ConnectDB(startupCtx, cfg)
	cancelStartup()
	if err != nil {
		log.Error("Database connection failed", logger.FieldError, err)
		os.Exit(1)
	}
	if err := config.Migrate(db); err != nil {
		log.Error("Database migration failed", logger.FieldError, err)
		os.Exit(1)
	}
	if err := controllers.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error("Admin seed failed", logger.FieldError, err)
		os.Exit(1)
	}

	var events services.Publisher = services.NoopPublisher{}
	if cfg.AMQPURL != "" {
		publisher, err := services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn("Event publishing disabled", logger.FieldError, err)
		} else {
			events = publisher
			log.Info("Publishing events", "exchange", cfg.AMQPExchange)
		}
	}
	defer events.Close()

	var sender services.MessageSender
	if cfg.TwilioEnabled() {
		sender = services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.TwilioWhatsApp)
	} else {
		log.Warn("Twilio is not configured, reminders will be logged as skipped")
	}

	billing := services.NewBillingService(db, events, logger.Get(logger.ComponentBilling))
	reminders := services.NewReminderService(db, sender, cfg.TwilioWhatsApp != "", cfg.ReminderWindowDays, logger.Get(logger.ComponentReminder))
	controllers.Init(billing, reminders)

	if cfg.ReminderCron != "" {
		scheduler, err := reminders.StartScheduler(cfg.ReminderCron)
		if err != nil {
			log.Error("Reminder scheduler failed", logger.FieldError, err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	}

	r := routes.SetupRouter(cfg.CORSOrigins, logger.Get(logger.ComponentHTTP))
	if gin.Mode() == gin.DebugMode {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", logger.FieldError, err)
		}
		cancel()
	}()

	log.Info("Starting server", "port", cfg.Port, logger.FieldOperation, logger.OpStartup)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server error", logger.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("Server stopped gracefully")
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
