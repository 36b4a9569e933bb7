package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mohit065/bankbase/docs"
	"github.com/mohit065/bankbase/internal/audit"
	"github.com/mohit065/bankbase/internal/database"
	"github.com/mohit065/bankbase/internal/ledger"
	mW "github.com/mohit065/bankbase/internal/middleware"
	"github.com/mohit065/bankbase/internal/services"
)

// @title BankBase API
// @version 1.0
// @description Back-office ledger of record for customer accounts and monetary movements
// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "BankBase API"
	docs.SwaggerInfo.Description = "Back-office ledger of record for customer accounts and monetary movements"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditLogger := audit.NewLogger()
	accountService := services.NewAccountService(db, redisClient, auditLogger)
	ledgerService := ledger.NewService(db, accountService)
	transactionService := services.NewTransactionService(ledgerService, accountService, auditLogger)
	employeeService := services.NewEmployeeService(db, auditLogger)
	authService := services.NewAuthService(db, redisClient)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Public endpoints (no auth required)
	r.Post("/auth/login", authService.Login)
	r.Post("/auth/logout", authService.Logout)

	// Protected endpoints (auth required)
	r.Group(func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.Post("/auth/change-password", authService.ChangePassword)

		r.Get("/employees", employeeService.ListEmployees)
		r.Get("/employees/{id}", employeeService.GetEmployee)

		r.Get("/accounts", accountService.ListAccounts)
		r.Get("/accounts/{id}", accountService.GetAccount)
		r.Put("/accounts/{id}", accountService.UpdateAccount)
		r.Post("/accounts/{id}/slips", accountService.GenerateSlip)
		r.Post("/accounts/slips/redeem", accountService.RedeemSlip)

		r.Get("/transactions", transactionService.ListTransactions)
		r.Post("/transactions", transactionService.CreateTransaction)
		r.Get("/transactions/by-date", transactionService.FilterByDate)
		r.Get("/transactions/by-account/{id}", transactionService.FilterByAccount)
		r.Get("/transactions/{id}/iso20022", transactionService.ExportISO20022)
		// Reversal is gated inside the ledger so the domain error taxonomy
		// covers the role check too.
		r.Post("/transactions/{id}/reverse", transactionService.ReverseTransaction)

		// Admin-only endpoints
		r.Group(func(r chi.Router) {
			r.Use(mW.RequireAdmin)

			r.Post("/employees", employeeService.CreateEmployee)
			r.Patch("/employees/{id}", employeeService.UpdateEmployee)
			r.Delete("/employees/{id}", employeeService.DeleteEmployee)

			r.Post("/accounts", accountService.CreateAccount)
			r.Patch("/accounts/{id}/toggle-active", accountService.ToggleActive)
			r.Delete("/accounts/{id}", accountService.DeleteAccount)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
