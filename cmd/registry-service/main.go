package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/verident/registry/pkg/audit"
	"github.com/verident/registry/pkg/common/config"
	"github.com/verident/registry/pkg/common/database"
	"github.com/verident/registry/pkg/common/kafka"
	"github.com/verident/registry/pkg/common/logger"
	"github.com/verident/registry/pkg/gateway/auth"
	"github.com/verident/registry/pkg/gateway/middleware"
	"github.com/verident/registry/pkg/gateway/routes"
	"github.com/verident/registry/pkg/identity"
	"github.com/verident/registry/pkg/records"
	"gorm.io/gorm"
)

func main() {
	logger.Init()
	cfg := config.Load()

	// The one unrecoverable misconfiguration.
	if cfg.DatabaseURI == "" {
		logger.Log.Fatal("DATABASE_URI is not set")
	}

	policy, err := records.LoadPolicy(cfg.RecordPolicyFile)
	if err != nil {
		logger.Log.WithError(err).Warn("Record policy not loaded, using defaults")
	}

	tokenSigner, err := auth.NewJWTManager(cfg.JWTSecret, "registry", cfg.TokenTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to configure token signing")
	}

	connector := database.NewConnector(cfg)
	connector.OnConnect(func(db *gorm.DB) error {
		for _, migrate := range []func(*gorm.DB) error{
			records.AutoMigrate,
			identity.AutoMigrate,
			audit.AutoMigrate,
		} {
			if err := migrate(db); err != nil {
				return err
			}
		}
		return nil
	})
	connector.Start()
	defer connector.Close()

	var events records.EventPublisher
	if cfg.RecordEventsEnabled {
		producer := kafka.NewProducer(cfg)
		defer producer.Close()
		events = producer
	}

	statsCache := records.NewStatsCache(database.NewRedis(cfg), cfg.StatsCacheTTL)
	auditTrail := audit.NewRepository(connector)

	recordService := records.NewService(records.NewRepository(connector), policy, statsCache, events, auditTrail)
	accountService := identity.NewService(identity.NewRepository(connector))

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","database":"%s"}`, connector.State())
	}).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	routes.NewAuthHandler(accountService, tokenSigner).Register(apiRouter)

	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate(tokenSigner))
	routes.NewRecordsHandler(recordService).Register(protected)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Registry service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down registry service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Registry service stopped")
}
