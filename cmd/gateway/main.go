package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sana/internal/config"
	"sana/internal/consul"
	"sana/internal/events"
	"sana/internal/gateway"
	"sana/internal/identity"
	"sana/internal/logger"
	"sana/internal/session"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	lgr := logger.New("session-gateway")
	logger.SetDefault(lgr)

	cfg, err := config.Load()
	if err != nil {
		lgr.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	lgr.Info("Starting session gateway",
		"port", cfg.Port,
		"redis", cfg.RedisAddr,
		"consul", cfg.ConsulAddr,
	)

	// Session store. REDIS_ADDR=memory keeps everything in-process for
	// local development; an unreachable Redis degrades per-operation to
	// "no session" rather than failing startup.
	var store session.Store
	if cfg.RedisAddr == "memory" {
		store = session.NewMemoryStore()
		lgr.Warn("Using in-memory session store; sessions will not survive restarts")
	} else {
		store = session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if checker, ok := store.(interface{ Health(context.Context) error }); ok {
			if err := checker.Health(context.Background()); err != nil {
				lgr.Warn("Redis unreachable at startup; sessions degrade to unauthenticated until it returns",
					"error", err.Error())
			}
		}
	}

	var sessionOpts []session.Option
	if cfg.SessionInactivity > 0 {
		sessionOpts = append(sessionOpts, session.WithThreshold(cfg.SessionInactivity))
	}
	sessions := session.NewManager(store, sessionOpts...)

	// Consul is optional: without it the gateway still serves auth against
	// a statically configured identity service, but cannot proxy guidance
	// traffic.
	var discovery consul.ServiceDiscovery
	consulClient, err := consul.NewClient(cfg.ConsulAddr, cfg.ConsulToken)
	if err != nil {
		lgr.Warn("Consul unavailable, running without service discovery", "error", err.Error())
	} else {
		discovery = consulClient
	}

	var identityClient *identity.Client
	switch {
	case cfg.IdentityServiceURL != "":
		identityClient = identity.NewClient(cfg.IdentityServiceURL, lgr)
		lgr.Info("Using static identity service", "url", cfg.IdentityServiceURL)
	case discovery != nil:
		identityClient = identity.NewDiscoveryClient(discovery, "identity-service", lgr)
		lgr.Info("Discovering identity service via Consul")
	default:
		lgr.Error("No identity service configured: set IDENTITY_SERVICE_URL or CONSUL_HTTP_ADDR")
		os.Exit(1)
	}

	// Kafka auth events are best-effort and entirely optional.
	var publisher *events.Publisher
	if eventsCfg, err := events.LoadConfig(); err == nil {
		publisher, err = events.NewPublisher(eventsCfg, lgr)
		if err != nil {
			lgr.Warn("Failed to create event publisher, continuing without", "error", err.Error())
			publisher = nil
		}
	} else {
		lgr.Info("Auth event publishing disabled")
	}

	router := gateway.SetupRouter(gateway.Deps{
		Sessions:      sessions,
		Identity:      identityClient,
		Discovery:     discovery,
		Events:        publisher,
		Store:         store,
		Logger:        lgr,
		AllowedOrigin: cfg.FrontendOrigin,
		CookieSecure:  cfg.CookieSecure,
	})

	// Register with Consul under a static ID so restarts replace instead of
	// duplicate.
	serviceID := fmt.Sprintf("session-gateway-%s", cfg.Host)
	if consulClient != nil {
		// Load already validated the port is numeric.
		port, _ := strconv.Atoi(cfg.Port)
		_ = consulClient.Deregister(serviceID)
		err := consulClient.Register(&consul.Registration{
			ID:          serviceID,
			Name:        "session-gateway",
			Address:     cfg.Host,
			Port:        port,
			Tags:        []string{"gateway", "sessions", "auth"},
			HealthURL:   fmt.Sprintf("http://%s:%s/health", cfg.Host, cfg.Port),
			CheckEvery:  "10s",
			CheckWithin: "3s",
		})
		if err != nil {
			lgr.Warn("Failed to register with Consul", "error", err.Error())
		} else {
			lgr.Info("Registered with Consul", "service_id", serviceID)
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lgr.Info("Session gateway listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lgr.Error("Server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lgr.Info("Shutting down session gateway")

	if consulClient != nil {
		if err := consulClient.Deregister(serviceID); err != nil {
			lgr.Warn("Failed to deregister from Consul", "error", err.Error())
		}
	}
	if publisher != nil {
		publisher.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		lgr.Error("Forced shutdown", "error", err.Error())
		os.Exit(1)
	}

	lgr.Info("Session gateway stopped")
}
