package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"coursehub/backend/internal/gateway"
	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
	"coursehub/backend/internal/store/memstore"
	"coursehub/backend/internal/store/mongostore"
)

const healthService = "coursehub.API"

func main() {
	// Load environment variables
	_ = shared.LoadEnv(".env")

	// 1. Load Configuration
	cfg, err := shared.LoadServiceConfig("coursehub-api")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.IsDevelopment() {
		shared.PrintConfig(appLog, cfg)
	}

	// 2. Open the store
	st, closeStore, err := openStore(cfg, appLog)
	if err != nil {
		appLog.Fatal("failed to open store", "driver", cfg.StoreDriver, "error", err)
	}
	defer closeStore()

	// 3. Optional realtime fan-out
	var broadcaster notification.Broadcaster
	if cfg.Redis.Addr != "" {
		rb, err := notification.NewRedisBroadcaster(cfg.Redis, appLog)
		if err != nil {
			appLog.Warn("redis unavailable, notifications will not be broadcast", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rb.Close()
			broadcaster = rb
		}
	}

	// 4. Services and routes
	svcs := gateway.NewServices(st, appLog, cfg.Security, broadcaster)
	router := gateway.SetupRoutes(svcs, cfg, appLog)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// 5. gRPC health endpoint
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLog.Fatal("failed to listen", "port", cfg.GRPCPort, "error", err)
	}

	// 6. Run until a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if rb, ok := broadcaster.(*notification.RedisBroadcaster); ok {
		err := rb.Subscribe(gctx, func(n shared.Notification) {
			appLog.Debug("notification broadcast", "notification_id", n.ID, "recipient", n.RecipientID, "type", n.Type)
		})
		if err != nil {
			appLog.Warn("redis subscribe failed", "error", err)
		}
	}

	g.Go(func() error {
		appLog.Info("http server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		appLog.Info("grpc health server listening", "port", cfg.GRPCPort)
		return grpcServer.Serve(grpcListener)
	})

	g.Go(func() error {
		<-gctx.Done()
		appLog.Info("shutting down")

		healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLog.Error("server stopped with error", "error", err)
		return
	}
	appLog.Info("server stopped")
}

// openStore returns the configured store and a function releasing it
func openStore(cfg *shared.ServiceConfig, appLog *logger.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == shared.StoreDriverMemory {
		appLog.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}

	st := mongostore.New(client, db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = shared.DisconnectMongoDB(client)
		return nil, nil, err
	}
	appLog.Info("connected to mongodb", "database", cfg.MongoDB.Database)

	return st, func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			appLog.Error("error disconnecting from mongodb", "error", err)
		}
	}, nil
}
