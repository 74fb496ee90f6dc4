package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/cache"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/config"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/console"
	delivery "github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/delivery/http"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/logger"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/messaging"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/messaging/kafka"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository/memory"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository/postgres"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/service"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

// gateway bundles the data service adapters of one backend.
type gateway struct {
	profiles repository.ProfileRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	items    repository.OrderItemRepository
	blobs    repository.BlobStore
	users    auth.UserStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	syncLogs, err := logger.Setup(cfg.Environment, cfg.LogLevel)
	if err != nil {
		slog.Error("Failed to set up logger", "err", err)
		os.Exit(1)
	}
	defer syncLogs()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Data service ---
	gw, db, err := openGateway(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init data service", "backend", cfg.DataBackend, "err", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	// --- Sessions ---
	var sessions auth.SessionStore = memory.NewSessionStore()
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Error("Failed to init Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		sessions = auth.NewRedisSessionStore(redisClient.GetClient())
	}

	notifier := auth.NewNotifier(slog.Default())
	defer notifier.Close()

	authSvc := auth.NewService(gw.users, sessions, notifier, auth.Config{
		SessionTTL:  cfg.SessionTTL,
		AutoConfirm: cfg.AuthAutoConfirm,
		ConfirmURL:  cfg.PublicBaseURL + "/auth/confirm",
		HashCost:    bcrypt.DefaultCost,
	})

	// --- Kafka ---
	var publisher messaging.Publisher = messaging.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		broker := kafka.NewKafkaBroker(cfg.KafkaBrokers)
		defer broker.Close()
		publisher = broker
		slog.Info("Publishing composition events", "brokers", cfg.KafkaBrokers)
	}

	// --- Console ---
	store := state.NewStore(gw.profiles, gw.products, gw.orders)
	c := console.New(console.Deps{
		Auth:     authSvc,
		Store:    store,
		Composer: service.NewOrderComposer(gw.orders, gw.items, store, publisher),
		Profiles: service.NewProfileService(gw.profiles, store),
		Products: service.NewProductService(gw.products, gw.blobs, cfg.ImageBucket, store),
		Orders:   service.NewOrderService(gw.orders, store),
	})
	if err := c.Start(ctx); err != nil {
		slog.Error("Failed to start console", "err", err)
		os.Exit(1)
	}

	// --- HTTP API ---
	router := delivery.NewRouter(delivery.NewHandler(c, authSvc, gw.blobs), cfg.CORSAllowedOrigin)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- gRPC health ---
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		slog.Error("Failed to listen for gRPC", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("gRPC health server starting", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "err", err)
			cancel()
		}
	}()

	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTPAddr, "backend", cfg.DataBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()
	slog.Info("Shutting down...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "err", err)
	}
	grpcServer.GracefulStop()
}

func openGateway(ctx context.Context, cfg *config.Config) (*gateway, *sql.DB, error) {
	if cfg.DataBackend == config.BackendPostgres {
		db, err := postgres.InitDB(ctx, cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.SeedProducts(ctx, db, seedCatalogue()); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &gateway{
			profiles: postgres.NewProfileRepository(db),
			products: postgres.NewProductRepository(db),
			orders:   postgres.NewOrderRepository(db),
			items:    postgres.NewOrderItemRepository(db),
			blobs:    postgres.NewBlobStore(db, cfg.PublicBaseURL),
			users:    postgres.NewUserStore(db),
		}, db, nil
	}

	mem := memory.NewDB()
	mem.SeedProducts(seedCatalogue()...)
	slog.Warn("Using in-memory data service; data is lost on restart")
	return &gateway{
		profiles: mem.Profiles(),
		products: mem.Products(),
		orders:   mem.Orders(),
		items:    mem.OrderItems(),
		blobs:    mem.Blobs(cfg.PublicBaseURL),
		users:    memory.NewUserStore(mem),
	}, nil, nil
}
