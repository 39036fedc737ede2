package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/config"
	"github.com/MikhailRaia/shortlinks/internal/handler"
	"github.com/MikhailRaia/shortlinks/internal/metrics"
	"github.com/MikhailRaia/shortlinks/internal/middleware"
	"github.com/MikhailRaia/shortlinks/internal/proto"
	"github.com/MikhailRaia/shortlinks/internal/service"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/MikhailRaia/shortlinks/internal/storage/file"
	"github.com/MikhailRaia/shortlinks/internal/storage/memory"
	"github.com/MikhailRaia/shortlinks/internal/storage/postgres"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

// Store is what the application needs from a backend: links and accounts.
type Store interface {
	storage.LinkStore
	storage.UserStore
}

type App struct {
	config     *config.Config
	store      Store
	handler    http.Handler
	grpcServer *grpc.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metrics.Init()

	jwtService := auth.NewJWTService(cfg.JWTSecret,
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithTTL(cfg.TokenTTL),
	)

	var (
		resolver  service.PrincipalResolver = jwtService
		registrar handler.CredentialRegistrar
	)
	if cfg.AuthMode == config.AuthModeTable {
		table := auth.NewTokenTable()
		resolver = table
		registrar = table
	}

	opts := service.DefaultOptions()
	opts.IDLength = cfg.IDLength
	opts.MaxAttempts = cfg.MaxAttempts
	opts.ReuseExisting = cfg.ReuseExisting
	if cfg.ClearScope == config.ClearScopeOwned {
		opts.ClearScope = storage.ClearOwned
	}

	shortener := service.NewShortenerService(store, resolver, opts)
	users := service.NewUserService(store, jwtService)

	httpHandler := handler.NewHandler(shortener, users, registrar, cfg.TrustedSources)

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(middleware.GRPCCredentialInterceptor))
	proto.RegisterShortenerServiceServer(grpcServer, handler.NewShortenerGRPCServer(shortener))

	return &App{
		config:     cfg,
		store:      store,
		handler:    httpHandler.RegisterRoutes(),
		grpcServer: grpcServer,
	}, nil
}

// openStore picks PostgreSQL when a DSN is configured, then the file journal, then memory.
func openStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch {
	case cfg.DatabaseDSN != "":
		s, err := postgres.NewStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error opening database: %w", err)
		}
		log.Info().Msg("Using PostgreSQL storage")
		return s, nil
	case cfg.FileStoragePath != "":
		s, err := file.NewStorage(cfg.FileStoragePath)
		if err != nil {
			return nil, fmt.Errorf("error opening file storage: %w", err)
		}
		links, users := s.GetStats()
		log.Info().
			Str("path", cfg.FileStoragePath).
			Int("links", links).
			Int("users", users).
			Msg("Using file storage")
		return s, nil
	default:
		log.Info().Msg("Using in-memory storage")
		return memory.NewStorage(), nil
	}
}

// Run serves HTTP and, when an address is configured, gRPC until ctx is cancelled or a
// server fails. The store is closed on return.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	var grpcListener net.Listener
	if a.config.GRPCAddress != "" {
		lis, err := net.Listen("tcp", a.config.GRPCAddress)
		if err != nil {
			return fmt.Errorf("error listening for grpc: %w", err)
		}
		grpcListener = lis
	}

	httpServer := &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", a.config.ServerAddress).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcListener != nil {
		lis := grpcListener
		g.Go(func() error {
			log.Info().Str("address", a.config.GRPCAddress).Msg("Starting gRPC server")
			if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
