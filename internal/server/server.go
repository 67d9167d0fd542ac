package server

import (
	"context"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/firebase/genkit/go/genkit"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/adboard/internal/api/consumer"
	"github.com/Zereker/adboard/internal/api/http"
	"github.com/Zereker/adboard/internal/api/mcp"
	"github.com/Zereker/adboard/internal/generate"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/internal/service"
	"github.com/Zereker/adboard/pkg/cache"
	genkitpkg "github.com/Zereker/adboard/pkg/genkit"
	"github.com/Zereker/adboard/pkg/log"
	"github.com/Zereker/adboard/pkg/mq"
	"github.com/Zereker/adboard/pkg/redis"
)

// Version is reported by the MCP server and the version command.
var Version = "0.1.0"

// nameCacheItems bounds the in-process name cache used without redis.
const nameCacheItems = 1000

// Server represents the adboard server
type Server struct {
	config    Config
	logger    *slog.Logger
	g         *genkit.Genkit
	redis     *goredis.Client
	queue     *mq.InMemoryQueue
	producer  *mq.KafkaProducer
	stores    *repo.Stores
	services  *service.Services
	generator *generate.Generator
	consumer  *consumer.Consumer
}

// NewServer creates a new server with the given configuration
func NewServer(conf Config) (*Server, error) {
	server := &Server{
		config: conf,
	}

	if err := server.initDepend(); err != nil {
		return nil, errors.WithMessage(err, "init server dependency failed")
	}

	if err := server.initServices(); err != nil {
		return nil, errors.WithMessage(err, "init services failed")
	}

	if err := server.initConsumer(); err != nil {
		return nil, errors.WithMessage(err, "init consumer failed")
	}

	return server, nil
}

// initDepend initializes all dependencies
func (s *Server) initDepend() error {
	// Initialize log first
	if err := log.Init(s.config.Log); err != nil {
		return errors.WithMessage(err, "failed to init log")
	}

	// Create logger for this module
	s.logger = log.Logger("server")
	s.logger.Info("initializing dependencies")

	ctx := context.Background()

	// Initialize Genkit with the configured OpenRouter models
	s.logger.Info("initializing genkit models", "enabled", s.config.Models.OpenRouter.Enabled())
	g, err := genkitpkg.New(ctx, s.config.Models)
	if err != nil {
		return errors.WithMessage(err, "failed to init models")
	}
	s.g = g

	// Initialize Redis
	s.logger.Info("initializing redis", "enabled", s.config.Redis.Enabled)
	client, err := redis.New(ctx, s.config.Redis)
	if err != nil {
		return errors.WithMessage(err, "failed to init redis")
	}
	s.redis = client

	// Initialize message queue
	s.logger.Info("initializing message queue", "kafka", s.config.Kafka.Enabled)
	if s.config.Kafka.Enabled {
		producer, err := mq.NewKafkaProducer(s.config.Kafka)
		if err != nil {
			return errors.WithMessage(err, "failed to init kafka producer")
		}
		s.producer = producer
	} else {
		s.queue = mq.NewInMemoryQueue()
	}

	s.stores = repo.NewStores(s.config.Store)
	return nil
}

// initServices builds the services, the generator and the startup data
func (s *Server) initServices() error {
	s.logger.Info("initializing services")

	var publisher mq.Publisher = s.queue
	if s.producer != nil {
		publisher = s.producer
	}

	services, err := service.NewServices(service.Config{
		Auth:     s.config.Auth,
		Assets:   s.config.Assets,
		Campaign: s.config.Campaign,
	}, s.stores, publisher, s.config.Kafka.EventsTopic)
	if err != nil {
		return errors.WithMessage(err, "failed to create services")
	}
	s.services = services

	var nameCache cache.Cache = cache.NewMemoryCache(nameCacheItems)
	if s.redis != nil {
		nameCache = cache.NewRedisCache(s.redis, "adboard:")
	}

	generator, err := generate.New(s.g, s.config.Generate, s.stores.AdCopies, nameCache)
	if err != nil {
		return errors.WithMessage(err, "failed to create generator")
	}
	s.generator = generator

	if err := services.Seed(s.config.Auth.SeedDemoUser); err != nil {
		return errors.WithMessage(err, "failed to seed data")
	}
	s.stores.LogCounts(s.logger)

	return nil
}

// initConsumer initializes the ad-metrics consumer
func (s *Server) initConsumer() error {
	s.logger.Info("initializing consumer")

	c, err := consumer.NewConsumer(s.services.Analytics, consumer.Config{
		Kafka:        s.config.Kafka,
		MetricsTopic: s.config.Metrics.Topic,
	})
	if err != nil {
		return errors.WithMessage(err, "failed to create consumer")
	}

	if s.queue != nil {
		if err := c.Subscribe(s.queue); err != nil {
			return errors.WithMessage(err, "failed to subscribe consumer")
		}
	}

	s.consumer = c
	return nil
}

// Services returns the application services
func (s *Server) Services() *service.Services {
	return s.services
}

// Generator returns the AI generator
func (s *Server) Generator() *generate.Generator {
	return s.generator
}

// Start starts the server based on configuration mode
func (s *Server) Start() error {
	s.logger.Info("starting", "mode", s.config.Server.Mode, "port", s.config.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			s.logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	// Start consumer
	if s.consumer != nil {
		g.Go(func() error {
			return s.runConsumer(ctx)
		})
	}

	switch s.config.Server.Mode {
	case "http":
		g.Go(func() error {
			return s.runHTTPServer(ctx)
		})
	case "mcp":
		g.Go(func() error {
			return s.runMCPServer(ctx)
		})
	case "both":
		g.Go(func() error {
			return s.runHTTPServer(ctx)
		})
		g.Go(func() error {
			return s.runMCPServer(ctx)
		})
	default:
		cancel()
		return errors.Errorf("unknown mode: %s", s.config.Server.Mode)
	}

	return g.Wait()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	if s.logger != nil {
		s.logger.Info("shutting down")
	}

	// Stop consumer
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.logger.Error("failed to stop consumer", "error", err)
		}
	}

	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.Error("failed to close kafka producer", "error", err)
		}
	}

	if s.queue != nil {
		_ = s.queue.Close()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("failed to close redis", "error", err)
		}
	}

	return log.Close()
}

func (s *Server) httpConfig() http.ServerConfig {
	serverCfg := http.DefaultServerConfig()
	serverCfg.Host = s.config.Server.Host
	serverCfg.Port = s.config.Server.Port
	serverCfg.ReadTimeout, serverCfg.WriteTimeout = s.config.Server.timeouts()
	serverCfg.AssetsDir = s.config.Assets.Dir
	serverCfg.AssetsPrefix = s.config.Assets.URLPrefix
	return serverCfg
}

func (s *Server) runHTTPServer(ctx context.Context) error {
	srv := http.NewServer(s.services, s.generator, s.httpConfig())

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return errors.WithMessage(err, "http server error")
	}
	return nil
}

func (s *Server) runMCPServer(ctx context.Context) error {
	server := mcp.NewServer(s.services, s.generator, mcp.ServerConfig{
		Name:    "adboard",
		Version: Version,
	})

	if err := server.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.WithMessage(err, "mcp server error")
	}
	return nil
}

func (s *Server) runConsumer(ctx context.Context) error {
	if err := s.consumer.Start(ctx); err != nil {
		return errors.WithMessage(err, "consumer start error")
	}

	// Wait for context cancellation
	<-ctx.Done()

	return s.consumer.Stop()
}
