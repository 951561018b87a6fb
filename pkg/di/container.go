package di

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"gorm.io/gorm"

	"clipstream/application/dispatch"
	"clipstream/application/serviceimpl"
	"clipstream/domain/ports"
	"clipstream/domain/repositories"
	"clipstream/domain/services"
	"clipstream/infrastructure/messaging"
	"clipstream/infrastructure/postgres"
	redispkg "clipstream/infrastructure/redis"
	"clipstream/infrastructure/storage"
	"clipstream/infrastructure/transcoder"
	"clipstream/interfaces/api/handlers"
	"clipstream/pkg/config"
	"clipstream/pkg/logger"
	"clipstream/pkg/scheduler"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redispkg.Client // optional read cache
	NATSConn       *nats.Conn       // optional progress event broker
	Storage        ports.BlobStore
	Prober         ports.MediaProber
	Transcoder     ports.Transcoder
	EventPublisher ports.JobEventPublisher
	EventScheduler scheduler.EventScheduler

	// Repositories
	VideoRepository repositories.VideoRepository
	JobRepository   repositories.JobRepository

	// Pipeline
	Orchestrator *serviceimpl.Orchestrator
	Dispatcher   *dispatch.Dispatcher
	StuckSweeper *serviceimpl.StuckJobSweeper

	// Services
	VideoService    services.VideoService
	PipelineService services.PipelineService
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initPipeline(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Info("Configuration loaded")
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
	)
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migrated")

	// Redis is optional: a miss or an outage only means every read hits the
	// database.
	if c.Config.Redis.URL != "" {
		redisClient, err := redispkg.NewClient(&c.Config.Redis)
		if err != nil {
			logger.Warn("Redis client initialization failed (cache disabled)", "error", err)
		} else {
			c.RedisClient = redisClient
			logger.Info("Redis client initialized", "url", c.Config.Redis.URL)
		}
	}

	// NATS is optional: without a broker, progress events are dropped and
	// job status is polled over HTTP.
	if c.Config.NATS.URL != "" {
		conn, err := messaging.ConnectNATS(messaging.NATSConfig{URL: c.Config.NATS.URL})
		if err != nil {
			logger.Warn("NATS connection failed (progress events disabled)", "error", err)
			c.EventPublisher = messaging.NewNoopEventPublisher()
		} else {
			c.NATSConn = conn
			c.EventPublisher = messaging.NewNATSEventPublisher(conn)
			logger.Info("NATS event publisher initialized", "url", c.Config.NATS.URL)
		}
	} else {
		c.EventPublisher = messaging.NewNoopEventPublisher()
		logger.Info("Progress events disabled (no NATS URL configured)")
	}

	if err := c.initStorage(); err != nil {
		return err
	}

	return c.initEncoders()
}

func (c *Container) initStorage() error {
	switch c.Config.Storage.Type {
	case "s3":
		s3Config := storage.S3StorageConfig{
			Endpoint:  c.Config.Storage.S3.Endpoint,
			AccessKey: c.Config.Storage.S3.AccessKey,
			SecretKey: c.Config.Storage.S3.SecretKey,
			Bucket:    c.Config.Storage.S3.Bucket,
			UseSSL:    c.Config.Storage.S3.UseSSL,
			Region:    c.Config.Storage.S3.Region,
			PublicURL: c.Config.Storage.S3.PublicURL,
		}
		s3Storage, err := storage.NewS3Storage(s3Config)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		c.Storage = s3Storage
		logger.Info("S3 storage initialized",
			"endpoint", c.Config.Storage.S3.Endpoint,
			"bucket", c.Config.Storage.S3.Bucket,
		)

	default:
		localConfig := storage.LocalStorageConfig{
			BasePath: c.Config.Storage.BasePath,
			BaseURL:  c.Config.Storage.BaseURL,
		}
		localStorage, err := storage.NewLocalStorage(localConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		c.Storage = localStorage
		logger.Info("Local storage initialized", "path", c.Config.Storage.BasePath)
	}

	return nil
}

func (c *Container) initEncoders() error {
	c.Prober = transcoder.NewFFprobeProber(c.Config.Pipeline.FFprobePath)

	profile := ports.DefaultOutputProfile()
	if c.Config.Pipeline.Preset != "" {
		profile.Preset = c.Config.Pipeline.Preset
	}
	if c.Config.Pipeline.CRF > 0 {
		profile.CRF = c.Config.Pipeline.CRF
	}

	trans, err := transcoder.NewFFmpegTranscoder(transcoder.FFmpegConfig{
		FFmpegPath:  c.Config.Pipeline.FFmpegPath,
		FFprobePath: c.Config.Pipeline.FFprobePath,
		Profile:     profile,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize transcoder: %w", err)
	}
	c.Transcoder = trans
	logger.Info("FFmpeg transcoder initialized",
		"ffmpeg", c.Config.Pipeline.FFmpegPath,
		"ffprobe", c.Config.Pipeline.FFprobePath,
		"preset", profile.Preset,
		"crf", profile.CRF,
	)

	return nil
}

func (c *Container) initRepositories() error {
	c.VideoRepository = postgres.NewVideoRepository(c.DB)
	c.JobRepository = postgres.NewJobRepository(c.DB)
	logger.Info("Repositories initialized")
	return nil
}

func (c *Container) initPipeline() error {
	c.Orchestrator = serviceimpl.NewOrchestrator(
		c.JobRepository,
		c.VideoRepository,
		c.Storage,
		c.Prober,
		c.Transcoder,
		c.EventPublisher,
		c.Config.Pipeline,
	)

	c.Dispatcher = dispatch.NewDispatcher(
		c.Orchestrator.Run,
		c.Config.Pipeline.Concurrency,
		c.Config.Pipeline.QueueSize,
	)
	logger.Info("Dispatcher initialized",
		"workers", c.Config.Pipeline.Concurrency,
		"queue_size", c.Config.Pipeline.QueueSize,
	)
	return nil
}

func (c *Container) initServices() error {
	c.PipelineService = serviceimpl.NewPipelineService(
		c.JobRepository,
		c.VideoRepository,
		c.Dispatcher,
	)

	if c.RedisClient != nil {
		c.VideoService = serviceimpl.NewVideoServiceWithCache(
			c.VideoRepository,
			c.PipelineService,
			c.RedisClient,
		)
		logger.Info("Video service initialized with Redis cache")
	} else {
		c.VideoService = serviceimpl.NewVideoService(c.VideoRepository, c.PipelineService)
		logger.Info("Video service initialized without cache")
	}

	logger.Info("Services initialized")
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()
	c.EventScheduler.Start()

	c.StuckSweeper = serviceimpl.NewStuckJobSweeper(c.JobRepository, c.Config.Pipeline.StuckTimeout)

	err := c.EventScheduler.AddIntervalJob("stuck-job-sweeper", c.StuckSweeper.Interval(), func() {
		ctx := context.Background()
		if _, err := c.StuckSweeper.Sweep(ctx); err != nil {
			logger.Warn("Stuck job sweep failed", "error", err)
		}
	})
	if err != nil {
		logger.Warn("Failed to register stuck job sweeper", "error", err)
	} else {
		logger.Info("Stuck job sweeper registered",
			"timeout", c.Config.Pipeline.StuckTimeout,
			"interval", c.StuckSweeper.Interval(),
		)
	}

	return nil
}

// Start brings up the background machinery: the worker pool and, for jobs
// stranded in queued state by a previous crash, a recovery pass.
func (c *Container) Start(ctx context.Context) error {
	if err := c.Dispatcher.Start(ctx); err != nil {
		return err
	}
	logger.Info("Dispatcher started")

	recovered, err := c.PipelineService.RecoverQueued(ctx)
	if err != nil {
		logger.Warn("Queued job recovery failed", "error", err)
	} else if recovered > 0 {
		logger.Info("Recovered queued jobs", "count", recovered)
	}

	return nil
}

func (c *Container) Cleanup() error {
	logger.Info("Starting cleanup...")

	// Stop accepting new runs and wait for in-flight ones to finish writing
	// their terminal state.
	if c.Dispatcher != nil {
		c.Dispatcher.Stop()
		logger.Info("Dispatcher stopped")
	}

	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
		logger.Info("Event scheduler stopped")
	}

	if c.NATSConn != nil {
		c.NATSConn.Close()
		logger.Info("NATS connection closed")
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", "error", err)
		} else {
			logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database connection", "error", err)
			} else {
				logger.Info("Database connection closed")
			}
		}
	}

	logger.Info("Cleanup completed")
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		VideoService:    c.VideoService,
		PipelineService: c.PipelineService,
	}
}
