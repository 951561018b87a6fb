package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	NATS     NATSConfig
	Redis    RedisConfig
	Log      LogConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Name         string
	Port         string
	Env          string
	AllowOrigins string // comma-separated CORS origins; empty means localhost only
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NATSConfig - progress event publishing. Empty URL disables NATS and the
// pipeline falls back to a no-op publisher.
type NATSConfig struct {
	URL string // nats://localhost:4222
}

// RedisConfig - optional read cache for public video lookups
type RedisConfig struct {
	URL      string // redis://localhost:6379; empty disables caching
	Password string
	DB       int
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

type StorageConfig struct {
	Type     string // local, s3
	BasePath string // local storage root
	BaseURL  string // public URL prefix for local storage
	S3       S3Config
}

type S3Config struct {
	Endpoint  string // minio:9000 or xxx.r2.cloudflarestorage.com
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string
}

// PipelineConfig - external tool paths and scheduling knobs for the
// ingestion pipeline. Everything the encoder adapters need is passed at
// construction time; nothing reads the environment at run time.
type PipelineConfig struct {
	FFmpegPath  string
	FFprobePath string

	// Concurrency bounds simultaneous transcodes. Each run saturates a core,
	// so the default tracks the host's CPU count capped at 4.
	Concurrency int
	QueueSize   int // pending submissions before enqueue is rejected

	// ToolTimeout bounds each external tool invocation. Expiry is treated
	// exactly like a tool failure.
	ToolTimeout time.Duration

	ScratchPath string // local staging area for blobs during a run

	Preset string
	CRF    int

	// StuckTimeout - a job processing longer than this with no terminal
	// state is swept to failed.
	StuckTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine; plain environment variables work too.
	_ = godotenv.Load()

	logMaxSize, _ := strconv.Atoi(getEnv("LOG_MAX_SIZE", "100"))
	logMaxBackups, _ := strconv.Atoi(getEnv("LOG_MAX_BACKUPS", "5"))
	logMaxAge, _ := strconv.Atoi(getEnv("LOG_MAX_AGE", "30"))
	logCompress := getEnv("LOG_COMPRESS", "true") == "true"

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	s3UseSSL := getEnv("S3_USE_SSL", "false") == "true"

	concurrency, _ := strconv.Atoi(getEnv("PIPELINE_CONCURRENCY", strconv.Itoa(defaultConcurrency())))
	queueSize, _ := strconv.Atoi(getEnv("PIPELINE_QUEUE_SIZE", "100"))
	toolTimeout, _ := strconv.Atoi(getEnv("PIPELINE_TOOL_TIMEOUT_SECONDS", "1800"))
	crf, _ := strconv.Atoi(getEnv("PIPELINE_CRF", "23"))
	stuckTimeout, _ := strconv.Atoi(getEnv("PIPELINE_STUCK_TIMEOUT_SECONDS", "3600"))

	config := &Config{
		App: AppConfig{
			Name:         getEnv("APP_NAME", "Clipstream"),
			Port:         getEnv("APP_PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "clipstream"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "both"),
			FilePath:   getEnv("LOG_FILE", "logs/app.log"),
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
			Compress:   logCompress,
		},
		Storage: StorageConfig{
			Type:     getEnv("STORAGE_TYPE", "local"),
			BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
			BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
				SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
				Bucket:    getEnv("S3_BUCKET", "videos"),
				UseSSL:    s3UseSSL,
				Region:    getEnv("S3_REGION", "auto"),
				PublicURL: getEnv("S3_PUBLIC_URL", ""),
			},
		},
		Pipeline: PipelineConfig{
			FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:  getEnv("FFPROBE_PATH", "ffprobe"),
			Concurrency:  concurrency,
			QueueSize:    queueSize,
			ToolTimeout:  time.Duration(toolTimeout) * time.Second,
			ScratchPath:  getEnv("PIPELINE_SCRATCH_PATH", os.TempDir()),
			Preset:       getEnv("PIPELINE_PRESET", "medium"),
			CRF:          crf,
			StuckTimeout: time.Duration(stuckTimeout) * time.Second,
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// defaultConcurrency - transcoding is CPU-bound and each run saturates a
// core, so more workers than cores just thrashes.
func defaultConcurrency() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
