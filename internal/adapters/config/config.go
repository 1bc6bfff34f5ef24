package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Badsnus/qrstudio/internal/adapters/database/memory"
	postgresStorage "github.com/Badsnus/qrstudio/internal/adapters/database/postgres"
	redisStorage "github.com/Badsnus/qrstudio/internal/adapters/database/redis"
	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/service"
	"github.com/Badsnus/qrstudio/internal/domain/utils/location"
	"github.com/Badsnus/qrstudio/pkg/crop"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/preview"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Debug bool

	PreviewSize int
	Timings     preview.Timings

	Crop crop.Options

	ExportBaseSize  int
	ExportMultiples []int

	LibraryBackend string
	LibraryKey     string

	ServerHost string
	ServerPort int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.debug", false)
	v.SetDefault("settings.timezone", "UTC")
	v.SetDefault("settings.log-to-file", false)
	v.SetDefault("settings.logs-dir", "logs")

	v.SetDefault("preview.size", 300)
	v.SetDefault("preview.debounce", preview.DefaultTimings.Debounce)
	v.SetDefault("preview.crossfade", preview.DefaultTimings.Crossfade)
	v.SetDefault("preview.settle", preview.DefaultTimings.Settle)

	v.SetDefault("crop.raster-size", 512)
	v.SetDefault("crop.viewport-size", 240)
	v.SetDefault("crop.default-scale", crop.DefaultScale)
	v.SetDefault("crop.compact-scale", crop.CompactScale)
	v.SetDefault("crop.profile", "default")
	v.SetDefault("crop.wheel-sensitivity", crop.DefaultWheelSensitivity)

	v.SetDefault("export.multiples", service.DefaultMultiples)

	v.SetDefault("library.backend", BackendMemory)
	v.SetDefault("library.key", "qr-studio-library")

	v.SetDefault("service.redis.host", "localhost")
	v.SetDefault("service.redis.port", 6379)
	v.SetDefault("service.redis.db", 0)
	v.SetDefault("service.database.host", "localhost")
	v.SetDefault("service.database.port", 5432)
	v.SetDefault("service.database.name", "qrstudio")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 0)
}

func initConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if path != "" {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("QRSTUDIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", errorz.ErrInvalidConfig, err)
	}
	return nil
}

// Get reads config.yaml (or path), initializes the logger and returns the
// resolved settings.
func Get(path string) (*Config, error) {
	if err := initConfig(path); err != nil {
		return nil, err
	}

	if err := location.Load(viper.GetString("settings.timezone")); err != nil {
		return nil, err
	}

	err := logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: location.Location,
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		return nil, err
	}

	defaultScale := viper.GetFloat64("crop.default-scale")
	switch profile := viper.GetString("crop.profile"); profile {
	case "default":
	case "compact":
		defaultScale = viper.GetFloat64("crop.compact-scale")
	default:
		return nil, fmt.Errorf("%w: unknown crop profile %q", errorz.ErrInvalidConfig, profile)
	}

	previewSize := viper.GetInt("preview.size")
	exportBase := previewSize
	if viper.IsSet("export.base-size") {
		exportBase = viper.GetInt("export.base-size")
	}

	return &Config{
		Debug:       viper.GetBool("settings.debug"),
		PreviewSize: previewSize,
		Timings: preview.Timings{
			Debounce:  viper.GetDuration("preview.debounce"),
			Crossfade: viper.GetDuration("preview.crossfade"),
			Settle:    viper.GetDuration("preview.settle"),
		},
		Crop: crop.Options{
			RasterSize:       viper.GetInt("crop.raster-size"),
			ViewportSize:     viper.GetFloat64("crop.viewport-size"),
			DefaultScale:     defaultScale,
			WheelSensitivity: viper.GetFloat64("crop.wheel-sensitivity"),
		},
		ExportBaseSize:  exportBase,
		ExportMultiples: viper.GetIntSlice("export.multiples"),
		LibraryBackend:  viper.GetString("library.backend"),
		LibraryKey:      viper.GetString("library.key"),
		ServerHost:      viper.GetString("server.host"),
		ServerPort:      viper.GetInt("server.port"),
	}, nil
}

// OpenLibrary connects the configured design storage.
func (c *Config) OpenLibrary(ctx context.Context) (service.DesignStorage, error) {
	switch c.LibraryBackend {
	case BackendMemory, "":
		logger.Log.Warn("Using in-memory library, designs are lost on exit")
		return memory.NewDesignStorage(), nil

	case BackendRedis:
		client, err := redisStorage.New(ctx, redisStorage.Options{
			Host:     viper.GetString("service.redis.host"),
			Port:     viper.GetInt("service.redis.port"),
			Password: viper.GetString("service.redis.password"),
			DB:       viper.GetInt("service.redis.db"),
			Key:      c.LibraryKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Log.Info("Successfully connected to redis")
		return client.Designs, nil

	case BackendPostgres:
		database, err := c.openDatabase()
		if err != nil {
			return nil, err
		}
		return postgresStorage.NewDesignStorage(database.WithContext(ctx)), nil
	}
	return nil, fmt.Errorf("%w: unknown library backend %q", errorz.ErrInvalidConfig, c.LibraryBackend)
}

func (c *Config) openDatabase() (*gorm.DB, error) {
	var gormConfig *gorm.Config
	if c.Debug {
		newLogger := gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{}
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=disable TimeZone=%s",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
		location.Location.String(),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	logger.Log.Info("Successfully connected to the database")

	if err = database.AutoMigrate(postgresStorage.Migrations...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}
