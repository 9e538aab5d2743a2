// Package bootstrap assembles the process-wide dependencies shared by the
// API server and the batch worker.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/address-completer/app/config"
	"github.com/address-completer/app/services"
	"github.com/address-completer/internal/amap"
	"github.com/address-completer/internal/parser"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Settings are the infrastructure settings read from config/app.yaml and the environment.
type Settings struct {
	Port        string
	Env         string
	Version     string
	AmapKey     string
	RedisURL    string
	MongoURL    string
	MongoDBName string
}

// LoadSettings reads .env (optional), config/app.yaml (optional) and the
// parser tuning file at parserConfigPath.
func LoadSettings(appConfigPath, parserConfigPath string) (Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(appConfigPath)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "address_completer")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("read %s: %w", appConfigPath, err)
	}

	if err := config.Load(parserConfigPath); err != nil {
		return Settings{}, fmt.Errorf("load %s: %w", parserConfigPath, err)
	}

	return Settings{
		Port:        v.GetString("app.port"),
		Env:         v.GetString("app.env"),
		Version:     v.GetString("app.version"),
		AmapKey:     v.GetString("amap.key"),
		RedisURL:    v.GetString("redis.url"),
		MongoURL:    v.GetString("mongo.url"),
		MongoDBName: v.GetString("mongo.database"),
	}, nil
}

// NewLogger returns a production logger when env is "production".
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Stack is the completion pipeline and its supporting services.
type Stack struct {
	Gateway   *amap.Client
	Resolver  *parser.ComponentResolver
	Matcher   *parser.PoiMatcher
	Cache     services.ICacheService
	Addresses *services.AddressService

	closers []func()
}

// Close releases cache connections.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// NewStack builds the gateway, resolver, result cache and address service.
func NewStack(ctx context.Context, settings Settings, logger *zap.Logger) (*Stack, error) {
	if settings.AmapKey == "" {
		logger.Warn("AMAP_KEY is empty; provider calls will be rejected")
	}

	gateway := amap.NewClient(config.C.GatewayConfig(settings.AmapKey), logger.Named("amap"))
	resolver := parser.NewComponentResolver(gateway, logger.Named("resolver"))

	stack := &Stack{
		Gateway:  gateway,
		Resolver: resolver,
		Matcher:  parser.NewPoiMatcher(config.C.Poi.JWWeight, config.C.Poi.LevWeight),
	}

	cache, err := stack.newCache(ctx, settings, logger)
	if err != nil {
		stack.Close()
		return nil, err
	}
	stack.Cache = cache

	stack.Addresses = services.NewAddressService(resolver, cache, logger.Named("address"), services.AddressServiceOptions{
		ParserVersion:  config.C.ParserVersion,
		RequestTimeout: config.RequestTimeout(),
		Workers:        config.C.Batch.Workers,
		PerAddress:     3 * time.Duration(config.C.Amap.MinIntervalMS) * time.Millisecond,
		Weather:        gateway,
	})
	return stack, nil
}

// newCache creates the backend named by the cache configuration.
func (s *Stack) newCache(ctx context.Context, settings Settings, logger *zap.Logger) (services.ICacheService, error) {
	version := config.C.ParserVersion
	ttl := config.CacheTTL()
	backend := config.C.Cache.Backend

	logger.Info("Initializing result cache", zap.String("backend", backend), zap.String("parser_version", version))

	switch backend {
	case "", "memory":
		memory := services.NewCacheService(ttl, version)
		workerCtx, cancel := context.WithCancel(context.Background())
		memory.StartCleanupWorker(workerCtx, 10*time.Minute)
		s.closers = append(s.closers, cancel)
		return memory, nil
	case "none":
		return nil, nil
	case "redis":
		redisCache, err := s.newRedis(settings, ttl, logger)
		if err != nil {
			return nil, err
		}
		return redisCache, nil
	case "mongo":
		mongoCache, err := s.newMongo(ctx, settings, logger)
		if err != nil {
			return nil, err
		}
		return mongoCache, nil
	case "hybrid":
		redisCache, err := s.newRedis(settings, ttl, logger)
		if err != nil {
			return nil, err
		}
		mongoCache, err := s.newMongo(ctx, settings, logger)
		if err != nil {
			return nil, err
		}
		return services.NewHybridCacheService(redisCache, mongoCache, logger.Named("cache")), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

func (s *Stack) newRedis(settings Settings, ttl time.Duration, logger *zap.Logger) (*services.RedisCacheService, error) {
	redisCache, err := services.NewRedisCacheService(settings.RedisURL, config.C.ParserVersion, ttl, logger.Named("redis"))
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = redisCache.Close() })
	return redisCache, nil
}

func (s *Stack) newMongo(ctx context.Context, settings Settings, logger *zap.Logger) (*services.MongoCacheService, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(settings.MongoURL))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s.closers = append(s.closers, func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		}
	})

	mongoCache, err := services.NewMongoCacheService(client.Database(settings.MongoDBName),
		config.C.Cache.L1Size, config.C.ParserVersion, config.C.Cache.TTLHours, logger.Named("mongo"))
	if err != nil {
		return nil, err
	}
	if err := mongoCache.WarmUp(ctx, config.C.Cache.L1Size/10); err != nil {
		logger.Warn("Cache warm up failed", zap.Error(err))
	}
	return mongoCache, nil
}
