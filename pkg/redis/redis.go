package redis

import (
	"ProctorGolang/internal/entity"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrConfigNotCached signals a cache miss; callers fall back to the
// database.
var ErrConfigNotCached = errors.New("monitoring config not cached")

type IRedis interface {
	SetMonitoringConfig(ctx context.Context, examID string, cfg entity.MonitoringConfig, expiration time.Duration) error
	GetMonitoringConfig(ctx context.Context, examID string) (entity.MonitoringConfig, error)
	InvalidateMonitoringConfig(ctx context.Context, examID string) error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func configKey(examID string) string {
	return fmt.Sprintf("monitoring:config:%s", examID)
}

func (r *redisClient) SetMonitoringConfig(ctx context.Context, examID string, cfg entity.MonitoringConfig, expiration time.Duration) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, configKey(examID), payload, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error caching monitoring config for exam %s: %v", examID, err))
		return err
	}
	return nil
}

func (r *redisClient) GetMonitoringConfig(ctx context.Context, examID string) (entity.MonitoringConfig, error) {
	val, err := r.client.Get(ctx, configKey(examID)).Result()
	if errors.Is(err, redis.Nil) {
		return entity.MonitoringConfig{}, ErrConfigNotCached
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading monitoring config cache for exam %s: %v", examID, err))
		return entity.MonitoringConfig{}, err
	}

	var cfg entity.MonitoringConfig
	if err := json.Unmarshal([]byte(val), &cfg); err != nil {
		return entity.MonitoringConfig{}, err
	}
	return cfg, nil
}

func (r *redisClient) InvalidateMonitoringConfig(ctx context.Context, examID string) error {
	_, err := r.client.Del(ctx, configKey(examID)).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error invalidating monitoring config cache for exam %s: %v", examID, err))
		return err
	}
	return nil
}
