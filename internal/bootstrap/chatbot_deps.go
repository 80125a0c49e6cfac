package bootstrap

import (
	"context"
	"fmt"
	"time"

	ordercache "chatbot_server/adapter/out/cache"
	"chatbot_server/adapter/out/messaging"
	"chatbot_server/adapter/out/mongodb"
	"chatbot_server/adapter/out/persistence"
	"chatbot_server/config"
	"chatbot_server/core/port/out"
	"chatbot_server/core/service/chat"
	"chatbot_server/core/service/inference"
	"chatbot_server/core/service/retrain"
	"chatbot_server/infra/database"
	"chatbot_server/pkg/cache"
	"chatbot_server/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	OrderRepo       out.OrderRepository
	InteractionRepo out.InteractionRepository
	Publisher       out.InteractionPublisher

	// Services
	Models  *inference.Holder
	Chat    *chat.Service
	Retrain *retrain.Runner
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// MongoDB: orders and the interaction log
	if cfg.MongoDBURL != "" {
		client, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
		if err != nil {
			if cfg.OrderStore == config.OrderStoreMongo {
				cleanup()
				return nil, nil, err
			}
			logger.Warn("MongoDB connection failed: %v", err)
		} else {
			deps.MongoDB = client
			cleanups = append(cleanups, func() {
				_ = client.Disconnect(context.Background())
			})
			db := client.Database(cfg.MongoDBName)

			interactions := mongodb.NewInteractionAdapter(db)
			if err := interactions.EnsureIndexes(ctx); err != nil {
				logger.Warn("Failed to ensure interaction indexes: %v", err)
			}
			deps.InteractionRepo = interactions

			if cfg.OrderStore == config.OrderStoreMongo {
				orders := mongodb.NewOrderAdapter(db)
				if err := orders.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure order indexes: %v", err)
				}
				deps.OrderRepo = orders
			}
			logger.Info("MongoDB connected (database: %s)", cfg.MongoDBName)
		}
	}

	// PostgreSQL order store
	if cfg.OrderStore == config.OrderStorePostgres {
		sqlDB, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.SQLDB = sqlDB
		cleanups = append(cleanups, func() { sqlDB.Close() })
		if err := persistence.Migrate(ctx, sqlDB); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate orders: %w", err)
		}
		deps.OrderRepo = persistence.NewOrderAdapter(sqlDB)
		logger.Info("PostgreSQL order store ready")
	}

	// Redis
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	if deps.Redis != nil && deps.OrderRepo != nil && cfg.OrderCacheTTL > 0 {
		deps.OrderRepo = ordercache.NewOrderCache(deps.OrderRepo,
			cache.NewRedisCache(deps.Redis, "chatbot:"), cfg.OrderCacheTTL)
	}

	// Interaction publisher: stream first, direct write when the broker is down
	switch {
	case deps.Redis != nil && deps.InteractionRepo != nil:
		deps.Publisher = messaging.NewFallbackPublisher(
			messaging.NewRedisProducer(deps.Redis),
			messaging.NewDirectPublisher(deps.InteractionRepo),
		)
	case deps.Redis != nil:
		deps.Publisher = messaging.NewRedisProducer(deps.Redis)
	case deps.InteractionRepo != nil:
		deps.Publisher = messaging.NewDirectPublisher(deps.InteractionRepo)
	default:
		logger.Warn("No interaction store configured; chat interactions will not be logged")
	}

	// Models
	deps.Models = inference.NewHolder(ArtifactPaths(cfg), InferenceConfig(cfg))

	replies, err := chat.LoadReplies(cfg.RepliesPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	chatSvc, err := chat.NewService(chat.Deps{
		Predictor: deps.Models,
		Orders:    deps.OrderRepo,
		Publisher: deps.Publisher,
		Replies:   replies,
	}, chat.Config{LookupTimeout: cfg.OrderLookupTimeout})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Chat = chatSvc

	if deps.InteractionRepo != nil {
		deps.Retrain = retrain.NewRunner(RetrainConfig(cfg), deps.InteractionRepo)
	}

	return deps, cleanup, nil
}

// HealthCheck pings every connected store.
func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if d.MongoDB != nil {
		if err := d.MongoDB.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
	}
	if d.SQLDB != nil {
		if err := d.SQLDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}
