package appcontext

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/api/handler"
	"github.com/RoyceAzure/lab/devstore/internal/api/middleware"
	"github.com/RoyceAzure/lab/devstore/internal/api/router"
	"github.com/RoyceAzure/lab/devstore/internal/config"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	command_handler "github.com/RoyceAzure/lab/devstore/internal/handler/command"
	event_handler "github.com/RoyceAzure/lab/devstore/internal/handler/event"
	"github.com/RoyceAzure/lab/devstore/internal/infra/consumer"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/admin"
	kafka_config "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/config"
	kafka_consumer "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/consumer"
	kafka_producer "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/producer"
	"github.com/RoyceAzure/lab/devstore/internal/infra/producer"
	"github.com/RoyceAzure/lab/devstore/internal/infra/producer/balancer"
	"github.com/RoyceAzure/lab/devstore/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/devstore/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/devstore/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/devstore/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const consumerStopTimeout = 30 * time.Second

type ApplicationContext struct {
	Cf     *config.Config
	Logger *zerolog.Logger

	UnitOfWork  *db.UnifiedDBImpl
	RedisClient *redis.Client
	CartRepo    repository.ICartRepository
	CartLocker  repository.ICartLocker
	EventCache  repository.IProcessedEventCache

	KafkaProducer     kafka_producer.Producer
	CartEventProducer producer.ICartEventProducer
	KafkaReader       *kafka.Reader
	CartEventConsumer consumer.IBaseConsumer

	CartCommandHandler command_handler.Handler
	CartEventHandler   event_handler.Handler

	UserService    service.IUserService
	ProductService service.IProductService
	BranchService  service.IBranchService
	OrderService   service.IOrderService
	CartService    service.ICartService
	Sweeper        *service.CartFinalizationSweeper

	RateLimiter *ratelimit.RedisTokenBucket
	Router      *chi.Mux
}

type setUpStep struct {
	name string
	fn   func(ctx context.Context) error
}

// NewApplicationContext serve 使用，建立所有元件
func NewApplicationContext(ctx context.Context, cf *config.Config, logger *zerolog.Logger) (*ApplicationContext, error) {
	app := &ApplicationContext{Cf: cf, Logger: logger}
	err := app.init(ctx,
		setUpStep{"database", app.setUpDb},
		setUpStep{"redis", app.setUpRedis},
		setUpStep{"cart stores", app.setUpCartStores},
		setUpStep{"kafka topic", app.setUpKafkaTopic},
		setUpStep{"kafka producer", app.setUpKafkaProducer},
		setUpStep{"command handler", app.setUpCommandHandler},
		setUpStep{"event consumer", app.setUpEventConsumer},
		setUpStep{"services", app.setUpServices},
		setUpStep{"sweeper", app.setUpSweeper},
		setUpStep{"router", app.setUpRouter},
	)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// NewStoreContext 只連線資料庫，seed 使用
func NewStoreContext(ctx context.Context, cf *config.Config, logger *zerolog.Logger) (*ApplicationContext, error) {
	app := &ApplicationContext{Cf: cf, Logger: logger}
	if err := app.init(ctx, setUpStep{"database", app.setUpDb}); err != nil {
		return nil, err
	}
	return app, nil
}

// NewSweepContext 資料庫 + redis + sweeper，單次 sweep 使用
func NewSweepContext(ctx context.Context, cf *config.Config, logger *zerolog.Logger) (*ApplicationContext, error) {
	app := &ApplicationContext{Cf: cf, Logger: logger}
	err := app.init(ctx,
		setUpStep{"database", app.setUpDb},
		setUpStep{"redis", app.setUpRedis},
		setUpStep{"cart stores", app.setUpCartStores},
		setUpStep{"sweeper", app.setUpSweeper},
	)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// init 任一步驟失敗時關閉已建立的連線
func (app *ApplicationContext) init(ctx context.Context, steps ...setUpStep) error {
	for _, step := range steps {
		app.Logger.Info().Str("step", step.name).Msg("start setup")
		if err := step.fn(ctx); err != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if cerr := app.Shutdown(closeCtx); cerr != nil {
				app.Logger.Warn().Err(cerr).Msg("cleanup after failed setup")
			}
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Str("step", step.name).Msg("finish setup")
	}
	return nil
}

func (app *ApplicationContext) MigrateURL() string {
	return db.GetMigrateURL(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
}

func (app *ApplicationContext) setUpDb(ctx context.Context) error {
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	app.UnitOfWork = db.NewUnifiedDB(conn)
	return nil
}

func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	client, err := redis_repo.GetRedisConn(ctx, app.Cf.RedisAddr, app.Cf.RedisPassword, app.Cf.RedisDB)
	if err != nil {
		return err
	}
	app.RedisClient = client
	return nil
}

func (app *ApplicationContext) setUpCartStores(ctx context.Context) error {
	app.CartRepo = redis_repo.NewCartRepo(app.RedisClient)
	app.CartLocker = redis_repo.NewCartLocker(app.RedisClient, app.Cf.CartLockTTL)
	app.EventCache = redis_repo.NewProcessedEventCache(app.RedisClient, app.Cf.EventDedupTTL)
	return nil
}

func (app *ApplicationContext) kafkaConfig() *kafka_config.Config {
	cfg := kafka_config.DefaultConfig()
	cfg.Brokers = app.Cf.Brokers()
	cfg.Topic = app.Cf.KafkaCartEventTopic
	cfg.ConsumerGroup = app.Cf.KafkaConsumerGroup
	cfg.WorkerNum = app.Cf.KafkaWorkerNum
	cfg.HandleRetries = app.Cf.KafkaHandleRetries
	cfg.HandleBackoff = app.Cf.KafkaHandleBackoff
	cfg.Balancer = balancer.NewCartBalancer(app.Cf.KafkaPartitions)
	return cfg
}

// setUpKafkaTopic topic 已存在時不修改分區數
func (app *ApplicationContext) setUpKafkaTopic(ctx context.Context) error {
	a, err := admin.NewAdmin(ctx, app.Cf.Brokers())
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.EnsureTopic(ctx, admin.TopicConfig{
		Name:       app.Cf.KafkaCartEventTopic,
		Partitions: app.Cf.KafkaPartitions,
	})
	if err != nil {
		return err
	}
	app.Logger.Info().Str("topic", app.Cf.KafkaCartEventTopic).Bool("created", created).Msg("kafka topic ready")
	return nil
}

func (app *ApplicationContext) setUpKafkaProducer(ctx context.Context) error {
	p, err := kafka_producer.New(app.kafkaConfig(), app.Logger)
	if err != nil {
		return err
	}
	app.KafkaProducer = p
	app.CartEventProducer = producer.NewCartEventProducer(p)
	return nil
}

func (app *ApplicationContext) setUpCommandHandler(ctx context.Context) error {
	app.CartCommandHandler = command_handler.NewCartCommandHandler(app.CartRepo, app.UnitOfWork, app.CartEventProducer, app.Logger)
	return nil
}

func (app *ApplicationContext) setUpEventConsumer(ctx context.Context) error {
	cfg := app.kafkaConfig()
	reader, err := kafka_consumer.NewKafkaReader(cfg, app.Logger)
	if err != nil {
		return err
	}
	app.KafkaReader = reader
	app.CartEventHandler = event_handler.NewCartEventHandler(app.CartRepo, app.UnitOfWork, app.CartLocker, app.EventCache, app.Logger)
	app.CartEventConsumer = consumer.NewCartEventConsumer(reader, app.CartEventHandler, app.Logger, kafka_consumer.FromConfig(cfg)...)
	return nil
}

func (app *ApplicationContext) setUpServices(ctx context.Context) error {
	app.UserService = service.NewUserService(app.UnitOfWork)
	app.ProductService = service.NewProductService(app.UnitOfWork)
	app.BranchService = service.NewBranchService(app.UnitOfWork)
	app.OrderService = service.NewOrderService(app.UnitOfWork)
	app.CartService = service.NewCartService(app.CartRepo, app.CartCommandHandler)
	return nil
}

func (app *ApplicationContext) setUpSweeper(ctx context.Context) error {
	app.Sweeper = service.NewCartFinalizationSweeper(app.CartRepo, app.UnitOfWork, app.CartLocker, app.Cf.SweepMinAge, app.Logger)
	return nil
}

func (app *ApplicationContext) setUpRouter(ctx context.Context) error {
	server := router.NewServer(
		handler.NewUserHandler(app.UserService),
		handler.NewProductHandler(app.ProductService),
		handler.NewBranchHandler(app.BranchService),
		handler.NewCartHandler(app.CartService),
		handler.NewOrderHandler(app.OrderService),
	)

	// 保持 nil interface，router 才會關閉限流
	var limiter middleware.Limiter
	if app.Cf.RateLimitCapacity > 0 {
		cfg := ratelimit.GetDefaultLimiterConfig()
		cfg.Capacity = app.Cf.RateLimitCapacity
		if app.Cf.RateLimitRate > 0 {
			cfg.RatePS = app.Cf.RateLimitRate
		}
		app.RateLimiter = ratelimit.NewRedisTokenBucket(app.RedisClient, &cfg)
		limiter = app.RateLimiter
	}
	app.Router = router.SetupRouter(server, limiter, app.Logger)
	return nil
}

// Shutdown 依建立的反向順序關閉，個別失敗不中斷流程
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("start application shutdown")

	done := make(chan error, 1)
	go func() {
		var errs []error
		if app.CartEventConsumer != nil {
			if err := app.CartEventConsumer.Stop(consumerStopTimeout); err != nil {
				errs = append(errs, fmt.Errorf("stop consumer: %w", err))
			}
		}
		if app.KafkaReader != nil {
			if err := app.KafkaReader.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close kafka reader: %w", err))
			}
		}
		if app.KafkaProducer != nil {
			if err := app.KafkaProducer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
			}
		}
		if app.RedisClient != nil {
			if err := app.RedisClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}
		if app.UnitOfWork != nil {
			if err := app.UnitOfWork.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.Logger.Error().Err(err).Msg("application shutdown with errors")
		} else {
			app.Logger.Info().Msg("application shutdown complete")
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
