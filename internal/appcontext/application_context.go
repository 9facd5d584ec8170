package appcontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/infra/payment"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/mongo_repo"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/logger"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const (
	moduler        = "storefront"
	connectTimeout = 10 * time.Second
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger zerolog.Logger

	DbConn      *gorm.DB
	DbDao       *db.DbDao
	RedisClient *redis.Client
	MongoClient *mongo.Client

	UserRepo    repository.IUserRepository
	ProductRepo repository.IProductRepository
	OrderRepo   repository.IOrderRepository

	CartStorage    cart.Storage
	Idempotency    service.IdempotencyStore
	Limiter        ratelimit.Limiter
	EventProducer  *producer.OrderEventProducer
	LogWriter      *logger.KafkaLogWriter
	Calculator     pricing.Calculator
	TokenMaker     token.Maker
	PaymentGateway service.PaymentGateway

	AuthService     service.IAuthService
	UserService     service.IUserService
	ProductService  service.IProductService
	CartService     service.ICartService
	WishlistService service.IWishlistService
	OrderService    service.IOrderService
	PaymentService  service.IPaymentService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: zerolog.Nop(),
	}
	if err := app.Init(); err != nil {
		// 已建立的連線一併釋放
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if shutdownErr := app.Shutdown(ctx); shutdownErr != nil {
			app.Logger.Warn().Err(shutdownErr).Msg("release partially initialized resources")
		}
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []func() error{
		app.setUpLogger,
		app.setUpDbConn,
		app.setUpDbDao,
		app.setUpRedis,
		app.setUpOrderRepo,
		app.setUpEventProducer,
		app.setUpCalculator,
		app.setUpTokenMaker,
		app.setUpPaymentGateway,
		app.setUpServices,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpLogger() error {
	var extra []io.Writer
	brokers := producer.ParseBrokers(app.Cf.KafkaBrokers)
	if len(brokers) > 0 && app.Cf.LogKafkaTopic != "" {
		app.LogWriter = logger.NewKafkaLogWriter(logger.NewAsyncKafkaWriter(brokers, app.Cf.LogKafkaTopic))
		extra = append(extra, app.LogWriter)
	}
	app.Logger = logger.NewLogger(app.Cf.LogLevel, app.Cf.IsDevelopment(), moduler, extra...)
	response.SetExposeInternal(app.Cf.IsDevelopment())
	app.Logger.Info().
		Str("environment", app.Cf.Environment).
		Bool("kafka_sink", app.LogWriter != nil).
		Msg("Finish setup logger")
	return nil
}

func (app *ApplicationContext) setUpDbConn() error {
	app.Logger.Info().Msg("Start setup database connection")
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	app.DbConn = conn
	app.Logger.Info().Msg("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpDbDao() error {
	app.Logger.Info().Msg("Start setup database DAO")
	app.DbDao = db.NewDbDao(app.DbConn)
	if err := app.DbDao.InitMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	app.UserRepo = db.NewUserRepo(app.DbDao)
	app.ProductRepo = db.NewProductRepo(app.DbDao)
	app.Logger.Info().Msg("Finish setup database DAO")
	return nil
}

// setUpRedis 未設定 REDIS_ADDR 時購物車放在記憶體，限流只在單機生效
func (app *ApplicationContext) setUpRedis() error {
	app.Logger.Info().Msg("Start setup redis")
	limiterCf := &ratelimit.LimiterConfig{
		Capacity: app.Cf.RateLimitCapacity,
		RatePS:   app.Cf.RateLimitRate,
	}
	if app.Cf.RedisAddr == "" {
		app.CartStorage = cart.NewMemoryStorage()
		app.Limiter = ratelimit.NewTokenBucket(limiterCf)
		app.Logger.Warn().Msg("REDIS_ADDR not set, using in-memory cart storage and rate limiter")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPassword,
		DB:       app.Cf.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	app.RedisClient = client
	app.CartStorage = redis_repo.NewSnapshotRepo(client, app.Cf.CartTTL)
	app.Idempotency = redis_repo.NewIdempotencyRepo(client, app.Cf.IdempotencyTTL)
	app.Limiter = ratelimit.NewRedisTokenBucket(client, limiterCf)
	app.Logger.Info().Str("addr", app.Cf.RedisAddr).Msg("Finish setup redis")
	return nil
}

func (app *ApplicationContext) setUpOrderRepo() error {
	app.Logger.Info().Str("store", app.Cf.OrderStore).Msg("Start setup order repository")
	switch strings.ToLower(app.Cf.OrderStore) {
	case config.OrderStoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		client, err := mongo_repo.Connect(ctx, app.Cf.MongoURI)
		if err != nil {
			return fmt.Errorf("failed to connect mongo: %w", err)
		}
		app.MongoClient = client
		repo := mongo_repo.NewOrderRepo(client.Database(app.Cf.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to ensure order indexes: %w", err)
		}
		app.OrderRepo = repo
	case config.OrderStorePostgres, "":
		app.OrderRepo = db.NewOrderRepo(app.DbDao)
	default:
		return fmt.Errorf("unknown ORDER_STORE %q", app.Cf.OrderStore)
	}
	app.Logger.Info().Msg("Finish setup order repository")
	return nil
}

func (app *ApplicationContext) setUpEventProducer() error {
	brokers := producer.ParseBrokers(app.Cf.KafkaBrokers)
	if len(brokers) == 0 {
		app.Logger.Warn().Msg("KAFKA_BROKERS not set, order events are dropped")
		return nil
	}
	app.Logger.Info().Strs("brokers", brokers).Msg("Start setup order event producer")
	app.EventProducer = producer.NewOrderEventProducer(producer.NewKafkaWriter(brokers, app.Cf.KafkaOrderTopic))
	app.Logger.Info().Str("topic", app.Cf.KafkaOrderTopic).Msg("Finish setup order event producer")
	return nil
}

func (app *ApplicationContext) setUpCalculator() error {
	app.Calculator = pricing.NewCalculator(
		pricing.WithFreeShippingThreshold(app.Cf.ShippingThreshold()),
		pricing.WithFlatShippingFee(app.Cf.ShippingFee()),
	)
	return nil
}

func (app *ApplicationContext) setUpTokenMaker() error {
	app.Logger.Info().Msg("Start setup token maker")
	tokenMaker, err := token.NewJWTMaker(app.Cf.JwtSecret)
	if err != nil {
		return fmt.Errorf("無法創建 token maker: %w", err)
	}
	app.TokenMaker = tokenMaker
	app.Logger.Info().Msg("Finish setup token maker")
	return nil
}

func (app *ApplicationContext) setUpPaymentGateway() error {
	if app.Cf.StripeSecretKey == "" {
		app.Logger.Warn().Msg("STRIPE_SECRET_KEY not set, payment intents will fail at the provider")
	}
	app.PaymentGateway = payment.NewStripeGateway(payment.StripeGatewayConfig{
		SecretKey: app.Cf.StripeSecretKey,
		APIURL:    app.Cf.StripeAPIURL,
		Currency:  app.Cf.PaymentCurrency,
	})
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	app.Logger.Info().Msg("Start setup services")
	app.AuthService = service.NewAuthService(app.UserRepo, app.TokenMaker, app.Cf.JwtTTL, service.DefaultBcryptCost)
	app.UserService = service.NewUserService(app.UserRepo)
	app.ProductService = service.NewProductService(app.ProductRepo)
	app.CartService = service.NewCartService(app.CartStorage, app.ProductRepo, app.Calculator, app.Logger)
	app.WishlistService = service.NewWishlistService(app.CartStorage, app.ProductRepo, app.Logger)
	app.PaymentService = service.NewPaymentService(app.PaymentGateway, app.Logger)

	opts := []service.OrderServiceOption{}
	if app.Idempotency != nil {
		opts = append(opts, service.WithIdempotencyStore(app.Idempotency))
	}
	if app.EventProducer != nil {
		opts = append(opts, service.WithEventPublisher(app.EventProducer))
	}
	app.OrderService = service.NewOrderService(app.OrderRepo, app.ProductRepo, app.CartStorage, app.Calculator, app.Logger, opts...)
	app.Logger.Info().Msg("Finish setup services")
	return nil
}

// HealthChecks /api/health 檢查的相依服務
func (app *ApplicationContext) HealthChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": app.DbDao,
	}
	if app.RedisClient != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return app.RedisClient.Ping(ctx).Err()
		})
	}
	if app.MongoClient != nil {
		checks["mongo"] = handler.PingerFunc(func(ctx context.Context) error {
			return app.MongoClient.Ping(ctx, nil)
		})
	}
	return checks
}

// AllowedOrigins CLIENT_URL 以逗號分隔
func (app *ApplicationContext) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(app.Cf.ClientURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error)
	go func() {
		defer close(done)
		var errs []error

		if app.EventProducer != nil {
			app.Logger.Info().Msg("Closing order event producer...")
			errs = append(errs, app.EventProducer.Close())
		}
		if app.MongoClient != nil {
			app.Logger.Info().Msg("Closing mongo connection...")
			errs = append(errs, app.MongoClient.Disconnect(ctx))
		}
		if app.RedisClient != nil {
			app.Logger.Info().Msg("Closing redis connection...")
			errs = append(errs, app.RedisClient.Close())
		}
		if app.DbConn != nil {
			app.Logger.Info().Msg("Closing database connection...")
			errs = append(errs, db.CloseDbConn(app.DbConn))
		}

		app.Logger.Info().Msg("Application shutdown complete")
		// 最後關 logger，之後的 log 只會到 console
		if app.LogWriter != nil {
			errs = append(errs, app.LogWriter.Close())
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}
