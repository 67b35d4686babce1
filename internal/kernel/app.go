// Package kernel builds the application: it opens the infrastructure named
// by config, wires services, listeners and jobs together and assembles the
// HTTP handler. Both the server and the CLI commands boot through New.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/shopfront/app/console"
	"github.com/shashiranjanraj/shopfront/app/controllers"
	"github.com/shashiranjanraj/shopfront/app/graph"
	"github.com/shashiranjanraj/shopfront/app/jobs"
	"github.com/shashiranjanraj/shopfront/app/listeners"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"github.com/shashiranjanraj/shopfront/app/routes"
	"github.com/shashiranjanraj/shopfront/app/services"
	"github.com/shashiranjanraj/shopfront/config"
	"github.com/shashiranjanraj/shopfront/pkg/cache"
	"github.com/shashiranjanraj/shopfront/pkg/database"
	"github.com/shashiranjanraj/shopfront/pkg/event"
	"github.com/shashiranjanraj/shopfront/pkg/graphql"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/mail"
	"github.com/shashiranjanraj/shopfront/pkg/metrics"
	"github.com/shashiranjanraj/shopfront/pkg/middleware"
	"github.com/shashiranjanraj/shopfront/pkg/notification"
	"github.com/shashiranjanraj/shopfront/pkg/queue"
	"github.com/shashiranjanraj/shopfront/pkg/reqid"
	"github.com/shashiranjanraj/shopfront/pkg/response"
	"github.com/shashiranjanraj/shopfront/pkg/router"
	"github.com/shashiranjanraj/shopfront/pkg/schedule"
	"github.com/shashiranjanraj/shopfront/pkg/storage"
	"github.com/shashiranjanraj/shopfront/pkg/ws"
)

// Options overrides infrastructure normally built from config. Tests use
// it to inject an in-memory database and a fake mailer.
type Options struct {
	DB     *gorm.DB
	Mailer mail.Mailer
	Queue  queue.Driver
	Cache  cache.Store
	Disk   storage.Disk
}

// App holds every long-lived component.
type App struct {
	DB        *gorm.DB
	Events    *event.Bus
	Queue     *queue.Manager
	Cache     cache.Store
	Mailer    mail.Mailer
	Notifier  *notification.Notifier
	Disk      storage.Disk
	Hub       *ws.Hub
	Limiter   *middleware.RateLimiter
	Scheduler *schedule.Scheduler

	Admins   *services.AdminDirectory
	Auth     *services.AuthService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Checkout *services.CheckoutService
	Orders   *services.OrderService
	Reports  *services.ReportService

	ownsDB  bool
	redis   *redis.Client
	cancel  context.CancelFunc
	closers []func()
}

// New boots the application. Background loops (websocket hub, rate limit
// janitor, delayed job promotion) run until Close.
func New(ctx context.Context, opts Options) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a := &App{cancel: cancel}
	if err := a.boot(ctx, runCtx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) boot(ctx, runCtx context.Context, opts Options) error {
	a.DB = opts.DB
	if a.DB == nil {
		db, err := database.Open(config.DatabaseDriver(), config.DatabaseDSN())
		if err != nil {
			return err
		}
		a.DB, a.ownsDB = db, true
	}

	rdb, err := a.redisClient(ctx, opts)
	if err != nil {
		return err
	}

	a.Events = event.New()

	driver := opts.Queue
	if driver == nil {
		if rdb != nil && config.QueueDriver() == "redis" {
			driver = queue.NewRedisDriver(runCtx, rdb)
		} else {
			driver = queue.NewMemoryDriver()
		}
	}
	a.Queue = queue.New(driver)
	a.Queue.UseDB(a.DB)
	a.Queue.SetMaxRetry(config.QueueMaxRetry())

	a.Cache = opts.Cache
	if a.Cache == nil {
		if rdb != nil && config.CacheDriver() == "redis" {
			a.Cache = cache.NewRedisStore(rdb, "shopfront:")
		} else {
			a.Cache = cache.NewMemoryStore()
		}
	}

	a.Mailer = opts.Mailer
	if a.Mailer == nil {
		a.Mailer = mail.FromConfig()
	}
	a.Notifier = notification.New(a.Mailer, config.SlackWebhookURL())

	a.Disk = opts.Disk
	if a.Disk == nil && config.StorageEnabled() {
		if a.Disk, err = storage.FromConfig(ctx); err != nil {
			return err
		}
	}

	threshold := config.LowStockThreshold()
	a.Admins = services.NewAdminDirectory(a.DB, config.AdminEmails())
	a.Auth = services.NewAuthService(a.DB)
	a.Catalog = services.NewCatalogService(a.DB, a.Cache, config.CatalogCacheTTL(), a.Events)
	a.Carts = services.NewCartService(a.DB)
	a.Checkout = services.NewCheckoutService(a.DB, a.Events)
	a.Orders = services.NewOrderService(a.DB)
	a.Reports = services.NewReportService(a.DB, a.Admins, a.Notifier, a.Disk)

	jobs.Register(a.Queue, &jobs.Deps{
		Products:  repositories.NewProductRepository(a.DB),
		Admins:    a.Admins,
		Notifier:  a.Notifier,
		Threshold: threshold,
	})

	a.Hub = ws.NewHub()
	go a.Hub.Run(runCtx)

	listeners.Register(a.Events, listeners.Options{
		Queue:     a.Queue,
		Threshold: threshold,
		Catalog:   a.Catalog,
		Feed:      a.Hub,
	})

	a.Limiter = middleware.NewRateLimiter(config.RateLimit(), time.Minute)
	go a.Limiter.Janitor(runCtx)

	a.Scheduler = schedule.New()
	return console.Schedule(a.Scheduler, a.Reports, config.ReportTime())
}

// redisClient connects once when the queue or the cache uses redis and
// the caller did not inject both.
func (a *App) redisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	needQueue := opts.Queue == nil && config.QueueDriver() == "redis"
	needCache := opts.Cache == nil && config.CacheDriver() == "redis"
	if !needQueue && !needCache {
		return nil, nil
	}
	rdb, err := cache.NewRedisClient(ctx)
	if err != nil {
		return nil, err
	}
	a.redis = rdb
	return rdb, nil
}

// Router mounts the global middleware and every route.
func (a *App) Router() (*router.Router, error) {
	schema, err := graph.NewSchema(a.Catalog, config.LowStockThreshold())
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}

	r := router.New()
	// Outermost first: metrics sees total latency, recovery runs before
	// anything can panic unobserved, the request id exists before logging.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(config.CORSOrigins())))
	r.Use(a.Limiter.Middleware)

	routes.RegisterAPI(r, routes.Controllers{
		Auth:      controllers.NewAuthController(a.Auth),
		Products:  controllers.NewProductController(a.Catalog),
		Cart:      controllers.NewCartController(a.Carts, a.Checkout),
		Orders:    controllers.NewOrderController(a.Orders),
		Admin:     controllers.NewAdminController(a.Catalog, a.Reports),
		StockFeed: a.Hub,
		GraphQL:   graphql.Handler(schema),
		Health:    a.health,
	})
	return r, nil
}

// Handler is Router().Handler().
func (a *App) Handler() (http.Handler, error) {
	r, err := a.Router()
	if err != nil {
		return nil, err
	}
	return r.Handler(), nil
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := database.Ping(ctx, a.DB); err != nil {
		logger.WithCtx(r.Context()).Warn("health: database unreachable", "error", err)
		response.Error(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	response.Success(w, map[string]string{"status": "ok", "database": "ok"})
}

// Pinger reports database reachability to the gRPC health service.
func (a *App) Pinger() func(ctx context.Context) error {
	return func(ctx context.Context) error { return database.Ping(ctx, a.DB) }
}

// Close stops background loops and releases connections the App opened.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.ownsDB && a.DB != nil {
		_ = database.Close(a.DB)
	}
}

// OnClose runs fn during Close, in reverse registration order.
func (a *App) OnClose(fn func()) { a.closers = append(a.closers, fn) }

// ConfigureLogging sets up the base logger for APP_ENV and, when
// LOG_MONGO_URI is set, adds the Mongo sink. The returned func flushes it.
func ConfigureLogging() (func(), error) {
	uri := config.LogMongoURI()
	if uri == "" {
		logger.Configure(config.AppEnv(), os.Stdout)
		return func() {}, nil
	}
	h, err := logger.NewMongoHandler(uri, "shopfront", "logs", slog.LevelInfo)
	if err != nil {
		logger.Configure(config.AppEnv(), os.Stdout)
		return func() {}, errors.Join(errors.New("kernel: mongo log sink disabled"), err)
	}
	logger.Configure(config.AppEnv(), os.Stdout, h)
	return h.Close, nil
}
