package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docqa/internal/app"
	"docqa/internal/backend"
	"docqa/internal/config"
	"docqa/internal/pkg/dropwatch"
	"docqa/internal/pkg/logger"
	mysqlClient "docqa/internal/platform/mysql"
	rabbitmqClient "docqa/internal/platform/rabbitmq"
	redisClient "docqa/internal/platform/redis"
	"docqa/internal/repository"
	"docqa/internal/store"
	"docqa/internal/tracer"
	"docqa/internal/transcript"
	"docqa/internal/worker"
)

const bootstrapModule = "bootstrap"

type App struct {
	Config *config.Config
	Logger *logger.ZapLogger

	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	Store  store.KV

	Backend  *backend.Client
	View     *transcript.View
	Sessions *app.SessionService
	Exchange *app.ExchangeService
	Intake   *app.IntakeService
	Catalog  *app.CatalogService

	JournalPublisher *rabbitmqClient.JournalPublisher
	JournalWorker    *worker.JournalWorker
	Journal          *app.JournalService
	Watcher          *dropwatch.Watcher

	StartedAt time.Time

	stopWatch      context.CancelFunc
	shutdownTracer tracer.ShutdownFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return Build(ctx, cfg)
}

// Build connects every component enabled in cfg. Anything already opened is
// closed again when a later step fails.
func Build(ctx context.Context, cfg *config.Config) (a *App, err error) {
	log := logger.NewZapLogger(logger.Options{
		FilePath:   cfg.Log.FilePath,
		Production: cfg.Log.Production,
		Console:    cfg.Log.Console,
	})

	a = &App{
		Config:         cfg,
		Logger:         log,
		StartedAt:      time.Now(),
		shutdownTracer: tracer.Init(ctx, cfg.Tracing, log),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if cfg.NeedsMySQL() {
		if a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN()); err != nil {
			return a, err
		}
	}

	if a.Store, err = a.openStore(ctx); err != nil {
		return a, err
	}

	a.Backend = backend.NewClient(cfg.Backend.BaseURL, cfg.BackendTimeout())
	a.View = transcript.NewView()
	a.Sessions = app.NewSessionService(a.Store, a.View, log, app.SessionOptions{
		Key:           cfg.Session.Key,
		DisplayPrefix: cfg.Session.DisplayPrefix,
	})
	a.Exchange = app.NewExchangeService(a.Backend, a.Sessions, a.View, log, app.ExchangeOptions{
		SingleFlight: cfg.Exchange.SingleFlight,
	})
	a.Catalog = app.NewCatalogService(a.Backend, log)
	a.Intake = app.NewIntakeService(a.Backend, a.Catalog, log)

	if cfg.Journal.Enabled {
		if err = a.startJournal(ctx); err != nil {
			return a, err
		}
	}

	if cfg.Intake.WatchDir != "" {
		if err = a.startWatcher(ctx); err != nil {
			return a, err
		}
	}

	// Resolve the session up front so the first request never waits on the
	// store, then load the catalog once.
	a.Sessions.SessionID(ctx)
	_ = a.Catalog.Refresh(ctx)

	log.Info(bootstrapModule, "application ready", map[string]interface{}{
		"backend":       cfg.Backend.BaseURL,
		"session_store": cfg.Session.Store,
		"journal":       cfg.Journal.Enabled,
		"watch_dir":     cfg.Intake.WatchDir,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.KV, error) {
	switch a.Config.Session.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreRedis:
		cli, err := redisClient.New(ctx, a.Config.Redis)
		if err != nil {
			return nil, err
		}
		a.Redis = cli
		return store.NewRedisStore(cli, a.Config.App.Name), nil
	case config.StoreMySQL:
		return repository.NewSettingRepository(a.MySQL), nil
	default:
		return store.NewFileStore(a.Config.Session.FilePath), nil
	}
}

func (a *App) startJournal(ctx context.Context) error {
	conn, err := rabbitmqClient.New(ctx, rabbitmqClient.Options{
		URL:            a.Config.RabbitMQ.URL,
		Queue:          a.Config.RabbitMQ.JournalQueue,
		ConnectionName: a.Config.App.Name,
	})
	if err != nil {
		return err
	}
	a.MQConn = conn

	a.JournalWorker = worker.NewJournalWorker(conn, repository.NewJournalRepository(a.MySQL), a.Config.RabbitMQ.JournalQueue, a.Logger)
	if err := a.JournalWorker.Start(ctx); err != nil {
		return fmt.Errorf("start journal worker failed: %w", err)
	}

	a.JournalPublisher = rabbitmqClient.NewJournalPublisher(conn, a.Config.RabbitMQ.JournalQueue)
	a.Journal = app.NewJournalService(a.JournalPublisher, a.Sessions, a.Logger)
	a.Journal.Start(ctx, a.View)
	return nil
}

func (a *App) startWatcher(ctx context.Context) error {
	w, err := dropwatch.New(a.Config.Intake.WatchExtensions)
	if err != nil {
		return err
	}
	a.Watcher = w

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopWatch = cancel
	return w.Watch(watchCtx, a.Config.Intake.WatchDir,
		func(path string) {
			if err := a.Intake.AddPath(path); err != nil {
				a.Logger.Warn(bootstrapModule, "add dropped file failed", map[string]interface{}{"error": err.Error()})
			}
		},
		func(err error) {
			a.Logger.Warn(bootstrapModule, "drop folder watcher error", map[string]interface{}{"error": err.Error()})
		},
	)
}

func (a *App) Close() error {
	var closeErr error
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.Watcher != nil {
		if err := a.Watcher.Stop(); err != nil {
			closeErr = err
		}
	}
	if a.Journal != nil {
		a.Journal.Close()
	}
	if a.JournalWorker != nil {
		a.JournalWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownTracer(ctx); err != nil {
			closeErr = err
		}
		cancel()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
