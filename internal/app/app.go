// Package app assembles the store, collaborators and services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/config"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/dedup"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/locker"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/notifier"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/prize"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/lottery-ticketing-backend/internal/repositories/mongodb"
	mysqlrepo "github.com/ArowuTest/lottery-ticketing-backend/internal/repositories/mysql"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/services"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/mongodb"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/mq"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/redis"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/smsgateway"
)

// Deps are the collaborators shared by the services
type Deps struct {
	Store    *repositories.Store
	Clock    clock.Clock
	Locker   locker.Locker
	Dedup    dedup.Deduper
	Notifier notifier.Notifier
	Matcher  *prize.Matcher
}

// Services groups every service of the ticketing core
type Services struct {
	Rounds       *services.RoundServiceImpl
	Tickets      *services.TicketServiceImpl
	Checkout     *services.CheckoutServiceImpl
	Settlement   *services.SettlementServiceImpl
	Orders       *services.OrderServiceImpl
	Expiry       *services.ExpiryServiceImpl
	Announcement *services.AnnouncementServiceImpl
}

// NewServices builds the services on deps. The same Matcher serves number checks
// and announcements.
func NewServices(cfg *config.Config, d Deps) *Services {
	st := d.Store
	return &Services{
		Rounds:     services.NewRoundService(st.Rounds, d.Matcher, d.Clock),
		Tickets:    services.NewTicketService(st.Rounds, st.Tickets, d.Clock),
		Checkout:   services.NewCheckoutService(st.Tx, d.Clock, cfg.Reservation.TTL),
		Settlement: services.NewSettlementService(st.Tx, st.Orders, d.Clock),
		Orders:     services.NewOrderService(st.Orders, st.Tx, d.Clock),
		Expiry: services.NewExpiryService(st.Orders, st.Tx, d.Clock, d.Locker, d.Dedup, d.Notifier, services.ExpiryOptions{
			BatchSize:   cfg.Reaper.BatchSize,
			LockTTL:     cfg.Reaper.LockTTL,
			Checkpoints: cfg.Reaper.WarningCheckpoints(),
		}),
		Announcement: services.NewAnnouncementService(st.Rounds, st.Tickets, st.Orders, d.Matcher, d.Notifier, d.Locker, d.Clock, services.AnnouncementOptions{
			BatchSize:         cfg.Announcement.BatchSize,
			NotifyConcurrency: cfg.Announcement.NotifyConcurrency,
			LockTTL:           cfg.Announcement.LockTTL,
		}),
	}
}

// App owns the process-wide resources opened from configuration
type App struct {
	Config   *config.Config
	Deps     Deps
	Services *Services
	closers  []func(ctx context.Context) error
}

// New opens the configured store, Redis and RocketMQ connections and builds the
// services. Without Redis the lock and dedup fall back to in-process versions.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	a = &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	policy, err := prize.ParsePolicy(cfg.Prize.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	d := Deps{Store: store, Clock: clock.Real(), Matcher: prize.NewMatcher(policy)}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		d.Locker = locker.NewRedis(rdb)
		d.Dedup = dedup.NewRedis(rdb, "")
		logger.Info("redis locker enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		d.Locker = locker.NewLocal()
		if d.Dedup, err = dedup.NewLRU(100000); err != nil {
			return nil, err
		}
		logger.Warn("redis not configured, using in-process locks")
	}

	n, err := a.notifier(cfg)
	if err != nil {
		return nil, err
	}
	d.Notifier = n

	a.Deps = d
	a.Services = NewServices(cfg, d)
	return a, nil
}

func (a *App) notifier(cfg *config.Config) (notifier.Notifier, error) {
	var fan notifier.Fanout
	if !cfg.SMS.Disabled {
		var gw smsgateway.Gateway
		if cfg.SMS.MockSMS || cfg.SMS.BaseURL == "" {
			gw = smsgateway.NewMockGateway("mock")
		} else {
			gw = smsgateway.NewHTTPGateway(cfg.SMS.BaseURL, cfg.SMS.APIKey, cfg.SMS.Sender, cfg.SMS.Timeout)
		}
		fan = append(fan, notifier.NewSMS(gw))
	}
	if cfg.RocketMQ.Endpoint != "" {
		pub, err := mq.NewPublisher(mq.Options{
			Endpoint:     cfg.RocketMQ.Endpoint,
			AccessKey:    cfg.RocketMQ.AccessKey,
			SecretKey:    cfg.RocketMQ.SecretKey,
			Topics:       []string{cfg.RocketMQ.Topic},
			StartTimeout: cfg.RocketMQ.StartTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start rocketmq producer: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return pub.Close() })
		fan = append(fan, notifier.NewMQ(pub, cfg.RocketMQ.Topic))
	}
	if len(fan) == 0 {
		return notifier.Log{}, nil
	}
	return fan, nil
}

// OpenStore connects the store selected by cfg.Store.Driver
func OpenStore(ctx context.Context, cfg *config.Config) (*repositories.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongoDB:
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := mongorepo.EnsureIndexes(ctx, client.Database(cfg.MongoDB.Database)); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return mongorepo.NewStore(client, cfg.MongoDB.Database), nil
	case config.DriverMySQL:
		if cfg.MySQL.AutoMigrate {
			version, err := mysqlrepo.Migrate(cfg.MySQL.DSN, false)
			if err != nil {
				return nil, err
			}
			logger.Info("mysql schema migrated", zap.Uint("version", version))
		}
		db, err := mysqlrepo.Open(ctx, mysqlrepo.Options{
			DSN:             cfg.MySQL.DSN,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return mysqlrepo.NewStore(db), nil
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
