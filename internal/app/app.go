package app

import (
	"net/http"

	"finance-app-go/internal/config"
	"finance-app-go/internal/db"
	groupsdomain "finance-app-go/internal/domain/groups"
	ledgerdomain "finance-app-go/internal/domain/sharedexpenses"
	subscriptiondomain "finance-app-go/internal/domain/subscription"
	userdomain "finance-app-go/internal/domain/user"
	"finance-app-go/internal/metrics"
	"finance-app-go/internal/repository/inmemory"
	groupsrepo "finance-app-go/internal/repository/postgres/groups"
	ledgerrepo "finance-app-go/internal/repository/postgres/sharedexpenses"
	subscriptionrepo "finance-app-go/internal/repository/postgres/subscription"
	userrepo "finance-app-go/internal/repository/postgres/user"
	"finance-app-go/internal/transport/httpserver"
	"finance-app-go/internal/transport/httpserver/handler"
	"finance-app-go/internal/transport/httpserver/handler/billing"
	"finance-app-go/internal/transport/httpserver/handler/common"
	grouphandlers "finance-app-go/internal/transport/httpserver/handler/groups"
	"finance-app-go/internal/transport/httpserver/handler/ledger"
	"finance-app-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	log        logger.Logger
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	log.Info("app: applying migrations")
	if err := db.Migrate(dbConn, log); err != nil {
		closeDB(dbConn, log)
		return nil, err
	}

	router := NewRouter(cfg, dbConn, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
		log:        log,
	}, nil
}

// NewRouter wires repositories, services and handlers over an open database.
func NewRouter(cfg config.Config, dbConn *gorm.DB, log logger.Logger) http.Handler {
	log.Info("app: initializing router")

	users := userdomain.NewService(userrepo.NewPostgres(dbConn))
	groups := groupsdomain.NewService(groupsrepo.NewPostgres(dbConn), cfg.Groups.InvitationTTL)
	ledgerService := ledgerdomain.NewService(ledgerrepo.NewPostgres(dbConn), groups)
	subscriptions := subscriptiondomain.NewService(
		subscriptionrepo.NewPostgres(dbConn),
		inmemory.NewStatusCache(),
		cfg.Subscription.StatusCacheTTL,
		cfg.Subscription.DefaultPeriod,
	)

	appMetrics := metrics.New()
	handlers := handler.New(
		common.New(users, log),
		grouphandlers.New(groups, log),
		ledger.New(ledgerService, appMetrics, log),
		billing.New(subscriptions, cfg.Subscription.WebhookSecret, appMetrics, log),
	)

	if cfg.Subscription.WebhookSecret == "" {
		log.Warn("app: PAYMENT_WEBHOOK_SECRET not set, payment webhooks will be refused")
	}

	return httpserver.NewRouter(cfg, handlers, users, appMetrics, log)
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(dbConn *gorm.DB, log logger.Logger) {
	sqlDB, err := dbConn.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("app: close database failed", "err", err)
	}
}
