package app

import (
	"context"
	"net/http"
	"os"
	"time"

	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/evdms/dealer-console/internal/adapters/auth"
	"github.com/evdms/dealer-console/internal/adapters/httpserver"
	"github.com/evdms/dealer-console/internal/adapters/notify"
	"github.com/evdms/dealer-console/internal/adapters/repo/postgres"
	"github.com/evdms/dealer-console/internal/adapters/restapi"
	"github.com/evdms/dealer-console/internal/domain"
	"github.com/evdms/dealer-console/internal/usecase"
)

type Config struct {
	APIBaseURL        string
	APIToken          string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthTokenURL     string
	DealerID          string
	ConsoleToken      string
	Port              string
	DBDSN             string
}

func ConfigFromEnv() Config {
	cfg := Config{
		APIBaseURL:        os.Getenv("EVM_API_BASE_URL"),
		APIToken:          os.Getenv("EVM_API_TOKEN"),
		OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		OAuthTokenURL:     os.Getenv("OAUTH_TOKEN_URL"),
		DealerID:          os.Getenv("DEALER_ID"),
		ConsoleToken:      os.Getenv("CONSOLE_API_TOKEN"),
		Port:              os.Getenv("PORT"),
		DBDSN:             os.Getenv("DB_DSN"),
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:9000"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg
}

type App struct {
	DB       *gorm.DB
	Sessions *usecase.Manager
	Handler  http.Handler
}

func NewApp(cfg Config, db *gorm.DB) (*App, error) {
	user := domain.User{Name: "console", Role: "dealer_staff", DealerID: cfg.DealerID}

	var authCtx domain.AuthContext
	if cfg.OAuthClientID != "" && cfg.OAuthTokenURL != "" {
		authCtx = auth.NewClientCredentials(context.Background(), cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthTokenURL, user)
	} else {
		authCtx = auth.NewStaticToken(cfg.APIToken, user)
	}

	client := restapi.New(cfg.APIBaseURL, authCtx)
	deps := usecase.WizardDeps{
		Customers:  restapi.NewCustomerClient(client),
		Orders:     restapi.NewOrderClient(client),
		Catalog:    restapi.NewCatalogClient(client),
		Promotions: restapi.NewPromotionClient(client),
		Auth:       authCtx,
		Notifier:   &notify.LogNotifier{Log: zlog.Logger},
		DealerID:   cfg.DealerID,
		Log:        zlog.Logger,
	}

	var store domain.SessionStore
	if db != nil {
		store = postgres.NewSessionRepo(db)
	}
	sessions := usecase.NewManager(deps, store)
	sessions.NewNotifier = func() domain.Notifier {
		return notify.NewBuffer(20, &notify.LogNotifier{Log: zlog.Logger})
	}

	return &App{
		DB:       db,
		Sessions: sessions,
		Handler:  httpserver.New(sessions, cfg.ConsoleToken),
	}, nil
}

func (a *App) Migrate() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.AutoMigrate(&domain.WizardSession{})
}

// StartJanitor prunes wizard sessions idle for over two hours. Persisted
// anchors survive so their draft orders stay resumable.
func (a *App) StartJanitor(ctx context.Context) {
	a.Sessions.StartJanitor(ctx, 10*time.Minute, 2*time.Hour)
}
