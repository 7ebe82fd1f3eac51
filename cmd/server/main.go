package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/thomasmartinoa/billing-app/internal/config"
	"github.com/thomasmartinoa/billing-app/internal/db"
	"github.com/thomasmartinoa/billing-app/internal/handler"
	"github.com/thomasmartinoa/billing-app/internal/repository"
	"github.com/thomasmartinoa/billing-app/internal/server"
	"github.com/thomasmartinoa/billing-app/internal/service"
	"google.golang.org/api/option"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Firebase Auth (optional)
	var firebaseAuth *auth.Client
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		firebaseAuth = client
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	shopRepo := repository.ShopRepository{DB: pg}
	categoryRepo := repository.CategoryRepository{DB: pg}
	customerRepo := repository.CustomerRepository{DB: pg}
	productRepo := repository.ProductRepository{DB: pg}
	invoiceRepo := repository.InvoiceRepository{DB: pg}
	stockRepo := repository.StockRepository{DB: pg}
	dashboardRepo := repository.DashboardRepository{DB: pg}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger, FirebaseAuth: firebaseAuth}
	invoiceSvc := service.InvoiceService{
		Shops:     shopRepo,
		Customers: customerRepo,
		Products:  productRepo,
		Invoices:  invoiceRepo,
		Logger:    logger,
	}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	authHandler := handler.AuthHandler{Service: &authSvc}
	shopHandler := handler.ShopHandler{Repo: shopRepo, DefaultCurrency: cfg.DefaultCurrency}
	categoryHandler := handler.CategoryHandler{Repo: categoryRepo, Shops: shopRepo}
	customerHandler := handler.CustomerHandler{Repo: customerRepo, Shops: shopRepo}
	productHandler := handler.ProductHandler{Repo: productRepo, Shops: shopRepo}
	stockHandler := handler.StockHandler{Repo: stockRepo, Shops: shopRepo}
	invoiceHandler := handler.InvoiceHandler{Service: invoiceSvc}
	dashboardHandler := handler.DashboardHandler{Repo: dashboardRepo, Shops: shopRepo}
	docsHandler := handler.DocsHandler{OpenAPIPath: "api/openapi.yaml"}
	homeHandler := handler.HomeHandler{Env: cfg.Env}

	router := server.NewRouter(cfg, logger,
		healthHandler, authHandler, shopHandler,
		categoryHandler, customerHandler, productHandler,
		stockHandler, invoiceHandler, dashboardHandler,
		docsHandler, homeHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
