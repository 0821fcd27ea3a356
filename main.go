package main

import (
	"context"
	"fmt"
	"greenbasket/config"
	"greenbasket/controllers"
	"greenbasket/middleware"
	"greenbasket/models"
	"greenbasket/repositories"
	"greenbasket/routes"
	"greenbasket/services"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := config.NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	cfg.Log(logger)

	decimal.MarshalJSONWithoutQuotes = true

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectRedis(ctx, logger)
	defer config.CloseRedis()

	catalog, err := buildCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up product catalog", zap.Error(err))
	}
	defer config.CloseDB()

	factory, pricing, err := buildStoreFactory(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up cart store", zap.Error(err))
	}

	registry, err := services.NewCartRegistry(cfg.CartCacheSize, factory, logger)
	if err != nil {
		logger.Fatal("failed to create cart registry", zap.Error(err))
	}
	if pricing != nil {
		registry.UsePricing(pricing)
	}
	products := services.NewProductService(catalog)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORSMiddleware(cfg.OriginURL, cfg.CSRFHeader))
	routes.SetupRoutes(router, routes.Dependencies{
		Carts:         controllers.NewCartController(registry, products, logger),
		Products:      controllers.NewProductController(products, logger),
		Sessions:      controllers.NewSessionController(cfg.SessionSecret, cfg.SessionTTL, logger),
		SessionSecret: cfg.SessionSecret,
		CSRFHeader:    cfg.CSRFHeader,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("cart_mode", cfg.CartMode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ProductCatalog, error) {
	if !cfg.HasDatabase() {
		logger.Warn("no database configured, serving the demo catalog from memory")
		return repositories.NewMemoryProductCatalog(demoProducts()...), nil
	}

	if err := config.ConnectDB(ctx, logger); err != nil {
		return nil, err
	}
	if err := config.RunMigrations(cfg.DSN(), cfg.MigrationsDir, logger); err != nil {
		return nil, err
	}

	var catalog repositories.ProductCatalog = repositories.NewProductRepository(config.DB)
	if config.RedisClient != nil {
		catalog = repositories.NewCachedProductCatalog(catalog, config.RedisClient, cfg.CatalogCacheTTL, logger)
	}
	return catalog, nil
}

func buildStoreFactory(cfg *config.Config, logger *zap.Logger) (services.StoreFactory, services.PricingFactory, error) {
	switch cfg.CartMode {
	case config.CartModeLocal:
		kv, err := buildKVStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("cart store ready", zap.String("store", cfg.CartStore), zap.String("pricing", cfg.PricingSource))

		var pricing services.PricingFactory
		if cfg.PricingSource == config.PricingLocal {
			// The account service writes the wholesale flag next to the cart.
			pricing = func(session models.Session) services.PricingModeSource {
				return repositories.NewLocalPricingMode(repositories.NewNamespacedKV(kv, session.ID))
			}
		}
		return func(session models.Session) (repositories.CartStore, error) {
			return repositories.NewLocalCartStore(repositories.NewNamespacedKV(kv, session.ID), cfg.CartKey), nil
		}, pricing, nil

	case config.CartModeRemote:
		if cfg.UpstreamURL == "" {
			return nil, nil, fmt.Errorf("CART_MODE=remote requires UPSTREAM_URL")
		}
		client := &http.Client{Timeout: cfg.UpstreamTimeout}
		return func(session models.Session) (repositories.CartStore, error) {
			store, err := repositories.NewRemoteCartStore(repositories.RemoteCartOptions{
				BaseURL: cfg.UpstreamURL,
				CSRF:    repositories.CSRFToken{Header: cfg.CSRFHeader},
				Client:  client,
			})
			if err != nil {
				return nil, err
			}
			store.BindSession(session)
			return store, nil
		}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown CART_MODE %q", cfg.CartMode)
	}
}

func buildKVStore(cfg *config.Config) (repositories.KVStore, error) {
	switch cfg.CartStore {
	case config.StoreMemory:
		return repositories.NewMemoryKVStore(), nil
	case config.StoreFile:
		if err := os.MkdirAll(filepath.Dir(cfg.CartStoreFile), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create cart store directory: %w", err)
		}
		return repositories.NewFileKVStore(cfg.CartStoreFile)
	case config.StoreRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("CART_STORE=redis requires a reachable redis")
		}
		return repositories.NewRedisKVStore(config.RedisClient, "cart", cfg.CartTTL), nil
	default:
		return nil, fmt.Errorf("unknown CART_STORE %q", cfg.CartStore)
	}
}

func demoProducts() []models.Product {
	now := time.Now()
	product := func(id int64, name, category, retail, wholesale, minQty, stock string) models.Product {
		return models.Product{
			ID:              id,
			Name:            name,
			Category:        category,
			RetailPrice:     decimal.RequireFromString(retail),
			WholesalePrice:  decimal.RequireFromString(wholesale),
			MinWholesaleQty: decimal.RequireFromString(minQty),
			StockKg:         decimal.RequireFromString(stock),
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	return []models.Product{
		product(1, "Apples", "Fruits", "2.50", "2.00", "10", "500"),
		product(2, "Carrots", "Vegetables", "1.20", "0.90", "20", "800"),
		product(3, "Tomatoes", "Vegetables", "3.10", "2.40", "15", "350"),
		product(4, "Bananas", "Fruits", "1.80", "1.40", "12", "420"),
		product(5, "Spinach", "Leafy Greens", "4.00", "3.20", "5", "120"),
	}
}
