package main

import (
	"context"
	"delivery-quote-service/internal/adapters/broker"
	"delivery-quote-service/internal/adapters/cache"
	"delivery-quote-service/internal/adapters/httpclient"
	"delivery-quote-service/internal/adapters/nominatim"
	"delivery-quote-service/internal/adapters/osrm"
	"delivery-quote-service/internal/api"
	"delivery-quote-service/internal/config"
	"delivery-quote-service/internal/platform/db"
	"delivery-quote-service/internal/platform/logging"
	"delivery-quote-service/internal/ports"
	"delivery-quote-service/internal/services"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters (Nominatim, OSRM, optional caches and broker)
// behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := httpclient.New(httpclient.Options{
		Timeout:     cfg.RequestTimeout,
		MaxAttempts: cfg.ProviderMaxAttempts,
		Headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept-Language": cfg.GeocodeLanguage,
		},
	})

	places, err := nominatim.New(nominatim.Config{
		BaseURL:     cfg.NominatimBaseURL,
		CountryCode: cfg.GeocodeCountryCode,
		CountryName: cfg.GeocodeCountryName,
	}, client, log)
	if err != nil {
		return err
	}

	routes, err := osrm.New(cfg.OSRMBaseURL, client, log)
	if err != nil {
		return err
	}

	geocoder, closeCache, err := buildGeocoder(ctx, cfg, places, log)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, closeBroker, err := buildPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closeBroker()

	legs := services.NewLegResolver(
		services.PrimaryRouteStrategy{Provider: routes},
		services.FallbackRouteStrategy{},
		log,
	)
	aggregator := services.NewRouteAggregator(geocoder, legs, log)

	store := services.NewSessionStore(cfg.SessionTTL)
	go store.Run(ctx, time.Minute, log)

	quotes := services.NewQuoteService(
		store,
		aggregator,
		places,
		publisher,
		services.QuoteServiceConfig{
			SuggestDelay:   cfg.SuggestDebounce,
			SuggestTimeout: cfg.RequestTimeout,
		},
		log,
	)

	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Calculations may chain several provider calls, so the write timeout
	// leaves room for a multi-stop route on a slow provider.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(quotes, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildGeocoder wraps the provider with the configured cache, if any.
func buildGeocoder(
	ctx context.Context,
	cfg config.Config,
	places ports.Geocoder,
	log logrus.FieldLogger,
) (ports.Geocoder, func(), error) {
	switch cfg.GeocodeCache {
	case config.CachePostgres:
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		log.Info("geocode cache: postgres")
		store := cache.NewSQLGeocodeCache(conn, cfg.GeocodeCacheTTL, log)
		return cache.NewCachedGeocoder(places, store, log), func() { _ = conn.Close() }, nil

	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis: ping %s: %w", cfg.RedisAddr, err)
		}
		log.Info("geocode cache: redis")
		store := cache.NewRedisGeocodeCache(rdb, cfg.GeocodeCacheTTL, log)
		return cache.NewCachedGeocoder(places, store, log), func() { _ = rdb.Close() }, nil
	}

	return places, func() {}, nil
}

func buildPublisher(cfg config.Config, log logrus.FieldLogger) (ports.QuotePublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, accepted quotes will not be published")
		return broker.NoopPublisher{Log: log}, func() {}, nil
	}

	b, err := broker.NewQuoteBroker(cfg.RabbitMQURL, cfg.QuoteExchange, log)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { closeQuietly(b, log) }, nil
}

func closeQuietly(c io.Closer, log logrus.FieldLogger) {
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("close")
	}
}
