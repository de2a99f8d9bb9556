package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"newsdesk/pkg/api"
	"newsdesk/pkg/auth"
	"newsdesk/pkg/config"
	"newsdesk/pkg/nyt"
	"newsdesk/pkg/storage"
	"newsdesk/pkg/storage/mongo"
)

const serviceName = "newsdesk"

func main() {
	var (
		configPath string
		httpAddr   string
		logLevel   string
	)

	flag.StringVar(&configPath, "config", "", "Path to TOML config file.")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port', overrides config.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}
	if httpAddr != "" {
		cfg.Addr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	switch cfg.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	// A store that cannot be reached is a degraded mode, not a startup
	// failure: comment endpoints answer 503 until Mongo comes back and the
	// process restarts, while news search and login keep working.
	var db storage.Storage
	mongoConf, err := mongo.NewConfig()
	if err != nil {
		log.Errorf("[server] incomplete Mongo configuration, comments disabled: %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mdb, err := mongo.New(ctx, mongoConf)
		if err == nil {
			err = mdb.Ping(ctx)
		}
		cancel()
		if err != nil {
			log.Errorf("[server] failed to connect to Mongo, comments disabled: %v", err)
		} else {
			log.Infof("[server] connected to Mongo at %s:%s", mongoConf.Host, mongoConf.Port)
			db = mdb
		}
	}

	resolver := &auth.Resolver{
		AdminID:     cfg.AdminUserID,
		ModeratorID: cfg.ModeratorUserID,
	}
	if cfg.SessionKey == "" {
		log.Warn("[server] SESSION_KEY not set, sessions will not survive restarts")
	}
	sessions := auth.NewSessions([]byte(cfg.SessionKey), resolver)

	var provider auth.Provider
	if cfg.OIDCIssuer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		p, err := auth.NewOIDCProvider(ctx, auth.OIDCConfig{
			Issuer:       cfg.OIDCIssuer,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
		})
		cancel()
		if err != nil {
			log.Errorf("[server] OIDC setup failed, login disabled: %v", err)
		} else {
			provider = p
		}
	}

	var kw *kafka.Writer
	if len(cfg.KafkaBrokers) > 0 {
		kw = &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer kw.Close()
	}

	api := api.New(api.Options{
		ServiceName:    serviceName,
		DB:             db,
		Sessions:       sessions,
		Provider:       provider,
		News:           nyt.NewClient(cfg.NYTAPIKey),
		FrontendURL:    cfg.FrontendURL,
		BuildDir:       cfg.BuildDir,
		AllowedOrigins: cfg.AllowedOrigins,
		KafkaWriter:    kw,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Handler(),
	}

	go func() {
		log.Infof("[server] starting on %v", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("[server] failed to start: %v", err)
			return
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}

	if db != nil {
		db.Close(shutdownCtx)
		log.Info("[server] disconnected from DB")
	}
}
