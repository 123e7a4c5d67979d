package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yukikurage/issue-tracker-ui/internal/api"
	"github.com/yukikurage/issue-tracker-ui/internal/config"
	"github.com/yukikurage/issue-tracker-ui/internal/database"
	"github.com/yukikurage/issue-tracker-ui/internal/handlers"
	"github.com/yukikurage/issue-tracker-ui/internal/services"
	"github.com/yukikurage/issue-tracker-ui/internal/session"
	"gorm.io/gorm"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	listenAddr string
)

// rootCmd starts the web server
var rootCmd = &cobra.Command{
	Use:   "issue-tracker-ui",
	Short: "Serve the issue tracker web UI",
	Long: `Serve the browser UI of the issue tracker.

The UI talks to the main task service (WEBSERVICE_URL) and to the file host
that stores rendered task e-mails (FTP_SERVER_URL). Settings come from the
environment; --config overlays a YAML file on top.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file overlaid on the environment")
	rootCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides LISTEN_ADDR)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// Load configuration
	cfg := config.Load()
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return err
		}
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	log := setupLogger(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("Invalid configuration")
		return err
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database when sessions live there
	var db *gorm.DB
	if cfg.SessionStore == config.SessionStoreDatabase {
		var err error
		db, err = database.Connect(cfg, log)
		if err != nil {
			log.WithError(err).Error("Failed to connect to database")
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				log.WithError(err).Warn("Failed to close database")
			}
		}()
	}

	store, err := session.NewBackend(cfg, db)
	if err != nil {
		log.WithError(err).Error("Failed to create session store")
		return err
	}

	client, err := api.New(api.Options{
		BaseURL:       cfg.WebServiceURL,
		FileServerURL: cfg.FileServerURL,
		Timeout:       cfg.RequestTimeout,
		Logger:        log,
		OnUnauthorized: func(op string) {
			log.WithField("operation", op).Info("Session expired, user sent to login")
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to create API client")
		return err
	}

	if cfg.OpenAIAPIKey == "" {
		log.Debug("OPENAI_API_KEY not set, subjects are suggested from document headings")
	}

	router, err := handlers.NewRouter(handlers.Dependencies{
		Client:    client,
		Suggester: services.NewSubjectSuggester(cfg.OpenAIAPIKey),
		Sessions:  store,
		Logger:    log,
	})
	if err != nil {
		log.WithError(err).Error("Failed to build router")
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":        cfg.ListenAddr,
			"webservice":  cfg.WebServiceURL,
			"file_server": cfg.FileServerURL,
			"sessions":    cfg.SessionStore,
		}).Info("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func setupLogger(env, level string) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	switch env {
	case envLocal:
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
	case envDev:
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case envProd:
		log.SetLevel(logrus.WarnLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetLevel(logrus.WarnLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	// LOG_LEVEL wins over the environment default
	if level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			log.SetLevel(parsed)
		} else {
			log.WithField("log_level", level).Warn("Unknown LOG_LEVEL, keeping default")
		}
	}

	return logrus.NewEntry(log)
}
