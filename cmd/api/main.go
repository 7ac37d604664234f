package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"folio/api/internal/app"
	"folio/api/internal/authpw"
	"folio/api/internal/config"
	"folio/api/internal/content"
	"folio/api/internal/email"
	"folio/api/internal/jobs"
	"folio/api/internal/search"
	"folio/api/internal/session"
	"folio/api/internal/storage"
	"folio/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		searchService.ReindexAllFromPG(ctx)
	}

	var storageService *storage.Service
	if strings.TrimSpace(cfg.MinioAccessKey) != "" {
		storageService, err = storage.New(ctx, storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
	} else {
		log.Printf("Object storage not configured, image variants disabled")
	}

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if !emailService.IsConfigured() {
		log.Printf("SMTP not configured, contact notifications disabled")
	}

	dispatcher := jobs.NewDispatcher()
	registerJobHandlers(dispatcher, dataStore, storageService, emailService, cfg)

	authService := authpw.NewService(dataStore)

	service := app.New(cfg, dataStore, authService, searchService, dispatcher)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL, dataStore)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		service.UseSessionStore(redisStore)
	} else {
		log.Printf("Using PostgreSQL for refresh token storage")
	}

	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Folio API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	dispatcher.Wait()
}

// registerJobHandlers binds side-effect intents to their executors.
func registerJobHandlers(dispatcher *jobs.Dispatcher, dataStore *store.PostgresStore, storageService *storage.Service, emailService *email.Service, cfg config.Config) {
	dispatcher.Register(content.IntentDeriveImageVariants, func(ctx context.Context, intent content.Intent) error {
		if storageService == nil {
			return nil
		}
		key, err := imageKeyForItem(ctx, dataStore, intent.ItemID)
		if err != nil {
			return err
		}
		if key == "" {
			return nil
		}
		return storageService.DeriveVariants(ctx, key)
	})

	dispatcher.Register(content.IntentContactNotification, func(ctx context.Context, intent content.Intent) error {
		if !emailService.IsConfigured() {
			return nil
		}
		message, err := dataStore.GetMessage(ctx, intent.ItemID)
		if err != nil {
			return err
		}
		recipient, err := dataStore.FirstAdminEmail(ctx)
		if err != nil {
			return err
		}
		if recipient == "" {
			recipient = cfg.AdminEmail
		}
		return emailService.SendContactNotification(recipient, message.Name, message.Email, message.Subject, message.Body, message.CreatedAt)
	})
}

// imageKeyForItem resolves the attached image key for either content kind.
func imageKeyForItem(ctx context.Context, dataStore *store.PostgresStore, itemID string) (string, error) {
	if item, err := dataStore.FindByID(ctx, content.KindProject, itemID); err == nil {
		return item.(*store.Project).ImageKey, nil
	} else if !errors.Is(err, content.ErrNotFound) {
		return "", err
	}
	item, err := dataStore.FindByID(ctx, content.KindPost, itemID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return "", fmt.Errorf("item %s not found for image variants", itemID)
		}
		return "", err
	}
	return item.(*store.BlogPost).CoverImageKey, nil
}
