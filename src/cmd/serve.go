package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	app "photozone/src/app"
	cfg "photozone/src/configuration"
	db "photozone/src/repository"
	server "photozone/src/server"
)

const sweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gallery HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := cfg.ReadProperties()
			if err != nil {
				return err
			}
			setupLogging(config)
			return serve(cmd.Context(), config)
		},
	}
}

func serve(ctx context.Context, config *cfg.Properties) error {
	if config.Level() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	seed, err := app.LoadSeed(config.Catalog.SeedFile)
	if err != nil {
		return err
	}
	catalog, err := db.NewCatalog(seed)
	if err != nil {
		return err
	}

	pins, err := db.OpenBadgerPinStore(db.PinConfig{
		Path:       config.Pin.Path,
		Key:        config.Pin.Key,
		Default:    config.Pin.Default,
		GCInterval: config.Pin.GCInterval,
		Logger:     slog.Default().With("component", "badger"),
	})
	if err != nil {
		return err
	}
	defer pins.Close()

	sessions, err := db.NewSessionStore(config, func() *app.PinPad {
		return app.NewPinPad(pins, app.WithResetDelay(config.Pin.ResetDelay))
	})
	if err != nil {
		return err
	}

	var s3 *app.MinioS3Client
	if config.S3.Enabled {
		s3, err = app.NewMinioS3Client(config.S3.Host, config.S3.AccessKey, config.S3.SecretKey,
			config.S3.Bucket, config.S3.UseSSL, config.S3.PresignTTL)
		if err != nil {
			return err
		}
		if err := s3.Check(ctx); err != nil {
			return fmt.Errorf("object storage not ready: %w", err)
		}
	}

	handler, err := server.NewHandler(config, server.Services{
		Catalog:  catalog,
		Sessions: sessions,
		S3:       s3,
		Property: seed.Property,
	})
	if err != nil {
		return err
	}
	auth, err := server.NewAuthHandler(ctx, config)
	if err != nil {
		return err
	}
	router, err := server.NewRouter(config, handler, auth)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.RunServer(gctx, config, router) })
	g.Go(func() error { return pins.RunGC(gctx) })
	g.Go(func() error { return db.RunSweeper(gctx, sessions, sweepInterval) })
	return g.Wait()
}
