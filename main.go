package main

import (
	"context"
	"flag"
	"log"

	"github.com/Voltaic314/DataRoom/api"
	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/config"
	"github.com/Voltaic314/DataRoom/core/orgs"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	"github.com/Voltaic314/DataRoom/seed"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to the JSON config file")
	seedOnly := flag.Bool("seed", false, "create the admin account and demo folders, then exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, db.Config{
		DSN:              cfg.Database.DSN,
		MaxAttempts:      cfg.Database.MaxAttempts,
		RetryDelay:       cfg.Database.RetryDelay.Std(),
		StatementTimeout: cfg.Database.StatementTimeout.Std(),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx, tables.Migrations()); err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}
	database.InitWriteQueue(tables.UserLogs, cfg.Database.LogBatchSize, cfg.Database.LogFlushInterval.Std())

	if *seedOnly {
		res, err := seed.Seed(ctx, database, seed.Options{
			AdminEmail:    cfg.Seed.AdminEmail,
			AdminName:     cfg.Seed.AdminName,
			AdminPassword: cfg.Seed.AdminPassword,
			DemoFolders:   cfg.Seed.DemoFolders,
			RandSeed:      cfg.Seed.RandSeed,
		})
		if err != nil {
			log.Fatalf("❌ Seed failed: %v", err)
		}
		if res.AdminCreated {
			log.Printf("👤 Created admin %s", cfg.Seed.AdminEmail)
		}
		log.Printf("🎲 Seed %d, created %d demo folders", res.RandSeed, len(res.Folders))
		return
	}

	auth.NewOTPStore(database).StartSweeper(ctx, cfg.Database.OTPSweepInterval)

	var store blob.Store
	if cfg.Blob.Bucket != "" {
		s3Store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:          cfg.Blob.Bucket,
			Region:          cfg.Blob.Region,
			Endpoint:        cfg.Blob.Endpoint,
			AccessKeyID:     cfg.Blob.AccessKeyID,
			SecretAccessKey: cfg.Blob.SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("❌ Failed to set up blob storage: %v", err)
		}
		store = s3Store
	} else {
		log.Printf("⚠️  No blob bucket configured, uploads are kept in memory and lost on restart")
		store = blob.NewMemoryStore()
	}

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})

	api.Run(api.Deps{
		Config:  cfg,
		DB:      database,
		Store:   store,
		Mailer:  mailer,
		Gateway: orgs.NewHTTPGateway(cfg.Payments.BaseURL, cfg.Payments.KeyID, cfg.Payments.KeySecret),
	})
}
