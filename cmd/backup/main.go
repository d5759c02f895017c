package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"skbeauty-be/internal/backup"
	"skbeauty-be/internal/config"
	"skbeauty-be/internal/db"
	"skbeauty-be/internal/logger"
)

func main() {
	outDir := flag.String("out", "./backups", "directory to write the backup archive into")
	exclude := flag.String("exclude", "schema_migrations,payment_webhooks",
		"comma-separated tables to skip")
	flag.Parse()

	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	var excluded []string
	for _, t := range strings.Split(*exclude, ",") {
		if t = strings.TrimSpace(t); t != "" {
			excluded = append(excluded, t)
		}
	}

	exporter := backup.NewExporter(database, excluded)
	archive, err := exporter.Run(context.Background(), *outDir)
	if err != nil {
		log.Fatalf("backup failed: %v", err)
	}

	log.Printf("✅ Backup written to %s", archive)
}
