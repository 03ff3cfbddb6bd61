package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/UnknownOlympus/iris/internal/config"
	"github.com/UnknownOlympus/iris/internal/repository"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose"
)

func main() {
	var (
		dir     string
		command string
	)
	flag.StringVar(&dir, "dir", "migrations", "directory with goose SQL migrations")
	flag.StringVar(&command, "command", "up", "goose command: up, down, status, version")
	flag.Parse()

	cfg := config.MustLoad()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbpool, dbErr := repository.NewDatabase(ctx, repository.DSN(cfg.Postgres))
	if dbErr != nil {
		log.Fatalf("Failed to connect to DB: %v", dbErr)
	}
	defer dbpool.Close()

	dtb := stdlib.OpenDBFromPool(dbpool)
	defer dtb.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set goose dialect: %v", err)
	}
	if err := goose.Run(command, dtb, dir); err != nil {
		log.Fatalf("Migration command %q failed: %v", command, err)
	}

	log.Printf("✅ Migration command %q applied successfully", command)
}
