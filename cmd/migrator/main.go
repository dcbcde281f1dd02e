package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/cybertank378/student-point-app-sub000/internal/infra/config"
)

func main() {
	migrationsDir := flag.String("dir", "migrations", "directory with migration files")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return
	}

	command := args[0]

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	switch command {
	case "up":
		if err := goose.Up(db, *migrationsDir); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := goose.Down(db, *migrationsDir); err != nil {
			log.Fatalf("failed to roll back migration: %v", err)
		}
		fmt.Println("last migration rolled back")
	case "status":
		if err := goose.Status(db, *migrationsDir); err != nil {
			log.Fatalf("failed to read migration status: %v", err)
		}
	default:
		fmt.Printf("unknown command: %s\n", command)
		flag.Usage()
	}
}

func usage() {
	fmt.Println("Usage: migrator [-dir path] COMMAND")
	fmt.Println("Commands:")
	fmt.Println("  up      apply all pending migrations")
	fmt.Println("  down    roll back the last migration")
	fmt.Println("  status  show migration status")
}
