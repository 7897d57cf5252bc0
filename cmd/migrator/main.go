package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/linemk/agriconnect/internal/config"
)

const migrationsTable = "migrations"

func main() {
	var migrationsPathFlag string
	var down bool
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.BoolVar(&down, "down", false, "roll back all migrations")

	// config.MustLoad разбирает флаги сам
	cfg := config.MustLoad()

	migrationsPath := cfg.Migrations.Path
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	// Создаем объект мигратора
	m, err := migrate.New(
		"file://"+migrationsPath,
		cfg.Database.DSN("x-migrations-table", migrationsTable),
	)
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("No migrations to apply")
	case err != nil:
		log.Fatalf("migration failed: %v", err)
	default:
		log.Println("Migrations applied successfully")
	}

	if err := listTables(cfg.Database); err != nil {
		log.Fatal(err)
	}
}

// listTables печатает таблицы схемы public после миграции
func listTables(dbCfg config.DatabaseConfig) error {
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	fmt.Println("Current tables in the database:")
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		fmt.Println(" -", tableName)
	}
	return rows.Err()
}
