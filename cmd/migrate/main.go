// Command migrate applies the embedded MySQL schema migrations.
//
//	migrate -up        apply every pending migration
//	migrate -down      roll back the last migration
//	migrate -version   print the current schema version
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/pull-events/pull-api/internal/config"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/migrations"
)

func main() {
	var (
		upFlag      = flag.Bool("up", false, "Run pending migrations")
		downFlag    = flag.Bool("down", false, "Roll back the last migration")
		versionFlag = flag.Bool("version", false, "Show the current schema version")
	)
	flag.Parse()

	cfg := config.Load()

	// The schema files hold several statements each.
	db, err := sql.Open("mysql", database.DSN(cfg.DBParams(), "multiStatements=true"))
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		log.Fatalf("init migrations: %v", err)
	}

	switch {
	case *upFlag:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate up: %v", err)
		}
		fmt.Println("migrations applied")
	case *downFlag:
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("last migration rolled back")
	case *versionFlag:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, err
	}
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "mysql", driver)
}
