// Command migrate runs schema migrations outside the startup path, for
// operators working against a database directly.
//
// Usage:
//
//	migrate -driver postgres -url "$DATABASE_URL" -dir migrations up
//	migrate -driver postgres -url "$DATABASE_URL" -dir migrations status
//	migrate -driver postgres -url "$DATABASE_URL" -dir migrations down
//	migrate -dir migrations new -name add_guest_rsvp
//
// Supported drivers: postgres, mysql, sqlite3.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/timileyin42/ultimateco-entrypoint/migrate"
)

func main() {
	var (
		driver = flag.String("driver", "postgres", "Database driver: postgres, mysql, or sqlite3")
		url    = flag.String("url", os.Getenv("DATABASE_URL"), "Database connection string (default: DATABASE_URL)")
		dir    = flag.String("dir", "migrations", "Directory holding revision files")
		table  = flag.String("table", migrate.DefaultHistoryTable, "Name of the history table")
		name   = flag.String("name", "", "Revision name for the new subcommand")
		noDown = flag.Bool("no-down", false, "Skip the rollback file in the new subcommand")
	)

	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		fmt.Fprintln(os.Stderr, "Error: missing subcommand. Supported subcommands are: up, down, status, new")
		os.Exit(1)
	}

	if command == "new" {
		if *name == "" {
			fmt.Fprintln(os.Stderr, "Error: the new subcommand requires -name")
			os.Exit(1)
		}
		config := migrate.DefaultGenerateConfig(*name)
		config.OutputFolder = *dir
		config.WithDown = !*noDown
		path, err := migrate.Generate(&config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating revision: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated revision: %s\n", path)
		return
	}

	runner, cleanup, err := newRunner(*driver, *url, *dir, *table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()

	switch command {
	case "up":
		applied, err := runner.Apply(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Applied %d revision(s)\n", applied)

	case "down":
		revision, err := runner.Rollback(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rolling back: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Rolled back revision %s\n", revision)

	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading status: %v\n", err)
			os.Exit(1)
		}
		for _, st := range statuses {
			state := "pending"
			if st.Applied {
				state = "applied " + st.AppliedAt
			}
			fmt.Printf("%s_%s\t%s\n", st.Revision, st.Name, state)
		}

	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported subcommand '%s'. Supported subcommands are: up, down, status, new\n", command)
		os.Exit(1)
	}
}

func newRunner(driver, url, dir, table string) (*migrate.Runner, func(), error) {
	if url == "" {
		return nil, nil, fmt.Errorf("missing connection string: pass -url or set DATABASE_URL")
	}

	dialect, err := migrate.For(driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, nil, err
	}

	runner, err := migrate.New(migrate.Config{
		DB:      db,
		Source:  os.DirFS(dir),
		Dialect: dialect,
		Table:   table,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return runner, func() { _ = db.Close() }, nil
}
