package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/posterdash/backend/internal/infrastructure/config"
	"github.com/posterdash/backend/internal/infrastructure/logger"
	"github.com/posterdash/backend/internal/infrastructure/migration"
	"github.com/posterdash/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsDir string
		logLevel      string
		confirm       bool
	)
	flag.StringVar(&migrationsDir, "dir", "", "Read migrations from this directory instead of the embedded schema")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Required for down")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var source fs.FS = migrations.FS
	if migrationsDir != "" {
		source = os.DirFS(migrationsDir)
	}

	// create and list work on files only
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("usage: migrate -dir migrations create <name>")
		}
		if migrationsDir == "" {
			log.Fatal("create needs -dir pointing at the source tree's migrations directory")
		}
		f, err := migration.Create(migrationsDir, args[1])
		if err != nil {
			log.Fatal("create migration failed", zap.Error(err))
		}
		log.Info("migration created",
			zap.Uint("version", f.Version),
			zap.String("up_file", f.UpPath),
			zap.String("down_file", f.DownPath),
		)
		return
	case "list":
		files, err := migration.List(source)
		if err != nil {
			log.Fatal("list migrations failed", zap.Error(err))
		}
		for _, f := range files {
			fmt.Println(f.Base())
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load configuration failed", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal("migrations only run against postgres; sqlite schemas are auto-migrated",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("open database failed", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("database unreachable", zap.Error(err))
	}

	m, err := migration.New(db, source, log)
	if err != nil {
		log.Fatal("init migrator failed", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()

	if err := run(m, command, args[1:], confirm, log); err != nil {
		log.Error("migration command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func run(m *migration.Migrator, command string, args []string, confirm bool, log *zap.Logger) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		if !confirm {
			return fmt.Errorf("down drops every table; re-run with -confirm")
		}
		return m.Down()
	case "step":
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		v, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version":
		st, err := m.Status()
		if err != nil {
			return err
		}
		if !st.Applied {
			log.Info("no migrations applied")
			return nil
		}
		log.Info("current version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(args []string, usage string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("usage: migrate %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return n, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: migrate [flags] <command> [args]

Commands:
  up               Apply all pending migrations
  down -confirm    Roll back every migration
  step <n>         Apply n migrations (negative rolls back)
  force <version>  Set the version without running SQL (clears dirty state)
  version          Print the current schema version
  list             List available migrations
  create <name>    Create the next migration pair (requires -dir)

Flags:
  -dir string        Migrations directory (default: embedded schema)
  -log-level string  Log level (default "info")
  -confirm           Confirm destructive commands

Database settings come from POSTER_DATABASE_* environment variables.
`)
}
