package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/app/migrate"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository/postgres"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/collection"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/importer"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/config"
	"github.com/nicunursekatie/sandwichsync-sub003/pkg/logger"
)

func main() {
	format := flag.String("format", "json", "input format (json|csv)")
	file := flag.String("file", "", "path to the backup or CSV file")
	preview := flag.Bool("preview", false, "parse and report without writing")
	overwrite := flag.Bool("overwrite", false, "replace matching records instead of skipping")
	submittedBy := flag.String("submitted-by", "import", "user id recorded on imported CSV entries")
	timeout := flag.Duration("timeout", 10*time.Minute, "import timeout")
	flag.Parse()

	cfg := config.LoadAPIConfig()
	log := logger.New("import", slog.LevelInfo)

	if *file == "" {
		log.Error("missing required -file flag")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	input, err := os.Open(*file)
	if err != nil {
		log.Error("failed to open input file", "file", *file, "error", err)
		os.Exit(1)
	}
	defer input.Close()

	repo := postgres.New(pool)

	var summary any
	switch *format {
	case "json":
		im := importer.New(repo, repo, repo, repo, log)
		result, err := im.Restore(ctx, input, importer.Options{Preview: *preview, Overwrite: *overwrite})
		if err != nil {
			log.Error("restore failed", "error", err)
			os.Exit(1)
		}
		summary = result
	case "csv":
		svc := collection.New(repo, repo, repo, log)
		// The CLI runs with operator credentials, not a web session.
		operator := &domain.User{ID: *submittedBy, Role: domain.RoleSuperAdmin, Active: true}
		result, err := svc.ImportCSV(ctx, operator, input, collection.ImportOptions{
			Preview:     *preview,
			Overwrite:   *overwrite,
			SubmittedBy: *submittedBy,
		})
		if err != nil {
			log.Error("csv import failed", "error", err)
			os.Exit(1)
		}
		summary = result
	default:
		log.Error("unsupported format", "format", *format)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(summary)
}
