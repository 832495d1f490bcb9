package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/GenericConfluent/finescale/catalogue"
	"github.com/GenericConfluent/finescale/config"
	"github.com/GenericConfluent/finescale/db"
	"github.com/GenericConfluent/finescale/requisites"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type options struct {
	configPath  string
	outPath     string
	recordsPath string
	store       bool
	debug       bool
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func create(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := catalogue.OpenStore(cfg.Catalogue.CachePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics := catalogue.NewMetrics(prometheus.DefaultRegisterer)
	limiter := rate.NewLimiter(rate.Every(cfg.Catalogue.RequestInterval), cfg.Catalogue.Burst)
	cache, err := catalogue.NewCache(cfg.Catalogue.BaseURL, store, limiter,
		catalogue.WithLogger(logger), catalogue.WithMetrics(metrics))
	if err != nil {
		return err
	}

	var records *json.Encoder
	if opts.recordsPath != "" {
		f, err := create(opts.recordsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		records = json.NewEncoder(f)
	}

	scraper := catalogue.NewScraper(cache, requisites.NewReader(logger), logger, cfg.Catalogue.Concurrency)
	var courses []catalog.Course
	err = scraper.Run(ctx, func(record catalogue.Record) error {
		if records != nil {
			if err := records.Encode(record); err != nil {
				return err
			}
		}

		course, dropped, err := record.Course()
		if err != nil {
			logger.Warn("skipping course", zap.Error(err))
			return nil
		}
		if dropped != nil {
			logger.Debug("dropped requirements", zap.Stringer("course", course.ID), zap.Error(dropped))
		}
		courses = append(courses, course)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("scraped catalogue", zap.Int("courses", len(courses)))

	out, err := create(opts.outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := catalog.WriteCourses(out, courses); err != nil {
		return err
	}

	if !opts.store {
		return nil
	}
	if cfg.Database.ConnectionString == "" {
		return fmt.Errorf("storing courses needs %v", config.EnvDatabaseConnectionString)
	}

	database, err := db.Connect(ctx, cfg.Database.ConnectionString)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}
	if err := database.SaveCatalog(ctx, courses); err != nil {
		return err
	}
	logger.Info("stored catalogue", zap.Int("courses", len(courses)))
	return nil
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:          "courses",
		Short:        "Scrape the course catalogue into catalog JSON lines",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "-", "catalog output, - for stdout")
	cmd.Flags().StringVar(&opts.recordsPath, "records", "", "also write the raw scraped records here")
	cmd.Flags().BoolVar(&opts.store, "db", false, "store the catalog in Postgres")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "verbose development logging")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
