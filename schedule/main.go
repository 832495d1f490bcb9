package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/GenericConfluent/finescale/config"
	"github.com/GenericConfluent/finescale/db"
	"github.com/GenericConfluent/finescale/graph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath  string
	catalogPath string
	fromDB      bool
	capacity    int
	dot         bool
	debug       bool
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadCourses(ctx context.Context, cfg *config.Config, opts options) ([]catalog.Course, error) {
	if opts.fromDB {
		if cfg.Database.ConnectionString == "" {
			return nil, fmt.Errorf("reading courses from the database needs %v", config.EnvDatabaseConnectionString)
		}
		database, err := db.Connect(ctx, cfg.Database.ConnectionString)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		return database.ListCourses(ctx)
	}

	var r io.Reader = os.Stdin
	if opts.catalogPath != "" && opts.catalogPath != "-" {
		f, err := os.Open(opts.catalogPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return catalog.ReadCourses(r)
}

// parseDesired accepts ids either as separate arguments ("CMPUT", "201") or
// quoted ("CMPUT 201"), and comma separated lists of quoted ids.
func parseDesired(args []string) ([]catalog.CourseId, error) {
	joined := strings.Join(args, " ")
	var ids []catalog.CourseId
	var errs []error
	for _, part := range strings.Split(joined, ",") {
		fields := strings.Fields(part)
		for len(fields) > 0 {
			end := 1
			for end < len(fields) && !isNumber(fields[end-1]) {
				end++
			}
			id, err := catalog.ParseCourseId(strings.Join(fields[:end], " "))
			if err != nil {
				errs = append(errs, fmt.Errorf("%q: %w", strings.Join(fields[:end], " "), err))
			} else {
				ids = append(ids, id)
			}
			fields = fields[end:]
		}
	}
	return ids, errors.Join(errs...)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func run(ctx context.Context, opts options, args []string, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	courses, err := loadCourses(ctx, cfg, opts)
	if err != nil {
		return err
	}
	g, err := graph.New(courses)
	if err != nil {
		return err
	}
	logger.Debug("built course graph", zap.Int("courses", len(courses)), zap.Int("nodes", g.Len()))

	if opts.dot {
		_, err := io.WriteString(out, g.Dot())
		return err
	}

	desired, err := parseDesired(args)
	if err != nil {
		return err
	}

	capacity := cfg.Schedule.Capacity
	if opts.capacity > 0 {
		capacity = opts.capacity
	}
	plan, err := g.Schedule(desired, capacity)
	if err != nil {
		return err
	}

	for _, id := range plan.Missing {
		logger.Warn("course is not in the catalog", zap.Stringer("course", id))
	}
	for i, term := range plan.Terms {
		names := make([]string, len(term))
		for j, id := range term {
			names[j] = id.String()
		}
		if _, err := fmt.Fprintf(out, "%d: %v\n", i+1, strings.Join(names, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:          "schedule [flags] COURSE...",
		Short:        "Lay out the terms needed to take the given courses",
		Example:      "  schedule --catalog courses.jsonl CMPUT 201 \"MATH 125\"",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.dot && len(args) == 0 {
				return errors.New("no courses given")
			}
			return run(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "-", "catalog JSON lines, - for stdin")
	cmd.Flags().BoolVar(&opts.fromDB, "db", false, "read the catalog from Postgres")
	cmd.Flags().IntVarP(&opts.capacity, "capacity", "c", 0, "courses per term, overrides the configuration")
	cmd.Flags().BoolVar(&opts.dot, "dot", false, "print the course graph in Graphviz format instead")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "verbose development logging")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
