// Command recgo trains and evaluates a recommendation model from a YAML
// configuration, environment variables and flags.
//
//	recgo -config recgo.yaml -method bpr -train ratings.tsv -baseline
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/config"
	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "recgo:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("recgo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	method := fs.String("method", "", "model method, overrides model.method")
	trainPath := fs.String("train", "", "training data, overrides data.train")
	testPath := fs.String("test", "", "test data, overrides data.test")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	baseline := fs.Bool("baseline", false, "also evaluate the popularity baseline")
	if err := fs.Parse(args); err != nil {
		return err
	}

	overrides := map[string]any{}
	if *method != "" {
		overrides["model.method"] = *method
	}
	if *trainPath != "" {
		overrides["data.train"] = *trainPath
	}
	if *testPath != "" {
		overrides["data.test"] = *testPath
	}
	if *metricsAddr != "" {
		overrides["metrics.addr"] = *metricsAddr
	}
	cfg, err := config.LoadWithOverrides(*configPath, overrides)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, stderr)

	var collector recgo.MetricsCollector = recgo.NoopMetricsCollector{}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		collector = NewPrometheusCollector(reg)
		shutdown, err := serveMetrics(cfg.Metrics.Addr, reg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	train, test, err := loadData(ctx, cfg, logger, collector)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "train %s\ntest  %s\n", train.Summary(), test.Summary())

	kinds, err := cfg.Evaluation.Kinds()
	if err != nil {
		return err
	}
	opts := []recgo.Option{
		recgo.WithLogger(logger),
		recgo.WithMetricsCollector(collector),
		recgo.WithProgress(stdout),
		recgo.WithEvaluations(kinds...),
		recgo.WithGroups(cfg.Model.UserGroup, cfg.Model.ItemGroup),
		recgo.WithWorkers(cfg.Solver.Workers),
		recgo.WithMaxIterations(cfg.Solver.MaxIterations),
		recgo.WithEvalIterations(cfg.Solver.EvalIterations),
		recgo.WithSampleSize(cfg.Solver.SampleSize),
		recgo.WithDecay(cfg.Solver.Decay),
	}
	if cfg.Solver.SGD {
		opts = append(opts, recgo.WithSGD(cfg.Solver.LearnRate))
	}

	if *baseline {
		fmt.Fprintln(stdout, "baseline: popularity")
		pcfg := model.DefaultConfig()
		pcfg.UserGroup, pcfg.ItemGroup = cfg.Model.UserGroup, cfg.Model.ItemGroup
		pop := model.NewPopularity(pcfg)
		if _, err := recgo.Train(ctx, pop, train, test, append(opts, recgo.WithMaxIterations(0))...); err != nil {
			return err
		}
	}

	m, err := buildModel(cfg.Model, cfg.Solver.Workers)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "model: %s\n", m.Name())
	report, err := recgo.Train(ctx, m, train, test, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "trained %s in %s\n", report.Method, report.Elapsed.Round(time.Millisecond))

	if cfg.Snapshot.Store == "none" {
		return nil
	}
	return saveSnapshot(ctx, cfg.Snapshot, report.Model, logger, collector, stdout)
}

func newLogger(cfg config.LogConfig, w io.Writer) *recgo.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return recgo.NewLogger(slog.NewJSONHandler(w, hopts))
	}
	return recgo.NewLogger(slog.NewTextHandler(w, hopts))
}

// loadData reads the train file and either the test file or a held-out
// split of the training data.
func loadData(ctx context.Context, cfg *config.Config, logger *recgo.Logger, collector recgo.MetricsCollector) (train, test *dataset.Dataset, err error) {
	cols, err := cfg.Data.LoaderColumns()
	if err != nil {
		return nil, nil, err
	}
	lopts, err := cfg.Data.LoaderOptions(logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	loader, err := dataset.NewLoader(cols, lopts...)
	if err != nil {
		return nil, nil, err
	}

	paths := []string{cfg.Data.Train}
	if cfg.Data.Test != "" {
		paths = append(paths, cfg.Data.Test)
	}
	sets, err := loader.LoadFiles(paths...)
	if err != nil {
		return nil, nil, err
	}
	if len(sets) == 2 {
		return sets[0], sets[1], nil
	}

	rng := rand.New(rand.NewPCG(cfg.Data.Seed, cfg.Data.Seed))
	return recgo.Split(ctx, sets[0], cfg.Data.SplitGroup, cfg.Data.SplitRatio, rng,
		recgo.WithLogger(logger), recgo.WithMetricsCollector(collector))
}

func buildModel(cfg config.ModelConfig, workers int) (model.Model, error) {
	method, mcfg, err := cfg.Build(workers)
	if err != nil {
		return nil, err
	}
	return model.New(method, mcfg)
}

func saveSnapshot(ctx context.Context, cfg config.SnapshotConfig, m model.Model, logger *recgo.Logger, collector recgo.MetricsCollector, stdout io.Writer) error {
	popts, err := cfg.PersistenceOptions()
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	n, err := recgo.SaveModel(ctx, store, cfg.Name, m,
		recgo.WithLogger(logger),
		recgo.WithMetricsCollector(collector),
		recgo.WithSnapshotOptions(popts...))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "saved %s (%d bytes, store %s)\n", cfg.Name, n, cfg.Store)
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *recgo.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
