// Command manca clusters a weighted co-occurrence network by repeated
// diffusion and writes the labelled network back out.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/gilchrisn/manca/pkg/manca"
	"github.com/gilchrisn/manca/pkg/netio"
)

type cliOptions struct {
	input       string
	output      string
	format      string
	configFile  string
	reportFile  string
	metricsAddr string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "manca: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	config := manca.NewConfig()
	flags, cli := newFlagSet(config)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if cli.input == "" || cli.output == "" {
		flags.Usage()
		return fmt.Errorf("both --input and --output are required")
	}

	if cli.configFile != "" {
		if err := config.LoadFromFile(cli.configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := bindFlags(config, flags); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	format, err := resolveFormat(cli.format, cli.input)
	if err != nil {
		return err
	}

	logger := config.CreateLogger()

	net, err := netio.ReadFile(cli.input, format)
	if err != nil {
		return err
	}
	net.WithLabelAttribute(config.LabelAttribute())
	logger.Info().
		Str("input", cli.input).
		Str("format", string(format)).
		Int("nodes", net.NumNodes()).
		Int("edges", net.NumEdges()).
		Msg("Network loaded")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := manca.NewMetrics(reg)
	if cli.metricsAddr != "" {
		server := startMetricsServer(cli.metricsAddr, reg, logger)
		defer server.shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clusterer, err := manca.New(config, manca.WithMetrics(metrics), manca.WithLogger(logger))
	if err != nil {
		return err
	}
	result, err := clusterer.Run(ctx, net)
	if err != nil {
		return fmt.Errorf("clustering failed: %w", err)
	}

	if err := netio.WriteFile(cli.output, net, format); err != nil {
		return err
	}
	logger.Info().Str("output", cli.output).Msg("Labelled network written")

	if cli.reportFile != "" {
		report := netio.NewReport(cli.input, format, config.Options(), result)
		if err := netio.WriteReportFile(cli.reportFile, report); err != nil {
			return err
		}
		logger.Info().Str("report", cli.reportFile).Msg("Run report written")
	}

	displayResults(result)
	return nil
}

// newFlagSet declares the command line. Algorithm flags default to the
// config defaults and are only applied when set explicitly, so a config
// file can still provide them.
func newFlagSet(config *manca.Config) (*pflag.FlagSet, *cliOptions) {
	cli := &cliOptions{}
	flags := pflag.NewFlagSet("manca", pflag.ContinueOnError)

	flags.StringVarP(&cli.input, "input", "i", "", "input network file")
	flags.StringVarP(&cli.output, "output", "o", "", "output network file")
	flags.StringVarP(&cli.format, "format", "f", "", "file format: dot or edgelist (default: from input extension)")
	flags.StringVar(&cli.configFile, "config", "", "YAML/JSON/TOML config file")
	flags.StringVar(&cli.reportFile, "report", "", "write a YAML run report to this file")
	flags.StringVar(&cli.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address while running")

	flags.Int("limit", config.Limit(), "rounds of unchanged sparsity before stopping")
	flags.Int("diffusion-range", config.DiffusionRange(), "hops per diffusion round")
	flags.Int("max-clusters", config.MaxClusters(), "largest cluster count considered")
	flags.Int("iterations", config.Iterations(), "maximum number of rounds")
	flags.Int64("seed", 0, "random seed (default: time based)")
	flags.String("log-level", config.LogLevel(), "log level")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: manca -i <input> -o <output> [-f dot|edgelist] [flags]\n\n")
		flags.PrintDefaults()
	}
	return flags, cli
}

var flagKeys = map[string]string{
	"limit":           "algorithm.limit",
	"diffusion-range": "algorithm.diffusion_range",
	"max-clusters":    "algorithm.max_clusters",
	"iterations":      "algorithm.iterations",
	"seed":            "algorithm.random_seed",
	"log-level":       "logging.level",
}

// bindFlags copies explicitly set flags over the config.
func bindFlags(config *manca.Config, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := config.Viper().BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

func resolveFormat(name, input string) (netio.Format, error) {
	if name != "" {
		return netio.ParseFormat(name)
	}
	return netio.DetectFormat(input)
}

func displayResults(result *manca.Result) {
	fmt.Printf("\n=== Clustering Results ===\n")
	fmt.Printf("Run ID: %s\n", result.RunID)
	fmt.Printf("State: %s\n", result.State)
	fmt.Printf("Rounds: %d\n", result.Iterations)
	fmt.Printf("Sparsity: %d\n", result.Sparsity)
	fmt.Printf("Clusters: %d\n", result.NumClusters)
	fmt.Printf("Modularity: %.6f\n", result.Modularity)
	fmt.Printf("Runtime: %d ms\n", result.Statistics.RuntimeMS)
}
