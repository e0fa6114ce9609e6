package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/js5/internal/disk"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/filesystem"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// GlobalOptions hold all global options for js5.
type GlobalOptions struct {
	Cache       string
	CacheSize   int
	Verbose     bool
	MetricsFile string
}

var globalOptions GlobalOptions

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "js5",
	Short: "Inspect and modify JS5 caches",
	Long: `
js5 reads and writes containers of a JS5 cache directory (main_file_cache.dat2
and its main_file_cache.idx files) and builds or verifies checksum tables.
`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if globalOptions.Verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return writeMetrics(globalOptions.MetricsFile)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(0)
	},
}

func init() {
	f := cmdRoot.PersistentFlags()
	f.StringVar(&globalOptions.Cache, "cache", "", "cache `location`, example: 'local:/srv/cache'")
	f.IntVar(&globalOptions.CacheSize, "cache-size", filesystem.NewConfig().CacheSize, "number of containers kept in the read cache")
	f.BoolVarP(&globalOptions.Verbose, "verbose", "v", false, "be verbose")
	f.StringVar(&globalOptions.MetricsFile, "metrics-file", "", "write store metrics in the Prometheus text format to `file` after the command")
}

// writeMetrics dumps the default registry to name, if set.
func writeMetrics(name string) error {
	if name == "" {
		return nil
	}
	return errors.Wrap(prometheus.WriteToTextfile(name, prometheus.DefaultGatherer), "write metrics")
}

// openCache opens the cache named by --cache.
func openCache(ctx context.Context) (*filesystem.FileSystem, error) {
	if globalOptions.Cache == "" {
		return nil, errors.Fatal("Please specify cache location (--cache)")
	}

	storeCfg, err := disk.ParseConfig(globalOptions.Cache)
	if err != nil {
		return nil, err
	}

	cfg := filesystem.NewConfig()
	cfg.Store = *storeCfg
	cfg.CacheSize = globalOptions.CacheSize
	return filesystem.Open(ctx, cfg)
}

func main() {
	log.SetLevel(log.WarnLevel)

	err := cmdRoot.ExecuteContext(context.Background())
	switch {
	case err == nil:
	case globalOptions.Verbose && !errors.IsFatal(err):
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
