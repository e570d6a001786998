// Package main implements eicdump, which writes one extracted ion
// chromatogram unit per hit of a twin-ion hit list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RMahshie/twinion/internal/config"
	"github.com/RMahshie/twinion/internal/dataset"
	"github.com/RMahshie/twinion/internal/extraction"
	"github.com/RMahshie/twinion/internal/hits"
	"github.com/RMahshie/twinion/internal/logging"
	"github.com/RMahshie/twinion/internal/sink"
	"github.com/RMahshie/twinion/internal/source"
	"github.com/RMahshie/twinion/internal/storage"
)

// defaultLogFile is used when --log is given without a value
const defaultLogFile = "eicdump.log"

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(viper.New()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// options holds the flags that are not configuration keys
type options struct {
	mzml     string
	hits     string
	validate bool
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "eicdump --mzml FILE --hits FILE --outdir DIR",
		Short: "Extract twin-ion chromatograms for each hit",
		Long: `eicdump loads an mzML dataset and, for each record of a comma separated
hit list (time,mass,intensity,score), writes one output unit hit_<n> holding
a row per spectrum in the hit's retention time window:

  time mass_low intensity_low mass_high intensity_high

Inputs given as s3://KEY are read from S3_BUCKET. When S3_RESULTS_PREFIX is
set, units are also uploaded under <prefix>/<outdir name>/.

Examples:
  # Default window and mass delta
  eicdump --mzml run.mzML --hits hits.csv --outdir eic

  # Deuterium label, four workers, log to eicdump.log
  eicdump --mzml run.mzML --hits hits.csv --outdir eic --mz-delta 4.0071 --workers 4 --log`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, opts, cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.mzml, "mzml", "", "mzML dataset path or s3://KEY")
	flags.StringVar(&opts.hits, "hits", "", "hit list path or s3://KEY")
	flags.BoolVar(&opts.validate, "validate", false, "check dataset ordering before extracting")
	flags.String("outdir", "", "directory receiving hit_<n> units")
	flags.String("log", "", "write JSON logs to this file instead of stderr")
	flags.Lookup("log").NoOptDefVal = defaultLogFile
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Float64("time-window", extraction.DefaultTimeHalfWindow, "retention time half window")
	flags.Float64("mz-delta", extraction.DefaultMassDelta, "m/z offset of the heavy twin ion")
	flags.Int("smoothing", 1, "neighbors averaged on each side of a peak")
	flags.Int("max-hits", extraction.DefaultMaxHits, "maximum number of hits processed")
	flags.Int("workers", 1, "hits extracted concurrently")
	_ = cmd.MarkFlagRequired("mzml")
	_ = cmd.MarkFlagRequired("hits")
	_ = cmd.MarkFlagRequired("outdir")

	for key, flag := range map[string]string{
		config.KeyOutputDir:          "outdir",
		config.KeyLogFile:            "log",
		config.KeyLogLevel:           "log-level",
		config.KeyTimeHalfWindow:     "time-window",
		config.KeyMassDelta:          "mz-delta",
		config.KeySmoothingHalfWidth: "smoothing",
		config.KeyMaxHits:            "max-hits",
		config.KeyWorkers:            "workers",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", flag, err))
		}
	}

	return cmd
}

func run(ctx context.Context, v *viper.Viper, opts options, stderr io.Writer) error {
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(stderr, "eicdump: %v\n", err)
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(stderr, "eicdump: %v\n", err)
		return err
	}
	defer closeLog()

	logStartup(logger)

	if err := extract(ctx, cfg, opts, logger); err != nil {
		logger.Error().Err(err).Msg("Extraction failed")
		if cfg.Log.File != "" {
			fmt.Fprintf(stderr, "eicdump: %v\n", err)
		}
		return err
	}
	return nil
}

func extract(ctx context.Context, cfg *config.Config, opts options, logger zerolog.Logger) error {
	var store storage.S3Service
	if cfg.AWS.S3Bucket != "" {
		s, err := storage.NewS3Service(ctx, storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			return err
		}
		store = s
	} else if cfg.AWS.ResultsPrefix != "" {
		return errors.New("S3_RESULTS_PREFIX requires S3_BUCKET")
	}

	data, err := loadDataset(ctx, opts.mzml, store)
	if err != nil {
		return err
	}
	logger.Info().Str("mzml", opts.mzml).Int("spectra", data.Len()).Int("peaks", data.Peaks()).Msg("Dataset loaded")

	if opts.validate {
		if err := data.Validate(); err != nil {
			return fmt.Errorf("dataset %s: %w", opts.mzml, err)
		}
	}

	hitsFile, err := source.Open(ctx, opts.hits, store)
	if err != nil {
		return fmt.Errorf("failed to open hit list: %w", err)
	}
	defer hitsFile.Close()

	dir, err := sink.NewDirectory(cfg.Extraction.OutputDir)
	if err != nil {
		return err
	}
	out := sink.Multi{dir}
	if cfg.AWS.ResultsPrefix != "" {
		prefix := path.Join(cfg.AWS.ResultsPrefix, path.Base(strings.TrimRight(cfg.Extraction.OutputDir, "/")))
		out = append(out, sink.NewS3(store, prefix))
	}

	pipeline := extraction.New(data, cfg.Settings(), logger, nil)
	summary, err := pipeline.Run(ctx, hits.NewSource(hitsFile), out)
	if err != nil {
		return err
	}

	logger.Info().Int("hits", summary.Hits).Int("records", summary.Records).Str("outdir", cfg.Extraction.OutputDir).Msg("Done")
	return nil
}

func loadDataset(ctx context.Context, uri string, store storage.S3Service) (*dataset.Dataset, error) {
	f, err := source.Open(ctx, uri, store)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	data, err := dataset.ReadMzML(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", uri, err)
	}
	return data, nil
}

// logStartup records where and how the program was invoked
func logStartup(logger zerolog.Logger) {
	host, _ := os.Hostname()
	wd, _ := os.Getwd()
	logger.Info().
		Str("program", "eicdump").
		Str("version", version).
		Str("host", host).
		Str("cwd", wd).
		Str("cmdline", strings.Join(os.Args, " ")).
		Msg("Starting")
}
