// Command soilreport runs the full acidity modelling pipeline on a soil
// survey CSV: cleaning, stratified splitting, repeated cross-validated
// grid search over the model families, and a final refit scored on the
// held-out test set. Artifacts (ranked results, annotated predictions,
// diagnostic plots) land in the configured output directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/VincevanderBerg/predictive-soil-analytics/dataset"
	"github.com/VincevanderBerg/predictive-soil-analytics/evaluation"
	"github.com/VincevanderBerg/predictive-soil-analytics/features"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/log"
	"github.com/VincevanderBerg/predictive-soil-analytics/report"
	"github.com/VincevanderBerg/predictive-soil-analytics/split"
	"github.com/VincevanderBerg/predictive-soil-analytics/tuning"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "soilreport: %+v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		input      string
		target     string
		outDir     string
		seed       uint64
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "soilreport",
		Short:         "Model titratable acidity from soil survey attributes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if input != "" {
				cfg.Input = input
			}
			if target != "" {
				cfg.Target = target
			}
			if outDir != "" {
				cfg.OutDir = outDir
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML run configuration")
	cmd.Flags().StringVarP(&input, "input", "i", "", "input CSV path (overrides config)")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target attribute name (overrides config)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "artifact directory (overrides config)")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "run seed (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

func run(cfg *RunConfig) error {
	logger, err := log.Setup(os.Stderr, cfg.LogLevel, true)
	if err != nil {
		return err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return errors.Wrapf(err, "opening %s", cfg.Input)
	}
	raw, err := dataset.ReadCSV(f, cfg.Target, cfg.Categorical, 0)
	f.Close()
	if err != nil {
		return err
	}
	logger.Info().
		Str("input", cfg.Input).
		Int("records", raw.NumRows()).
		Int("attributes", len(raw.Columns())).
		Msg("dataset loaded")

	clean, cleanReport, err := dataset.NewCleaner().Clean(raw)
	if err != nil {
		return err
	}
	stage := log.Stage(logger, "clean")
	stage.Info().
		Int("records", clean.NumRows()).
		Ints("dropped_records", cleanReport.DroppedRecords).
		Strs("dropped_columns", cleanReport.DroppedColumns).
		Msg("dataset cleaned")
	for name, n := range cleanReport.Imputed {
		stage.Debug().Str("attribute", name).Int("imputed", n).Msg("imputed missing values")
	}

	planner := split.NewPlanner()
	plan, err := planner.Split(clean, cfg.Ratio, cfg.Seed)
	if err != nil {
		return err
	}
	folds, err := planner.FoldPlan(clean, plan.Train, cfg.Folds, cfg.Repeats, cfg.Seed)
	if err != nil {
		return err
	}
	splitLog := log.Stage(logger, "split")
	splitLog.Info().
		Int("train", len(plan.Train)).
		Int("test", len(plan.Test)).
		Int("folds", cfg.Folds).
		Int("repeats", cfg.Repeats).
		Msg("split planned")

	base := clean.NumericNames()
	pipe := features.New(base, cfg.CorrelationThreshold)
	specs := tuning.DefaultSpecs(len(base), cfg.ForestTrees)

	gridLog := log.Stage(logger, "gridsearch")
	ev := evaluation.NewEvaluator(cfg.Seed)
	ev.Metric = cfg.Metric
	ev.Logger = gridLog

	var results []evaluation.Result
	for _, spec := range specs {
		started := time.Now()
		res, err := ev.Evaluate(clean, pipe, spec, plan.Train, folds, cfg.Grid)
		if err != nil {
			return errors.Wrapf(err, "evaluating %s", spec.Family)
		}
		results = append(results, res...)

		gridLog.Info().
			Str("family", spec.Family).
			Int("configs", len(res)).
			Dur("elapsed", time.Since(started)).
			Msg("family evaluated")
		if familyBest, err := evaluation.Best(res, cfg.Metric); err == nil {
			gridLog.Info().
				Str("family", spec.Family).
				Str("config", familyBest.Config.String()).
				Float64(cfg.Metric, familyBest.Summary.Mean).
				Msg("family best configuration")
		}
	}

	best, err := evaluation.Best(results, cfg.Metric)
	if err != nil {
		return err
	}
	gridLog.Info().
		Str("family", best.Family).
		Str("config", best.Config.String()).
		Float64(cfg.Metric, best.Summary.Mean).
		Msg("best configuration")

	spec := specFor(specs, best.Family)
	ff := evaluation.NewFinalFitter(cfg.Seed)
	final, err := ff.Refit(pipe, spec, best.Config, clean, plan.Train)
	if err != nil {
		return err
	}
	testScores, err := ff.Score(final, clean, plan.Test)
	if err != nil {
		return err
	}
	finalLog := log.Stage(logger, "final")
	ts := finalLog.Info().Str("family", best.Family)
	for name, v := range testScores {
		ts = ts.Float64("test_"+name, v)
	}
	ts.Msg("held-out test performance")

	deployed, preds, err := ff.DeployFit(pipe, spec, best.Config, clean)
	if err != nil {
		return err
	}
	return writeArtifacts(cfg, logger, clean, results, deployed.Family, preds)
}

func specFor(specs []*tuning.Spec, family string) *tuning.Spec {
	for _, s := range specs {
		if s.Family == family {
			return s
		}
	}
	return nil
}

func writeArtifacts(
	cfg *RunConfig,
	logger zerolog.Logger,
	ds *dataset.Dataset,
	results []evaluation.Result,
	family string,
	preds []float64,
) error {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", cfg.OutDir)
	}

	rows, err := report.Table(results, cfg.Metric)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(cfg.OutDir, "results.csv"), func(w *os.File) error {
		return report.WriteTableCSV(w, rows)
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(cfg.OutDir, "cleaned.csv"), func(w *os.File) error {
		return report.WriteDatasetCSV(w, ds, nil)
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(cfg.OutDir, "predictions.csv"), func(w *os.File) error {
		return report.WriteDatasetCSV(w, ds, preds)
	}); err != nil {
		return err
	}

	observed := ds.Target()
	if err := report.ObservedVsPredicted(
		filepath.Join(cfg.OutDir, "observed_vs_predicted.png"),
		ds.TargetName(), observed, preds,
	); err != nil {
		return err
	}
	if err := report.ResidualHistogram(
		filepath.Join(cfg.OutDir, "residuals.png"), observed, preds,
	); err != nil {
		return err
	}

	reportLog := log.Stage(logger, "report")
	reportLog.Info().
		Str("family", family).
		Str("dir", cfg.OutDir).
		Msg("artifacts written")
	return nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
