package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/config"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/ioformat"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/ioformat/pretty"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/orchestrate"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/scenario"
)

var (
	numSimulations  int
	numConsignments int
	configFile      string
	outputFile      string
	scenarioFile    string
	seed            int64
	prettyMode      string
	detailed        bool
	strictInput     bool
	logLevel        string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "popsborder",
	Short: "Monte Carlo simulator for a border-inspection pipeline",
}

// runCmd executes one or more simulation runs from a configuration file,
// optionally fanned out across a scenario table.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the border-inspection simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		if configFile == "" {
			return fmt.Errorf("--config-file is required")
		}

		runs, err := loadRuns(cmd)
		if err != nil {
			return err
		}

		out := os.Stdout
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		for _, r := range runs {
			logrus.Infof("[%s] running %d simulations of %d consignments each", r.Name, r.Config.NumSimulations, r.Config.NumConsignments)

			orchCfg, err := buildOrchestratorConfig(r.Config)
			if err != nil {
				return err
			}

			start := time.Now()
			sim := orchestrate.NewSimulator(orchCfg)
			results, err := sim.Run(context.Background())
			if err != nil {
				return err
			}
			summary := orchestrate.Aggregate(results)
			logrus.Infof("[%s] finished in %s", r.Name, time.Since(start))

			if err := writeRun(out, r.Name, r.Config, results, summary); err != nil {
				return err
			}
		}

		return nil
	},
}

// namedRun pairs a resolved RunConfig with the scenario name (or
// "default" when no scenario table is in play) it was produced from.
type namedRun struct {
	Name   string
	Config *config.RunConfig
}

// loadRuns loads the base configuration, applies any CLI overrides, and
// fans it out across the scenario table named by --scenario-file, if any.
func loadRuns(cmd *cobra.Command) ([]namedRun, error) {
	if scenarioFile == "" {
		base, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		applyOverrides(cmd, base)
		return []namedRun{{Name: "default", Config: base}}, nil
	}

	f, err := os.Open(scenarioFile)
	if err != nil {
		return nil, fmt.Errorf("opening scenario file: %w", err)
	}
	defer f.Close()

	scenarios, err := scenario.Load(configFile, f)
	if err != nil {
		return nil, err
	}

	runs := make([]namedRun, len(scenarios))
	for i, s := range scenarios {
		applyOverrides(cmd, s.Config)
		runs[i] = namedRun{Name: s.Name, Config: s.Config}
	}
	return runs, nil
}

// applyOverrides layers explicitly-set CLI flags on top of a loaded
// RunConfig, so --seed/--num-simulations/--num-consignments win over
// whatever a configuration file or scenario row set.
func applyOverrides(cmd *cobra.Command, rc *config.RunConfig) {
	if cmd.Flags().Changed("num-simulations") {
		rc.NumSimulations = numSimulations
	}
	if cmd.Flags().Changed("num-consignments") {
		rc.NumConsignments = numConsignments
	}
	if cmd.Flags().Changed("seed") {
		rc.Seed = seed
	}
}

// buildOrchestratorConfig resolves a RunConfig's consignment-generation
// method into the orchestrator's Config, reading the F280/AQIM record
// files named in the configuration when the generation method requires
// them.
func buildOrchestratorConfig(rc *config.RunConfig) (orchestrate.Config, error) {
	var f280Records []consignment.F280Record
	var aqimRecords []consignment.AQIMRecord

	switch rc.Consignment.GenerationMethod {
	case consignment.GenerationF280:
		records, err := readF280File(rc.Consignment.F280File)
		if err != nil {
			return orchestrate.Config{}, err
		}
		f280Records = records
	case consignment.GenerationAQIM:
		records, err := readAQIMFile(rc.Consignment.AQIMFile)
		if err != nil {
			return orchestrate.Config{}, err
		}
		aqimRecords = records
	}

	return orchestrate.Config{
		Consignment:          rc.Consignment,
		F280Records:          f280Records,
		AQIMRecords:          aqimRecords,
		ContaminationDefault: rc.Contamination,
		ContaminationRules:   rc.ContaminationRules,
		Inspection:           rc.Inspection,
		Release:              rc.Release,
		NumSimulations:       rc.NumSimulations,
		NumConsignments:      rc.NumConsignments,
		Seed:                 rc.Seed,
	}, nil
}

func readF280File(path string) ([]consignment.F280Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening F280 file: %w", err)
	}
	defer f.Close()
	return ioformat.ReadF280Strict(f, strictInput)
}

func readAQIMFile(path string) ([]consignment.AQIMRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening AQIM file: %w", err)
	}
	defer f.Close()
	return ioformat.ReadAQIMStrict(f, strictInput)
}

// writeRun renders one run's output: the aggregate summary always, plus
// per-consignment F280 action lines (--detailed) and/or a glyph rendering
// (--pretty) of the run's first iteration.
func writeRun(out *os.File, name string, rc *config.RunConfig, results []orchestrate.IterationResult, summary orchestrate.Summary) error {
	fmt.Fprintf(out, "=== %s ===\n", name)
	fmt.Fprintf(out, "iterations=%d consignments_per_iteration=%d\n", summary.Iterations, summary.NumConsignments)
	fmt.Fprintf(out, "mean_contamination_rate=%.4f mean_inspection_rate=%.4f mean_detection_rate=%.4f\n",
		summary.MeanContaminationRate, summary.MeanInspectionRate, summary.MeanDetectionRate)

	if len(results) == 0 {
		return nil
	}
	first := results[0]

	if detailed {
		for _, rec := range first.Records {
			action := "RELEASE"
			if rec.Inspected && rec.Observation != nil && rec.Observation.Detected {
				action = "PROHIBIT"
			}
			if err := ioformat.WriteF280(out, rec.Consignment.Date, rec.Consignment.Port, rec.Consignment.Origin, rec.Consignment.Commodity, action); err != nil {
				return err
			}
		}
	}

	if prettyMode != "" {
		mode := pretty.Mode(prettyMode)
		for _, rec := range first.Records {
			if err := pretty.Write(out, rec.Consignment, rc.Pretty, mode); err != nil {
				return err
			}
		}
	}

	return nil
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().IntVar(&numSimulations, "num-simulations", 1, "Number of independent simulation iterations to run")
	runCmd.Flags().IntVar(&numConsignments, "num-consignments", 100, "Number of consignments generated per iteration")
	runCmd.Flags().StringVar(&configFile, "config-file", "", "Path to the run configuration (YAML, JSON, or tabular)")
	runCmd.Flags().StringVar(&outputFile, "output-file", "", "Path to write results to (default stdout)")
	runCmd.Flags().StringVar(&scenarioFile, "scenario-file", "", "Path to a scenario table of configuration overrides")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for the run's random number streams")
	runCmd.Flags().StringVar(&prettyMode, "pretty", "", "Render consignments as glyphs: boxes, items, or boxes_only")
	runCmd.Flags().BoolVar(&detailed, "detailed", false, "Emit a per-consignment F280-format action line for the first iteration")
	runCmd.Flags().BoolVar(&strictInput, "strict-input", true, "Abort on the first malformed F280/AQIM row instead of skipping it")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
}
