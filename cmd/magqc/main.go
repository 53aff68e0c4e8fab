package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aerogeophys/magqc/pkg/logger"
	"github.com/aerogeophys/magqc/pkg/pipeline"
	"github.com/aerogeophys/magqc/pkg/survey"

	// Import the built-in QC filters to register them
	_ "github.com/aerogeophys/magqc/pkg/filters"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	viper.SetEnvPrefix("MAGQC")
	viper.AutomaticEnv()
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_encoding", "json")

	root := &cobra.Command{
		Use:   "magqc",
		Short: "magqc - airborne magnetic survey QC pipelines",
		Long: `magqc runs declarative QC analysis pipelines over airborne magnetic
survey datasets: diurnal chord deviation, drape and clearance segment
extraction, and fourth-difference noise detection, with per-line summary
artifacts written alongside the processed dataset.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("magqc v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available pipeline filters",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available filters:")
			for _, name := range pipeline.List() {
				fmt.Printf("  - %s\n", name)
			}
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "describe <pipeline.yaml>",
		Short: "Parse a pipeline document and print its resolved steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describePipeline(args[0])
		},
	})

	var pipelineFile, dataFile, outDir, logLevel string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a QC pipeline over a survey dataset",
		Long: `Run a QC pipeline over a survey dataset.
The pipeline is a YAML document with an ordered steps sequence; the dataset
is a .mag.zip archive or a bare CSV sample table.

Example:
  magqc run --pipeline qc.yaml --data survey.mag.zip --out ./qc-out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(pipelineFile, dataFile, outDir)
		},
	}

	runCmd.Flags().StringVarP(&pipelineFile, "pipeline", "p", "", "Path to pipeline YAML document (required)")
	runCmd.Flags().StringVarP(&dataFile, "data", "d", "", "Path to survey dataset (.mag.zip or .csv) (required)")
	_ = runCmd.MarkFlagRequired("pipeline")
	_ = runCmd.MarkFlagRequired("data")

	runCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory; overrides the pipeline's out_path")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log_level", runCmd.Flags().Lookup("log-level"))

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// describePipeline prints a parsed pipeline as JSON for inspection: resolved
// step names with their parameters, plus the top-level parameters.
func describePipeline(path string) error {
	spec, err := pipeline.LoadSpec(path)
	if err != nil {
		return err
	}

	doc := struct {
		Steps  []pipeline.Step        `json:"steps"`
		Params map[string]interface{} `json:"params,omitempty"`
	}{Steps: spec.Steps, Params: spec.Params}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// runPipeline loads the dataset and pipeline, executes the steps, and saves
// the processed dataset into the output directory.
func runPipeline(pipelineFile, dataFile, outDir string) error {
	if err := logger.Init(logger.Config{
		Level:    viper.GetString("log_level"),
		Encoding: viper.GetString("log_encoding"),
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.With(zap.String("component", "magqc-cli"))

	spec, err := pipeline.LoadSpec(pipelineFile)
	if err != nil {
		return err
	}
	if outDir != "" {
		spec.Params["out_path"] = outDir
	}

	ds, err := survey.Load(dataFile)
	if err != nil {
		return err
	}
	log.Info("loaded dataset",
		zap.String("path", dataFile),
		zap.Int("rows", ds.NumRows()),
		zap.Int("lines", len(ds.Lines())),
		zap.Int("steps", len(spec.Steps)))

	exec := pipeline.NewExecutor(spec, nil, log)
	out, err := exec.Run(ds)
	if err != nil {
		return err
	}

	dir := "."
	if v, ok := spec.Params["out_path"].(string); ok && v != "" {
		dir = v
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(dir, outputName(dataFile))
	if err := out.Save(dest); err != nil {
		return err
	}

	log.Info("pipeline completed",
		zap.String("output", dest),
		zap.Int("rows", out.NumRows()),
		zap.Int("lines", len(out.Lines())))
	return nil
}

// outputName derives the processed archive name from the input dataset name.
func outputName(dataFile string) string {
	base := filepath.Base(dataFile)
	if strings.HasSuffix(base, survey.ArchiveSuffix) {
		base = strings.TrimSuffix(base, survey.ArchiveSuffix)
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base + survey.ArchiveSuffix
}
