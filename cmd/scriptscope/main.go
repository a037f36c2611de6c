package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/catalog"
	"github.com/0xlayer/scriptscope/internal/pipeline"
	"github.com/0xlayer/scriptscope/internal/reporter"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	format      string
	outputFile  string
	minSeverity string
	catalogPath string
	requestID   string
	quiet       bool
)

// exitCode is decided by run and applied in main, after the report writer
// has been closed.
var exitCode int

func main() {
	rootCmd := &cobra.Command{
		Use:   "scriptscope [file]",
		Short: "Statically analyze suspected beacon payload scripts",
		Long: fmt.Sprintf(`scriptscope deobfuscates and classifies suspicious scripts without
executing them: it measures entropy, unwraps base64/XOR/concatenation
layers, fingerprints C2 frameworks, extracts beacon configuration,
and produces a weighted risk verdict with indicators of compromise.

Pass a file path, or - to read the script from stdin.

Build Info: Commit %s, Date %s

Examples:  scriptscope payload.ps1
  scriptscope payload.ps1 --format json --output report.json
  cat dropper.ps1 | scriptscope - --min-severity high
  scriptscope payload.ps1 --catalog extra-signatures.yaml`, commit, date),
		Version:      version,
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, pdf")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the report to a file instead of stdout")
	rootCmd.Flags().StringVarP(&minSeverity, "min-severity", "s", "info", "hide findings below this severity in text/pdf output")
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML file with extra catalogue signatures")
	rootCmd.Flags().StringVar(&requestID, "id", "", "correlation identifier echoed into the report")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(newListEnginesCmd())
	rootCmd.AddCommand(newMcpCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
	os.Exit(exitCode)
}

func run(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}

	minSev, err := analyzer.ParseSeverity(minSeverity)
	if err != nil {
		return err
	}

	p, err := buildPipeline()
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(os.Stderr, "analyzing %d bytes...\n", len(data))
	}

	result := p.Analyze(pipeline.Request{ID: requestID, Data: data})

	out := io.Writer(os.Stdout)
	var file *os.File
	if outputFile != "" {
		file, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		out = file
	}

	renderErr := reporter.New(out, reporter.Format(format), minSev).Render(result)
	if file != nil {
		if closeErr := file.Close(); renderErr == nil && closeErr != nil {
			renderErr = fmt.Errorf("close output file: %w", closeErr)
		}
	}
	if renderErr != nil {
		return renderErr
	}

	// Medium-or-worse verdicts flip the exit code so CI and triage scripts
	// can gate on it without parsing the report.
	exitCode = exitCodeFor(result.Risk.Level)
	return nil
}

func exitCodeFor(level analyzer.Severity) int {
	if level >= analyzer.SeverityMedium {
		return 1
	}
	return 0
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func buildPipeline() (*pipeline.Pipeline, error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cat)
}

func newListEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-engines",
		Short: "List deobfuscation engines and classifier tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			// Run a probe so the metadata lists exactly what a real
			// analysis would use.
			result := p.Analyze(pipeline.Request{Data: []byte{}})
			fmt.Println("Deobfuscation engines:")
			for _, name := range result.Meta.Engines {
				fmt.Println("  -", name)
			}
			fmt.Println("Classifier categories:")
			for _, c := range []string{
				catalog.CategoryNetwork, catalog.CategoryFileOps, catalog.CategoryRegistry,
				catalog.CategoryProcess, catalog.CategoryMalicious, catalog.CategoryEvasion,
			} {
				fmt.Println("  -", c)
			}
			return nil
		},
	}
}
