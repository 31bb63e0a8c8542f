// Copyright (c) 2024 Akxen Labs

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/engine"
	"github.com/akxen/nemde-go/internal/casedb"
	"github.com/akxen/nemde-go/internal/report"
)

///////////////////////////////////////////////////////////////////////////////

var (
	verbose bool

	dbPath         string
	runMode        string
	solutionFormat string
	outFile        string
	patchFile      string
	forceZstdInput bool
	reportDir      string
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

func requireNoErrorWithoutPrint(err error) {
	if err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func main() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Casefile store database path")

	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVarP(&runMode, "mode", "m", "physical", "Run mode: physical or pricing")
	solveCmd.Flags().StringVarP(&solutionFormat, "format", "f", "standard", "Solution format: standard or validation")
	solveCmd.Flags().StringVarP(&outFile, "out", "o", "-", "Output file (- for stdout)")
	solveCmd.Flags().StringVarP(&patchFile, "patch", "p", "", "JSON file with casefile patches")
	solveCmd.Flags().BoolVarP(&forceZstdInput, "zstd", "z", false, "Input is zstd (useful for handling zstd on stdin)")
	solveCmd.Flags().StringVar(&reportDir, "report-dir", "", "Also write CSV/Parquet report tables to this directory")

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&outFile, "out", "o", "-", "Output file (- for stdout)")

	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storePutCmd)
	storeCmd.AddCommand(storeListCmd)

	err := rootCmd.Execute()
	requireNoErrorWithoutPrint(err)
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "nemde-go-solve",
	Short: "nemde-go-solve runs the NEMDE dispatch model over casefiles",
	Long:  "nemde-go-solve runs the NEMDE dispatch model over casefiles",
}

///////////////////////////////////////////////////////////////////////////////

var solveCmd = &cobra.Command{
	Use:   "solve <casefile|case_id>",
	Short: `Solves one dispatch interval casefile`,
	Long: `Solves one dispatch interval casefile.

The argument is a casefile JSON path ("-" for stdin, ".zst" handled) or,
with --db, a stored case id.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(solveOne(args[0]))
	},
}

func solveOne(source string) error {
	eng := &engine.Engine{}
	if dbPath != "" {
		store, err := casedb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		eng.Store = store
	}

	input := engine.UserInput{
		Options: engine.Options{
			RunMode:        runMode,
			SolutionFormat: solutionFormat,
		},
	}
	if dbPath != "" && looksLikeCaseID(source) {
		input.CaseID = source
	} else {
		caseData, err := readCasefile(source)
		if err != nil {
			return err
		}
		input.CaseData = caseData
	}
	if patchFile != "" {
		if input.CaseID == "" {
			return fmt.Errorf("--patch requires solving by case id")
		}
		patches, err := readPatches(patchFile)
		if err != nil {
			return err
		}
		input.Patches = patches
	}

	request, err := json.Marshal(&input)
	if err != nil {
		return err
	}
	result, err := eng.Run(request)
	if err != nil {
		return err
	}

	output, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := writeOutput(outFile, output); err != nil {
		return err
	}

	if verbose && result.Standard != nil {
		printSummary(result.Standard)
	}
	if reportDir != "" && result.Standard != nil {
		if err := writeReports(reportDir, result.Standard); err != nil {
			return err
		}
	}
	return nil
}

func looksLikeCaseID(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func readCasefile(filename string) ([]byte, error) {
	return nemde.ReadDocumentFile(filename, forceZstdInput)
}

func readPatches(filename string) ([]nemde.Patch, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var patches []nemde.Patch
	if err := json.Unmarshal(data, &patches); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return patches, nil
}

func writeOutput(filename string, data []byte) error {
	return nemde.WriteDocumentFile(filename, append(data, '\n'))
}

func printSummary(sol *nemde.Solution) {
	fmt.Fprintf(os.Stderr, "case %s: objective %s  traders %s  regions %d\n",
		sol.PeriodSolution.CaseID,
		humanize.CommafWithDigits(sol.PeriodSolution.TotalObjective, 2),
		humanize.Comma(int64(len(sol.TraderSolution))),
		len(sol.RegionSolution))
	for _, r := range sol.RegionSolution {
		fmt.Fprintf(os.Stderr, "  %-5s fixed %10.2f  cleared %10.2f  export %8.2f  surplus %6.2f\n",
			r.RegionID, r.FixedDemand, r.ClearedDemand, r.NetExport, r.SurplusGeneration)
	}
	for _, w := range sol.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}
}

func writeReports(dir string, sol *nemde.Solution) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	caseID := sol.PeriodSolution.CaseID

	writers := []struct {
		name  string
		write func(io.Writer, *nemde.Solution) error
	}{
		{caseID + "_regions.csv", report.WriteRegionCSV},
		{caseID + "_traders.csv", report.WriteTraderCSV},
		{caseID + "_interconnectors.csv", report.WriteInterconnectorCSV},
		{caseID + "_traders.parquet", report.WriteTraderParquet},
		{caseID + "_regions.parquet", report.WriteRegionParquet},
	}
	for _, w := range writers {
		f, err := os.Create(filepath.Join(dir, w.name))
		if err != nil {
			return err
		}
		if err := w.write(f, sol); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

var runCmd = &cobra.Command{
	Use:   "run <user-input.json>",
	Short: `Runs a full user-input document (case_id/case_data, patches, options)`,
	Long:  `Runs a full user-input document (case_id/case_data, patches, options)`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(runUserInput(args[0]))
	},
}

func runUserInput(filename string) error {
	request, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	eng := &engine.Engine{}
	if dbPath != "" {
		store, err := casedb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		eng.Store = store
	}

	result, err := eng.Run(request)
	if err != nil {
		return err
	}
	output, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return writeOutput(outFile, output)
}

///////////////////////////////////////////////////////////////////////////////

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: `Manages the casefile store`,
	Long:  `Manages the casefile store`,
}

var storePutCmd = &cobra.Command{
	Use:   "put <case_id> <casefile>",
	Short: `Stores a casefile under the given case id`,
	Long:  `Stores a casefile under the given case id`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(storePut(args[0], args[1]))
	},
}

func storePut(caseID, filename string) error {
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	data, err := readCasefile(filename)
	if err != nil {
		return err
	}
	store, err := casedb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.PutCasefile(caseID, data); err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "stored %s (%s)\n", caseID, humanize.Bytes(uint64(len(data))))
	}
	return nil
}

var storeListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: `Lists stored case ids, optionally by YYYYMMDD prefix`,
	Long:  `Lists stored case ids, optionally by YYYYMMDD prefix`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		requireNoError(storeList(prefix))
	},
}

func storeList(prefix string) error {
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	store, err := casedb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	ids, err := store.ListCases(prefix)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}
