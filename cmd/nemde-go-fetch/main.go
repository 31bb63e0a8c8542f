// Copyright (c) 2024 Akxen Labs

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/neomantra/ymdflag"
	"github.com/relvacode/iso8601"
	"github.com/spf13/cobra"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/internal/casedb"
	"github.com/akxen/nemde-go/nemweb"
)

///////////////////////////////////////////////////////////////////////////////

var (
	verbose bool

	baseURL  string
	destDir  string
	dbPath   string
	dateFlag ymdflag.YMDFlag
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func main() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Archive base URL (default: NEMWEB)")

	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().VarP(&dateFlag, "date", "d", "Archive date as YYYYMMDD")
	archiveCmd.MarkFlagRequired("date")
	archiveCmd.Flags().StringVar(&destDir, "dest", "", "Destination directory for extracted casefiles")
	archiveCmd.Flags().StringVar(&dbPath, "db", "", "Store extracted casefiles into this database")

	rootCmd.AddCommand(caseCmd)
	caseCmd.Flags().StringVarP(&destDir, "dest", "o", ".", "Destination directory")

	rootCmd.AddCommand(intervalCmd)
	intervalCmd.Flags().StringVarP(&destDir, "dest", "o", ".", "Destination directory")

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "nemde-go-fetch",
	Short: "nemde-go-fetch downloads NEMDE casefiles from the NEMWEB archive",
	Long:  "nemde-go-fetch downloads NEMDE casefiles from the NEMWEB archive",
}

///////////////////////////////////////////////////////////////////////////////

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: `Fetches a day's casefile archive and extracts every interval`,
	Long:  `Fetches a day's casefile archive and extracts every interval`,
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(fetchArchive())
	},
}

func fetchArchive() error {
	if destDir == "" && dbPath == "" {
		return fmt.Errorf("one of --dest or --db is required")
	}

	client := nemweb.NewClient(baseURL)
	entries, err := client.FetchArchive(dateFlag.AsTime())
	if err != nil {
		return err
	}

	var store *casedb.Store
	if dbPath != "" {
		if store, err = casedb.Open(dbPath); err != nil {
			return err
		}
		defer store.Close()
	}

	total := 0
	for _, entry := range entries {
		if destDir != "" {
			name := filepath.Join(destDir, entry.CaseID+".json.zst")
			if err := writeCompressed(name, entry.Data); err != nil {
				return err
			}
		}
		if store != nil {
			if err := store.PutCasefile(entry.CaseID, entry.Data); err != nil {
				return err
			}
		}
		total += len(entry.Data)
		if verbose {
			fmt.Fprintf(os.Stderr, "fetched %s (%s)\n", entry.CaseID, humanize.Bytes(uint64(len(entry.Data))))
		}
	}
	fmt.Fprintf(os.Stderr, "fetched %s casefiles (%s)\n",
		humanize.Comma(int64(len(entries))), humanize.Bytes(uint64(total)))
	return nil
}

func writeCompressed(filename string, data []byte) error {
	return nemde.WriteDocumentFile(filename, data)
}

///////////////////////////////////////////////////////////////////////////////

var intervalCmd = &cobra.Command{
	Use:   "interval <iso8601-time>...",
	Short: `Fetches the casefile for the dispatch interval ending at a timestamp`,
	Long: `Fetches the casefile for the dispatch interval ending at a timestamp.

For example "2020-11-01T04:05:00+10:00" resolves to interval 49 of that day.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := nemweb.NewClient(baseURL)
		for _, arg := range args {
			t, err := iso8601.ParseString(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: parsing %s: %s\n", arg, err.Error())
				continue
			}
			caseID := nemweb.CaseIDForTime(t)
			data, err := client.FetchCasefile(caseID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: fetching %s: %s\n", caseID, err.Error())
				continue
			}
			name := filepath.Join(destDir, caseID+".json.zst")
			if err := writeCompressed(name, data); err != nil {
				fmt.Fprintf(os.Stderr, "error: writing %s: %s\n", name, err.Error())
			}
		}
	},
}

var caseCmd = &cobra.Command{
	Use:   "case <case_id>...",
	Short: `Fetches individual casefiles by YYYYMMDDNNN case id`,
	Long:  `Fetches individual casefiles by YYYYMMDDNNN case id`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := nemweb.NewClient(baseURL)
		for _, caseID := range args {
			data, err := client.FetchCasefile(caseID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: fetching %s: %s\n", caseID, err.Error())
				continue
			}
			name := filepath.Join(destDir, caseID+".json.zst")
			if err := writeCompressed(name, data); err != nil {
				fmt.Fprintf(os.Stderr, "error: writing %s: %s\n", name, err.Error())
			}
		}
	},
}
