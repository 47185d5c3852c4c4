package main

import (
	"fmt"

	"appforge/internal/filestore"

	"github.com/spf13/cobra"
)

// filesCmd inspects the app's file store directly.
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect the app's stored files",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all files of the app",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := filestore.NewStore(cfg.Storage.DatabasePath, appID)
		if err != nil {
			return err
		}
		defer store.Close()

		files := store.List()
		if len(files) == 0 {
			fmt.Println("No files yet.")
			return nil
		}
		for _, f := range files {
			entry := ""
			if f.IsEntryPoint {
				entry = "  (entry point)"
			}
			fmt.Printf("%-40s %-5s %7d bytes%s\n", f.Path, f.ContentType, f.SizeBytes, entry)
		}
		return nil
	},
}

var filesCatCmd = &cobra.Command{
	Use:   "cat [path]",
	Short: "Print the content of one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := filestore.NewStore(cfg.Storage.DatabasePath, appID)
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := store.Read(args[0])
		if err != nil {
			return err
		}
		fmt.Print(f.Content)
		if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
			fmt.Println()
		}
		return nil
	},
}

var filesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search file contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := filestore.NewStore(cfg.Storage.DatabasePath, appID)
		if err != nil {
			return err
		}
		defer store.Close()

		matches, err := store.Search(cmd.Context(), args[0], filestore.SearchOptions{
			MaxResults: cfg.Limits.SearchMaxResults,
		})
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Printf("%s:%d: %s\n", m.Path, m.LineNumber, m.LineText)
		}
		return nil
	},
}

func init() {
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesCatCmd)
	filesCmd.AddCommand(filesSearchCmd)
}
