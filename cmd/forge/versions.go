package main

import (
	"fmt"

	"appforge/internal/filestore"
	"appforge/internal/version"

	"github.com/spf13/cobra"
)

// versionsCmd lists, shows, and restores version snapshots.
var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Inspect and restore version snapshots",
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all snapshots of the app",
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := version.NewStore(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer versions.Close()

		list, err := versions.List(appID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No versions yet.")
			return nil
		}
		for _, snap := range list {
			fmt.Printf("%-10s %s  %d files  %s\n",
				snap.Version, snap.CreatedAt.Format("2006-01-02 15:04"), len(snap.Files), snap.Changelog)
		}
		return nil
	},
}

var versionsShowCmd = &cobra.Command{
	Use:   "show [version]",
	Short: "Show the files and actions of one snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := version.NewStore(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer versions.Close()

		snap, err := versions.Get(appID, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Version %s (%s)\n", snap.Version, snap.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Changelog: %s\n\n", snap.Changelog)
		for _, action := range snap.Actions {
			fmt.Printf("  %s %s\n", action.Action, action.Path)
		}
		fmt.Printf("\n%d files in snapshot\n", len(snap.Files))
		return nil
	},
}

var versionsRestoreCmd = &cobra.Command{
	Use:   "restore [version]",
	Short: "Restore the app's files to a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := version.NewStore(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer versions.Close()

		store, err := filestore.NewStore(cfg.Storage.DatabasePath, appID)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := versions.Restore(appID, args[0], store); err != nil {
			return err
		}
		fmt.Printf("Restored app %s to version %s\n", appID, args[0])
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past orchestration runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		versions, err := version.NewStore(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer versions.Close()

		runs, err := versions.ListRuns(appID)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs yet.")
			return nil
		}
		for _, rec := range runs {
			fmt.Printf("%s  %-6s  %2d turns  %3d calls  %s\n",
				rec.CreatedAt.Format("2006-01-02 15:04"), rec.Status, rec.Turns, rec.ToolCalls, rec.Message)
		}
		return nil
	},
}

func init() {
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsRestoreCmd)
	versionsCmd.AddCommand(runsCmd)
}
