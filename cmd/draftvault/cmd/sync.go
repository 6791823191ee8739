package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"draftvault/internal/manager"
)

var forceSync bool

var exportCmd = &cobra.Command{
	Use:   "export <book>",
	Short: "Upload a book to the cloud for the first time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := mgr.ExportBookToCloud(cmd.Context(), book.ID); err != nil {
			return err
		}
		fmt.Printf("Exported %q\n", book.Name)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <cloud-book-id>",
	Short: "Download a cloud book that has no local copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ImportCloudBook(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %q (%s)\n", book.Name, book.ID)
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push <book>",
	Short: "Upload local changes over the cloud copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := mgr.SyncBookWithCloud(cmd.Context(), book.ID, manager.DirectionPush, forceSync); err != nil {
			return err
		}
		fmt.Printf("Pushed %q\n", book.Name)
		return nil
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull <book>",
	Short: "Replace the local copy with the cloud copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := mgr.SyncBookWithCloud(cmd.Context(), book.ID, manager.DirectionPull, forceSync); err != nil {
			return err
		}
		fmt.Printf("Pulled %q\n", book.Name)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push every out-of-sync book",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := mgr.SyncAllOutOfSyncBooks(cmd.Context(), forceSync)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d book(s)\n", len(result.Synced))
		for _, f := range result.Failed {
			fmt.Printf("  failed %q: %v\n", f.Name, f.Err)
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d book(s) failed to sync", len(result.Failed))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{pushCmd, pullCmd, syncCmd} {
		c.Flags().BoolVar(&forceSync, "force", false, "override the conflict guard")
	}
	rootCmd.AddCommand(exportCmd, importCmd, pushCmd, pullCmd, syncCmd)
}
