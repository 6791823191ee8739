package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"draftvault/internal/manager"
)

var listCloud bool

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new local book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.CreateLocalBook(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created %q (%s)\n", book.Name, book.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listCloud {
			return printCloudBooks(cmd)
		}
		summaries, err := mgr.ListBooks(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATUS\tCHAPTERS\tWORDS\tMODIFIED\tID")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
				s.Name, s.SyncStatus, s.Chapters, s.Words,
				s.LocalLastModified.Local().Format("2006-01-02 15:04"), s.ID)
		}
		return w.Flush()
	},
}

func printCloudBooks(cmd *cobra.Command) error {
	books, err := mgr.ListCloudBooks(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODIFIED\tVERSION\tIMPORTABLE\tID")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
			b.Name, b.LastModified.Local().Format("2006-01-02 15:04"), b.Version, b.Importable, b.ID)
	}
	return w.Flush()
}

var renameCmd = &cobra.Command{
	Use:   "rename <book> <new-name>",
	Short: "Rename a book",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := mgr.RenameBook(cmd.Context(), book.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed %q to %q\n", book.Name, args[1])
		return nil
	},
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <book> <new-name>",
	Short: "Duplicate a book under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		dup, err := mgr.DuplicateBook(cmd.Context(), book.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Duplicated %q as %q (%s)\n", book.Name, dup.Name, dup.ID)
		return nil
	},
}

var deleteScope string

var deleteCmd = &cobra.Command{
	Use:   "delete <book>",
	Short: "Delete a book's local copy, cloud copy, or both",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		scope := manager.DeleteScope(deleteScope)
		if err := mgr.DeleteBook(cmd.Context(), book.ID, scope); err != nil {
			return err
		}
		fmt.Printf("Deleted %q (%s scope)\n", book.Name, scope)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and pending changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Signed in:   %v\n", mgr.SignedIn())
		fmt.Printf("Sync gate:   %s\n", mgr.GateState())
		fmt.Printf("Auto sync:   %v\n", settings.SyncEnabled && settings.AutoSync)

		pending, err := mgr.PendingChanges(cmd.Context())
		if err != nil {
			return err
		}
		if len(pending.Books) == 0 && len(pending.Chapters) == 0 {
			fmt.Println("Nothing to push.")
			return nil
		}
		if len(pending.Books) > 0 {
			fmt.Println("Out of sync books:")
			for _, name := range pending.Books {
				fmt.Printf("  %s\n", name)
			}
		}
		if len(pending.Chapters) > 0 {
			fmt.Printf("Pending chapter files: %d\n", len(pending.Chapters))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listCloud, "cloud", false, "list books in the cloud index instead of local books")
	deleteCmd.Flags().StringVar(&deleteScope, "scope", string(manager.DeleteLocal), "local, cloud, or both")
	rootCmd.AddCommand(createCmd, listCmd, renameCmd, duplicateCmd, deleteCmd, statusCmd)
}
