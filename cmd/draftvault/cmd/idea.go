package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ideaCmd = &cobra.Command{
	Use:   "idea <book> <chapter>",
	Short: "List a chapter's ideas in order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		list, err := ideas.Ideas(cmd.Context(), book.ID, ch.ID)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTEXT\tID")
		for _, idea := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\n", idea.Order+1, idea.Text, idea.ID)
		}
		return w.Flush()
	},
}

var ideaAddCmd = &cobra.Command{
	Use:   "add <book> <chapter> <text>",
	Short: "Append an idea to a chapter",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		idea, err := ideas.AddIdea(cmd.Context(), book.ID, ch.ID, args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Added idea %s\n", idea.ID)
		return nil
	},
}

var ideaEditCmd = &cobra.Command{
	Use:   "edit <book> <chapter> <idea-id> <text>",
	Short: "Replace an idea's text",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return ideas.UpdateIdea(cmd.Context(), book.ID, ch.ID, args[2], args[3])
	},
}

var ideaRmCmd = &cobra.Command{
	Use:   "rm <book> <chapter> <idea-id>",
	Short: "Delete an idea",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return ideas.DeleteIdea(cmd.Context(), book.ID, ch.ID, args[2])
	},
}

var ideaMoveCmd = &cobra.Command{
	Use:   "move <book> <chapter> <idea-id> <position>",
	Short: "Move an idea to a 1-based position",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		list, err := ideas.Ideas(cmd.Context(), book.ID, ch.ID)
		if err != nil {
			return err
		}
		var pos int
		if _, err := fmt.Sscanf(args[3], "%d", &pos); err != nil {
			return fmt.Errorf("position must be a number: %q", args[3])
		}
		order := make([]string, 0, len(list))
		for _, idea := range list {
			order = append(order, idea.ID)
		}
		order = moveInOrder(order, args[2], pos-1)
		return ideas.ReorderIdeas(cmd.Context(), book.ID, ch.ID, order)
	},
}

func init() {
	ideaCmd.AddCommand(ideaAddCmd, ideaEditCmd, ideaRmCmd, ideaMoveCmd)
	rootCmd.AddCommand(ideaCmd)
}
