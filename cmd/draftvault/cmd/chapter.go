package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"draftvault/internal/model"
)

var chapterCmd = &cobra.Command{
	Use:   "chapters <book>",
	Short: "List a book's chapters in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTITLE\tIDEAS\tID")
		for i, ch := range book.Config.OrderedChapters() {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, ch.Title, len(book.Config.Ideas[ch.ID]), ch.ID)
		}
		return w.Flush()
	},
}

var chapterAddCmd = &cobra.Command{
	Use:   "add <book> <title>",
	Short: "Add a chapter to the end of a book",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := mgr.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ch, err := chapters.CreateChapter(cmd.Context(), book.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added chapter %q (%s)\n", ch.Title, ch.ID)
		return nil
	},
}

var chapterRenameCmd = &cobra.Command{
	Use:   "rename <book> <chapter> <new-title>",
	Short: "Rename a chapter",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return chapters.RenameChapter(cmd.Context(), book.ID, ch.ID, args[2])
	},
}

var chapterRmCmd = &cobra.Command{
	Use:   "rm <book> <chapter>",
	Short: "Delete a chapter, its content and its ideas",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return chapters.DeleteChapter(cmd.Context(), book.ID, ch.ID)
	},
}

var chapterMoveCmd = &cobra.Command{
	Use:   "move <book> <chapter> <position>",
	Short: "Move a chapter to a 1-based position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		var pos int
		if _, err := fmt.Sscanf(args[2], "%d", &pos); err != nil {
			return fmt.Errorf("position must be a number: %q", args[2])
		}
		order := moveInOrder(book.Config.ChapterOrder, ch.ID, pos-1)
		return chapters.ReorderChapters(cmd.Context(), book.ID, order)
	},
}

var showHTML bool

var showCmd = &cobra.Command{
	Use:   "show <book> <chapter>",
	Short: "Print a chapter's content as markdown or rendered HTML",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		content, err := chapters.ChapterContent(cmd.Context(), book.ID, ch.ID)
		if err != nil {
			return err
		}
		if showHTML {
			content, err = mgr.PreviewHTML(content)
			if err != nil {
				return err
			}
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <book> <chapter> [file]",
	Short: "Replace a chapter's content from a file or stdin",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, ch, err := resolveChapter(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		var content []byte
		if len(args) == 3 {
			content, err = os.ReadFile(args[2])
		} else {
			content, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}
		if err := chapters.SetChapterContent(cmd.Context(), book.ID, ch.ID, content); err != nil {
			return err
		}
		fmt.Printf("Wrote %d bytes to %q\n", len(content), ch.Title)
		return nil
	},
}

// resolveChapter finds a chapter within a book by id or exact title.
func resolveChapter(ctx context.Context, bookRef, chapterRef string) (*model.Book, *model.Chapter, error) {
	book, err := mgr.ResolveName(ctx, bookRef)
	if err != nil {
		return nil, nil, err
	}
	if ch, ok := book.Config.Chapters[chapterRef]; ok {
		return book, &ch, nil
	}
	for _, ch := range book.Config.OrderedChapters() {
		if ch.Title == chapterRef {
			return book, &ch, nil
		}
	}
	return nil, nil, fmt.Errorf("no chapter %q in book %q", chapterRef, book.Name)
}

// moveInOrder returns a copy of order with id moved to index pos, clamped to
// the valid range.
func moveInOrder(order []string, id string, pos int) []string {
	out := make([]string, 0, len(order))
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(out) {
		pos = len(out)
	}
	out = append(out[:pos], append([]string{id}, out[pos:]...)...)
	return out
}

func init() {
	chapterCmd.AddCommand(chapterAddCmd, chapterRenameCmd, chapterRmCmd, chapterMoveCmd)
	showCmd.Flags().BoolVar(&showHTML, "html", false, "render the chapter to HTML")
	rootCmd.AddCommand(chapterCmd, showCmd, writeCmd)
}
