package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
)

var explainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Explain what a tweak changes and why",
	Long: `Show the full documentation for one tweak: what it changes, why it can
help, and what restoring it puts back.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(_ *cobra.Command, args []string) error {
	id := args[0]

	tw, ok := catalog.Default().Get(id)
	if !ok {
		return fmt.Errorf("no tweak with id %q: run 'arcboost list' to see the catalog", id)
	}

	markdown := buildExplainMarkdown(tw)

	rendered, err := renderMarkdown(markdown)
	if err != nil {
		// Fall back to the raw markdown when the terminal renderer fails.
		fmt.Println(markdown)
		return nil
	}

	fmt.Print(rendered)
	return nil
}

// buildExplainMarkdown assembles the explain page for one tweak.
func buildExplainMarkdown(tw catalog.Tweak) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", tw.Name)
	fmt.Fprintf(&b, "**Id:** `%s`  \n", tw.ID)
	fmt.Fprintf(&b, "**Category:** %s  \n", tw.Category)
	if tw.RequiresElevation {
		b.WriteString("**Requires:** administrator  \n")
	}
	if tw.Reversible {
		b.WriteString("**Restore:** puts back the exact prior values  \n")
	} else {
		b.WriteString("**Restore:** not possible, this tweak is one-way  \n")
	}
	b.WriteString("\n")
	b.WriteString(tw.Doc)
	b.WriteString("\n")

	return b.String()
}

// renderMarkdown renders markdown for the terminal.
func renderMarkdown(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}

	return r.Render(markdown)
}
