package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/scam-shield/backend/internal/model/fraud"
)

const categoriesShortDesc string = "Print the built-in fraud knowledge base"

type categoriesCommander struct {
	asJSON bool
	advice bool
}

func newCategoriesCmd() *cobra.Command {
	cmder := &categoriesCommander{}

	cmd := &cobra.Command{
		Use:   "categories [id]",
		Short: categoriesShortDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return cmder.run(cmd.OutOrStdout(), fraud.Seed(), id)
		},
	}
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print JSON instead of text")
	cmd.Flags().BoolVar(&cmder.advice, "advice", false, "Also print what to do after being defrauded")
	return cmd
}

func (c *categoriesCommander) run(w io.Writer, store fraud.Store, id string) error {
	items := store.List()
	if id != "" {
		item, ok := store.FindByID(id)
		if !ok {
			return fmt.Errorf("category %q not found", id)
		}
		items = []fraud.Category{item}
	}

	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if c.advice {
			return enc.Encode(map[string]any{"categories": items, "advice": store.Advice()})
		}
		return enc.Encode(items)
	}

	for _, item := range items {
		fmt.Fprintf(w, "%s [%s]\n  %s\n", item.Title, item.ID, item.ShortDescription)
		if id != "" {
			fmt.Fprintf(w, "\n%s\n", item.LongDescription)
		}
	}
	if c.advice {
		fmt.Fprintln(w)
		for i, a := range store.Advice() {
			fmt.Fprintf(w, "%d. %s\n", i+1, a.Text)
		}
	}
	return nil
}
