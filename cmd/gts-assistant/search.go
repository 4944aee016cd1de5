package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, release, err := newService(prof, false)
		if err != nil {
			return err
		}
		defer release()

		results := svc.KnowledgeBase().Search(strings.Join(args, " "))
		w := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(w, "No matching entries.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(w, "%2d  %-28s %s\n", r.Score, r.Entry.ID, r.Entry.Question)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
