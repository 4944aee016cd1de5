package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var previousIntent string

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Show how a message would be classified",
	Long: `Classify runs the intent matcher on the given text and prints the
diagnosis as JSON: the winning intent, every candidate score, the extracted
entities and whether the text reads like a follow-up.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, release, err := newService(prof, false)
		if err != nil {
			return err
		}
		defer release()

		diagnosis := svc.TestIntent(strings.Join(args, " "), previousIntent)
		out, err := json.MarshalIndent(diagnosis, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode diagnosis: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&previousIntent, "previous", "", "previous intent used as conversation context")
	rootCmd.AddCommand(classifyCmd)
}
