package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/inamate/drafting/internal/document"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the sample floor plan as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(document.NewSamplePlan(project))
	},
}

func init() {
	sampleCmd.Flags().String("project", "sample", "Project id stamped on the plan")
	rootCmd.AddCommand(sampleCmd)
}
