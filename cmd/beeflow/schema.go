package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <workflow>",
	Short: "Print the steps and JSON schemas of a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Describing a workflow never calls the model.
		if err := cmd.Flags().Set("provider", "mock"); err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rt, err := a.runtime()
		if err != nil {
			return err
		}
		wf, ok := rt.Workflow(args[0])
		if !ok {
			return fmt.Errorf("unknown workflow %q, available: %v", args[0], rt.Names())
		}

		type step struct {
			Name        string   `json:"name"`
			Description string   `json:"description,omitempty"`
			Requires    []string `json:"requires,omitempty"`
		}
		out := map[string]any{"name": wf.Name(), "max_steps": wf.MaxSteps()}
		var steps []step
		for _, n := range wf.Steps() {
			s, _ := wf.Step(n)
			steps = append(steps, step{Name: s.Name, Description: s.Description, Requires: s.Requires})
		}
		out["steps"] = steps
		if s := wf.InputSchema(); s != nil {
			out["input_schema"] = s.Document()
		}
		if s := wf.OutputSchema(); s != nil {
			out["output_schema"] = s.Document()
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the beeflow version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "beeflow %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd, versionCmd)
}
