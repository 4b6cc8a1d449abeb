package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/beeflow/console"
	"github.com/hupe1980/beeflow/workflow"
	"github.com/hupe1980/beeflow/workflows/blog"
	"github.com/hupe1980/beeflow/workflows/router"
)

var blogCmd = &cobra.Command{
	Use:   "blog [request...]",
	Short: "Write a blog post about a topic",
	Example: `  beeflow blog "Write a post about Go generics, mention type constraints"
  echo "A beginner guide to Redis streams" | beeflow blog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return runWorkflow(cmd, blog.Name, workflow.State{"input": text}, "output")
	},
}

var routeCmd = &cobra.Command{
	Use:     "route [message...]",
	Short:   "Classify a message and answer it with the matching specialist",
	Example: `  beeflow route "How do I detect anomalies in CPU metrics?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return runWorkflow(cmd, router.Name, workflow.State{"message": text}, "response")
	},
}

var runCmd = &cobra.Command{
	Use:   "run <workflow> [state-json]",
	Short: "Run any registered workflow with a JSON input state",
	Args:  cobra.RangeArgs(1, 2),
	Example: `  beeflow run router '{"message":"Describe this image"}'
  beeflow run blog --start planner '{"input":"x","topic":"Go"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := workflow.State{}
		raw := ""
		if len(args) == 2 {
			raw = args[1]
		} else {
			text, err := readInput(cmd, nil)
			if err != nil {
				return err
			}
			raw = text
		}
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			return fmt.Errorf("input state: %w", err)
		}
		return runWorkflow(cmd, args[0], input, "")
	},
}

// runWorkflow runs name and prints field of the final state as markdown, or
// the whole state as JSON when field is empty or --json is set.
func runWorkflow(cmd *cobra.Command, name string, input workflow.State, field string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rt, err := a.runtime()
	if err != nil {
		return err
	}

	start, _ := cmd.Flags().GetString("start")
	res, err := rt.Run(cmd.Context(), name, input, func(o *workflow.RunOptions) { o.StartAt = start })
	if err != nil {
		if st, ok := workflow.StateOf(err); ok {
			a.logger.Debug("run.failed.state", "state", map[string]any(st))
		}
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON || field == "" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"run_id": res.RunID, "steps": res.Steps, "state": res.State})
	}

	console.NewRenderer(cmd.OutOrStdout()).Markdown(res.State.String(field))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{blogCmd, routeCmd, runCmd} {
		c.Flags().String("start", "", "Start at this step instead of the first one")
		c.Flags().Bool("json", false, "Print the final state as JSON")
		rootCmd.AddCommand(c)
	}
}
