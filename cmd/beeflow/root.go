package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beeflow",
	Short: "beeflow runs LLM agents and step-graph workflows",
	Long: `beeflow executes named workflows made of small steps that share one state record.
It ships a weather/search chat agent, a blog writing workflow and a message router.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a beeflow.yaml configuration file")
	rootCmd.PersistentFlags().String("provider", "", "Model provider: openai, anthropic or mock")
	rootCmd.PersistentFlags().String("model", "", "Model name")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("trace", false, "Print OpenTelemetry spans to stderr")
}
