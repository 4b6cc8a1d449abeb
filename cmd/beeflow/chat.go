package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/beeflow/agent"
	"github.com/hupe1980/beeflow/console"
	"github.com/hupe1980/beeflow/session"
	"github.com/hupe1980/beeflow/tool"
	"github.com/hupe1980/beeflow/tool/search"
	"github.com/hupe1980/beeflow/tool/weather"
)

const chatInstruction = `You are a friendly assistant that answers questions about the weather and general facts.
Use get_current_weather for current conditions and web_search for everything else.
Answer in concise markdown. Today is %s.`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the weather and search agent",
	Long: `Starts an interactive loop. Every line is answered by an agent that can look up the
current weather and search the web. Type quit, exit or q (or press Ctrl-D) to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		store, err := a.store(ctx)
		if err != nil {
			return err
		}

		weatherTool, err := weather.New(weather.NewClient())
		if err != nil {
			return err
		}
		searchTool, err := search.New(search.NewClient())
		if err != nil {
			return err
		}

		stream, _ := cmd.Flags().GetBool("stream")
		out := console.NewRenderer(cmd.OutOrStdout())
		showTool := agent.NewFunctionCallback(agent.CallbackBeforeTool, func(_ context.Context, cc *agent.CallbackContext) error {
			out.Info("> %s %s", cc.ToolCall.Name, cc.ToolCall.Arguments)
			return nil
		})

		bot := agent.New("assistant", a.model, func(o *agent.Options) {
			o.Instruction = agent.NewInstructionFromFunc(func(context.Context, map[string]any) (string, error) {
				return fmt.Sprintf(chatInstruction, time.Now().Format("Monday, 2 January 2006")), nil
			})
			o.Tools = []tool.Tool{weatherTool, searchTool}
			o.Stream = stream
			o.Callbacks = []agent.Callback{showTool}
			o.Logger = a.logger
		})

		id, _ := cmd.Flags().GetString("session")
		sess := session.NewManager(store).GetOrCreate(id)

		reader, err := console.New("you> ")
		if err != nil {
			return err
		}
		defer reader.Close()

		out.Title("beeflow chat")
		out.Info("session %s, model %s. Type quit to leave.", sess.ID(), a.model.Info().Name)

		for line := range console.Prompts(reader) {
			var onDelta func(string)
			if stream {
				onDelta = func(d string) { fmt.Fprint(cmd.OutOrStdout(), d) }
			}

			ans, err := bot.Run(ctx, sess, line, func(o *agent.RunOptions) { o.OnDelta = onDelta })
			if err != nil {
				out.Error(err)
				continue
			}
			if stream {
				fmt.Fprintln(cmd.OutOrStdout())
			} else {
				out.Markdown(ans.Text)
			}
			for _, call := range ans.ToolCalls {
				a.logger.Debug("chat.tool", "tool", call.Name, "arguments", call.Arguments, "error", call.Err)
			}
		}

		out.Info("bye")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Session id to resume (useful with the redis memory backend)")
	chatCmd.Flags().Bool("stream", false, "Stream the answer token by token")
}
