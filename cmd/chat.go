package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mailpilot/mailpilot/internal/agent"
	"github.com/mailpilot/mailpilot/internal/server"
)

func newChatCmd() *cobra.Command {
	var metricsAddr, emailContext string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive session with the email assistant",
		Long: `Open an interactive websocket session with the email assistant.

Lines you type are sent as chat messages. Two slash commands drive the
assistant's email workflows directly:

  /process <email-id> <summarize|extract_tasks|categorize>
  /draft <email-id> [tone]

Exit with /quit, Ctrl-D or Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, metricsAddr, emailContext)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while chatting")
	cmd.Flags().StringVar(&emailContext, "email-context", "", "Inbox email id the conversation is about")
	return cmd
}

func runChat(cmd *cobra.Command, metricsAddr, emailContext string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	if metricsAddr == "" {
		metricsAddr = a.cfg.Metrics.Addr
	}
	if metricsAddr != "" && a.instr.Enabled() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			InstrumentationProvider: a.instr,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
		fmt.Fprintf(os.Stderr, "Serving metrics on %s\n", metricsServer.Addr())
	}

	channel, err := agent.Dial(ctx, a.cfg.API.BaseURL, "", a.session, a.logger)
	if err != nil {
		return a.fail(ctx, err)
	}
	defer channel.Close()

	metrics := a.instr.Metrics()
	metrics.SessionStarted(ctx)
	defer metrics.SessionEnded(context.Background())

	fmt.Println("Connected to the email assistant. Type a message, /process, /draft or /quit.")

	// Responses are rendered from their own goroutine so a slow reply
	// never blocks the input prompt.
	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		for msg := range channel.Messages() {
			metrics.RecordAgentMessage(ctx, msg.Type)
			renderAgentMessage(msg)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		if err := sendChatLine(channel, line, emailContext); err != nil {
			return a.fail(ctx, err)
		}
		metrics.RecordAgentMessage(ctx, agent.TypeChat)

		if ctx.Err() != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read input: %w", err)
	}

	channel.Close()
	<-renderDone

	if err := channel.Err(); err != nil {
		return a.fail(ctx, err)
	}
	return nil
}

// sendChatLine maps one input line onto a websocket frame.
func sendChatLine(channel *agent.Channel, line, emailContext string) error {
	if !strings.HasPrefix(line, "/") {
		return channel.SendChat(line, emailContext)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/process":
		if len(fields) != 3 {
			fmt.Println("usage: /process <email-id> <summarize|extract_tasks|categorize>")
			return nil
		}
		return channel.RequestProcessing(fields[1], fields[2])
	case "/draft":
		if len(fields) < 2 {
			fmt.Println("usage: /draft <email-id> [tone]")
			return nil
		}
		tone, instructions := "", ""
		if len(fields) > 2 {
			tone = fields[2]
		}
		if len(fields) > 3 {
			instructions = strings.Join(fields[3:], " ")
		}
		return channel.RequestDraft(fields[1], tone, instructions)
	default:
		fmt.Printf("unknown command %s\n", fields[0])
		return nil
	}
}

func renderAgentMessage(msg agent.Message) {
	switch msg.Type {
	case agent.TypeChatResponse:
		fmt.Printf("\nassistant> %s\n", msg.Text)
	case agent.TypeProcessingResult:
		fmt.Printf("\n[%s on %s]\n%s\n", msg.Action, msg.EmailID, msg.Result)
	case agent.TypeDraftGenerated:
		fmt.Printf("\n[draft generated]\n%s\n", string(msg.Draft))
	case agent.TypeError:
		fmt.Printf("\n[assistant error] %s\n", msg.Text)
	default:
		fmt.Printf("\n[%s] %s\n", msg.Type, msg.Text)
	}
}
