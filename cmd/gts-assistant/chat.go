package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/cobra"

	"github.com/hans919/gts-assistant/server/service/chatbot"
)

var (
	chatSessionID string
	chatUserID    string
)

const chatHelp = `Commands:
  /summary    conversation summary
  /analytics  conversation quality signals
  /export     full conversation snapshot
  /stats      service metrics
  /reset      start over
  /quit       leave`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, release, err := newService(prof, true)
		if err != nil {
			return err
		}
		defer release()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sessionID := chatSessionID
		if sessionID == "" {
			sessionID = shortuuid.New()
		}
		return runChat(ctx, svc, cmd.InOrStdin(), cmd.OutOrStdout(), sessionID, chatUserID)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "session id (random when empty)")
	chatCmd.Flags().StringVar(&chatUserID, "user", "", "user id attached to the session")
	rootCmd.AddCommand(chatCmd)
}

// runChat reads one message per line from in until EOF, /quit or ctx ends.
func runChat(ctx context.Context, svc *chatbot.Service, in io.Reader, out io.Writer, sessionID, userID string) error {
	fmt.Fprintf(out, "Graduate portal assistant (session %s). Type /help for commands.\n", sessionID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runChatCommand(svc, out, sessionID, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		printResponse(out, svc.ProcessMessage(ctx, line, sessionID, userID))
	}
}

func runChatCommand(svc *chatbot.Service, out io.Writer, sessionID, line string) (bool, error) {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, chatHelp)
	case "/summary":
		return false, printJSON(out, svc.GetSummary(sessionID))
	case "/analytics":
		return false, printJSON(out, svc.GetAnalytics(sessionID))
	case "/export":
		return false, printJSON(out, svc.ExportConversation(sessionID))
	case "/stats":
		return false, printJSON(out, svc.Stats())
	case "/reset":
		svc.ResetSession(sessionID)
		fmt.Fprintln(out, "Conversation cleared.")
	default:
		fmt.Fprintf(out, "Unknown command %s. Type /help for commands.\n", line)
	}
	return false, nil
}

func printResponse(out io.Writer, resp *chatbot.Response) {
	fmt.Fprintln(out, resp.Content)
	if len(resp.QuickActions) > 0 {
		fmt.Fprintln(out)
		for _, a := range resp.QuickActions {
			fmt.Fprintf(out, "  [%s] %s\n", a.Label, a.Action)
		}
	}
	if len(resp.Suggestions) > 0 {
		fmt.Fprintln(out, "\nYou can also ask:")
		for i, s := range resp.Suggestions {
			fmt.Fprintf(out, "  %d. %s\n", i+1, s)
		}
	}
	if len(resp.RelatedTopics) > 0 {
		fmt.Fprintf(out, "\nRelated: %s\n", strings.Join(resp.RelatedTopics, " | "))
	}
	if resp.Debug != nil {
		fmt.Fprintf(out, "\n(intent=%s confidence=%.2f branch=%s enhanced=%t latency=%dms)\n",
			resp.Intent, resp.Confidence, resp.Debug.Branch, resp.Enhanced, resp.Debug.LatencyMS)
	}
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
