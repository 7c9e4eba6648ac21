package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/llm"
	"github.com/rcliao/memstore/internal/memory"
)

const chatSystemPrompt = "You are a helpful assistant. Use the provided memories when they are relevant."

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the chat model, with matching memories as context",
		Long: "Send a message to the configured chat model. Records matching the message " +
			"are packed into the system prompt unless --no-context is set.",
		Run: runChat,
	}

	cmd.Flags().StringP("system", "s", chatSystemPrompt, "System prompt")
	cmd.Flags().Bool("no-context", false, "Do not include stored memories")
	cmd.Flags().IntP("budget", "b", 0, "Token budget for memories (default: context.budget)")

	RootCmd.AddCommand(cmd)
}

type chatResponse struct {
	Model    string `json:"model,omitempty"`
	Memories int    `json:"memories"`
	Answer   string `json:"answer"`
}

func runChat(cmd *cobra.Command, args []string) {
	system, _ := cmd.Flags().GetString("system")
	noContext, _ := cmd.Flags().GetBool("no-context")
	budget, _ := cmd.Flags().GetInt("budget")

	message, err := readInput(args)
	if err != nil {
		exitErr("chat", err)
	}
	if strings.TrimSpace(message) == "" {
		exitErr("chat", fmt.Errorf("message is required (positional arg or stdin)"))
	}

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	resp := chatResponse{}
	if !noContext {
		result := m.Context(memory.ContextParams{Query: message, Budget: budget})
		if len(result.Records) > 0 {
			var b strings.Builder
			b.WriteString(system)
			b.WriteString("\n\nMemories:")
			for _, r := range result.Records {
				fmt.Fprintf(&b, "\n- (%s) %s", r.Category, r.Content)
			}
			system = b.String()
		}
		resp.Memories = len(result.Records)
	}

	answer, err := m.ChatGenerate(cmd.Context(), system, []llm.Message{{Role: "user", Content: message}})
	if err != nil {
		exitErr("chat", err)
	}
	resp.Answer = answer
	output(resp, func() string { return answer })
}
