package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"resumerag/internal/domain"
)

var (
	askQuestion    string
	askInteractive bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about the ingested resumes",
	Long: `Answer a question from the ingested resumes with chunk-id citations.
When the retrieved evidence is too weak the answer is a refusal with the reason.

With --interactive, questions are read from stdin one per line and earlier
exchanges are passed along as conversation context.

Examples:
  resumerag ask -q "Which candidates know Go?"
  resumerag ask -i`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "read questions from stdin")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askQuestion == "" && !askInteractive {
		return fmt.Errorf("either --question or --interactive is required")
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if !askInteractive {
		answer, err := a.service.Answer(ctx, askQuestion)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	}

	var history []domain.Turn
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			fmt.Print("> ")
			continue
		}

		answer, err := a.service.Answer(ctx, question, history...)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n> ", answer)

		history = append(history,
			domain.Turn{Role: "user", Content: question},
			domain.Turn{Role: "assistant", Content: answer},
		)
	}
	fmt.Println()
	return scanner.Err()
}
