package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.service.ListDocuments(cmd.Context())
		if err != nil {
			return err
		}

		if listJSON {
			output, _ := json.MarshalIndent(names, "", "  ")
			fmt.Println(string(output))
			return nil
		}
		if len(names) == 0 {
			fmt.Println("No documents ingested.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove one document from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.service.DeleteDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Printf("No document named %q.\n", args[0])
			return nil
		}
		fmt.Printf("Deleted %s (%d chunks).\n", args[0], n)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every ingested document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Collection cleared.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection and backend status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		count, err := a.service.Count(ctx)
		if err != nil {
			return err
		}
		names, err := a.service.ListDocuments(ctx)
		if err != nil {
			return err
		}

		cfg := GetConfig()
		backend := "disabled"
		if a.service.HasGenerator() {
			backend = fmt.Sprintf("%s (%s)", cfg.Generation.Provider, a.service.GeneratorName())
		}
		opts := a.service.Options()

		fmt.Printf("Collection:   %s\n", a.path)
		fmt.Printf("Documents:    %d\n", len(names))
		fmt.Printf("Chunks:       %d\n", count)
		fmt.Printf("Dimension:    %d\n", cfg.Embedding.Dimension)
		fmt.Printf("Top-k:        %d\n", opts.TopK)
		fmt.Printf("Min score:    %.2f\n", opts.MinRelevanceScore)
		fmt.Printf("Generation:   %s\n", backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, deleteCmd, resetCmd, statusCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}
