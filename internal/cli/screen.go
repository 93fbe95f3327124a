package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"resumerag/internal/domain"
)

var (
	jobDesc     string
	jobDescFile string
	targetDocs  []string
	screenJSON  bool
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen resumes against a job description",
	Long: `Evaluate each resume against a job description and report a fit label,
confidence, strengths, gaps and citations. Without --doc every ingested resume
is screened.

Examples:
  resumerag screen --jd "Senior Go engineer, Kubernetes"
  resumerag screen --jd-file job.txt -D alice.txt --json`,
	Args: cobra.NoArgs,
	RunE: runScreen,
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare resumes against a job description",
	Long: `Produce a markdown report ranking the resumes against a job description,
with per-resume evidence. Without --doc every ingested resume is compared.

Examples:
  resumerag compare --jd-file job.txt -D alice.txt -D bob.txt`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(screenCmd, compareCmd)
	for _, c := range []*cobra.Command{screenCmd, compareCmd} {
		c.Flags().StringVar(&jobDesc, "jd", "", "job description text")
		c.Flags().StringVar(&jobDescFile, "jd-file", "", "file containing the job description")
		c.Flags().StringArrayVarP(&targetDocs, "doc", "D", nil, "document to include (repeatable, default all)")
	}
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "output as JSON")
}

func readJobDescription() (string, error) {
	if jobDescFile != "" {
		data, err := os.ReadFile(jobDescFile)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if strings.TrimSpace(jobDesc) == "" {
		return "", fmt.Errorf("a job description is required (--jd or --jd-file)")
	}
	return jobDesc, nil
}

func runScreen(cmd *cobra.Command, args []string) error {
	jd, err := readJobDescription()
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.service.Screen(cmd.Context(), jd, targetDocs)
	if err != nil {
		return err
	}

	if screenJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	if len(results) == 0 {
		fmt.Println("No documents to screen.")
		return nil
	}
	for _, r := range results {
		printScreening(r)
	}
	return nil
}

func printScreening(r domain.ScreeningResult) {
	fmt.Printf("=== %s: %s (confidence %.2f) ===\n", r.ResumeName, r.OverallFit, r.Confidence)
	if r.Summary != "" {
		fmt.Println(r.Summary)
	}
	if len(r.Strengths) > 0 {
		fmt.Println("\nStrengths:")
		for _, s := range r.Strengths {
			fmt.Printf("  + %s\n", s)
		}
	}
	if len(r.Gaps) > 0 {
		fmt.Println("\nGaps:")
		for _, g := range r.Gaps {
			fmt.Printf("  - %s\n", g)
		}
	}
	if len(r.Citations) > 0 {
		fmt.Println("\nCitations:")
		for _, c := range r.Citations {
			fmt.Printf("  [%s] %s\n", c.ChunkID, c.Quote)
		}
	}
	fmt.Println()
}

func runCompare(cmd *cobra.Command, args []string) error {
	jd, err := readJobDescription()
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.service.Compare(cmd.Context(), jd, targetDocs)
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}
