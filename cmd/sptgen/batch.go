package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upb/spt-policy-engineer/models"
	"github.com/upb/spt-policy-engineer/services/harness"
	"github.com/upb/spt-policy-engineer/utils"
)

// defaultCase is run when batch gets no requirements. It is expected to
// yield a complete checklist.
const defaultCase = "Allow the IAM role 'JohnDoe' in account 111122223333 to get objects and object versions from the S3 bucket 'amzn-s3-demo-bucket' only for objects tagged with environment=production"

func newBatchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [requirement...]",
		Short: "Generate a checklist and N policy samples per requirement and write a report",
		Example: `  sptgen batch "Deny all users access to delete S3 objects in the 'critical-backups' bucket"
  sptgen batch --cases cases.yaml --iterations 5 --output results.json`,
		Annotations: map[string]string{needsDeps: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := append([]string{}, args...)
			if c.casesFile != "" {
				cases, err := harness.LoadCases(c.casesFile)
				if err != nil {
					return err
				}
				texts = append(texts, cases...)
			}
			if len(texts) == 0 {
				texts = []string{defaultCase}
			}

			out := cmd.OutOrStdout()
			path := c.deps.Config.Harness.OutputPath

			report, err := c.deps.Harness.RunBatch(cmd.Context(), texts, path)
			if err != nil {
				return err
			}

			for i, r := range report.Results {
				fmt.Fprintf(out, "\nTest Case %d: %s\n", i+1, utils.Truncate(r.OriginalText, 60))
				fmt.Fprintf(out, "  Status: %s\n", r.Status)
				if r.ChecklistError != nil {
					fmt.Fprintf(out, "  Checklist error (%s): %s\n", r.ChecklistError.Type, r.ChecklistError.Message)
					continue
				}
				fmt.Fprintf(out, "  Checklist: %s, ambiguity %s\n", r.Checklist.Metadata.Status, r.Checklist.Metadata.AmbiguityLevel)
				fmt.Fprintf(out, "  Policies: %d/%d parsed\n", r.SuccessfulAttempts(), len(r.PolicyAttempts))
				for _, w := range r.InputWarnings {
					fmt.Fprintf(out, "  Warning: %s\n", w)
				}
			}

			printSummary(cmd, report)
			fmt.Fprintf(out, "\nResults saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&c.casesFile, "cases", "", "YAML or JSON file with a top-level `cases` list")
	cmd.Flags().IntVarP(&c.iterations, "iterations", "n", harness.DefaultIterations, "policy samples per requirement (or set HARNESS_ITERATIONS)")
	cmd.Flags().StringVarP(&c.output, "output", "o", harness.DefaultOutputPath, "report path (or set HARNESS_OUTPUT)")

	return cmd
}

func printSummary(cmd *cobra.Command, report *models.BatchReport) {
	s := report.Summary
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  Cases: %d successful, %d partial, %d failed\n", s.SuccessfulCases, s.PartialCases, s.FailedCases)
	fmt.Fprintf(out, "  Policy attempts: %d successful, %d failed\n", s.SuccessfulAttempts, s.FailedAttempts)
}
