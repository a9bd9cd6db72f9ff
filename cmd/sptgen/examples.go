package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var exampleRequirements = []string{
	"Allow the IAM role 'DataAnalyst' to read all objects in the S3 bucket 'analytics-reports' between 9 AM and 5 PM EST on weekdays",
	"Allow the IAM role 'JohnDoe' in account 111122223333 to get objects and object versions from the S3 bucket 'amzn-s3-demo-bucket' only for objects tagged with environment=production",
	"Grant the IAM group 'Developers' permission to start and stop EC2 instances in the us-west-2 region",
	"Allow users with the tag Department=Finance to access CloudWatch metrics for billing",
	"Deny all users access to delete S3 objects in the 'critical-backups' bucket",
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List example policy requirements",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printExamples(cmd.OutOrStdout())
		},
	}
}

func printExamples(w io.Writer) {
	fmt.Fprintln(w, "Example Policy Requirements:")
	for i, e := range exampleRequirements {
		fmt.Fprintf(w, "%d. %s\n", i+1, e)
	}
}
