package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/upb/spt-policy-engineer/services/engineer"
	"github.com/upb/spt-policy-engineer/services/harness"
	"github.com/upb/spt-policy-engineer/services/screening"
)

func newInteractiveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:         "interactive",
		Short:       "Refine requirements interactively until they yield a single policy",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{needsDeps: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, c.deps.Engineer)
		},
	}
}

func runInteractive(cmd *cobra.Command, eng *engineer.Service) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Policy Requirements Engineer - Interactive Mode")
	fmt.Fprintln(out, "Enter natural language IAM policy requirements.")
	fmt.Fprintln(out, "Type 'quit' or 'exit' to stop, 'help' for examples.")

	for {
		fmt.Fprint(out, "\nEnter your policy requirement:\n> ")
		if !in.Scan() {
			return in.Err()
		}
		input := strings.TrimSpace(in.Text())

		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "help":
			printExamples(out)
			continue
		case "":
			fmt.Fprintln(out, "Please enter a requirement or type 'help' for examples.")
			continue
		}

		for _, d := range screening.Scan(input) {
			fmt.Fprintf(out, "Warning: %s\n", d.Warning())
		}

		fmt.Fprintf(out, "\nProcessing: %s\n", input)
		outcome, err := eng.ProcessRequirement(cmd.Context(), input)
		if err != nil {
			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		printOutcome(out, outcome)

		fmt.Fprint(out, "\nSave this result to file? (y/n): ")
		if !in.Scan() {
			return in.Err()
		}
		if answer := strings.ToLower(strings.TrimSpace(in.Text())); answer == "y" || answer == "yes" {
			path := fmt.Sprintf("policy_result_%s.json", time.Now().Format("20060102_150405"))
			if err := harness.WriteJSON(path, outcome); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Result saved to %s\n", path)
		}
	}
}

func printOutcome(out io.Writer, o *engineer.Outcome) {
	if o.Status == engineer.OutcomeSuccess {
		fmt.Fprintf(out, "Successfully generated policy after %d attempt(s)!\n", o.Attempts)
		fmt.Fprintln(out, "\nGenerated SPT Policy:")
		fmt.Fprintln(out, o.Policy)
		for _, w := range o.Warnings {
			fmt.Fprintf(out, "Lint: %s\n", w)
		}
		return
	}

	fmt.Fprintf(out, "Requirement needs clarification (attempted %d times):\n", o.Attempts)
	fmt.Fprintln(out, "\nFeedback:")
	fmt.Fprintln(out, o.Feedback)
	if len(o.MissingElements) > 0 {
		fmt.Fprintf(out, "\nMissing %d key elements\n", len(o.MissingElements))
	}
}
