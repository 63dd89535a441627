package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"webwork-assist/internal/manager"
	"webwork-assist/internal/scrapers/webwork"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Logs into every class and prints due dates, open set progress and a sample problem.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDemo(cmd.Context(), cmd.OutOrStdout(), mgr)
	},
}

func problemMarker(p webwork.Problem) string {
	if p.Completed() {
		return "✓"
	}
	return "○"
}

func printDemo(ctx context.Context, out io.Writer, m *manager.Manager) error {
	for _, className := range m.Classes() {
		rule := strings.Repeat("=", 60)
		fmt.Fprintf(out, "\n%s\n  %s\n%s\n", rule, className, rule)

		ok, err := m.Login(ctx, className)
		if err != nil || !ok {
			fmt.Fprintln(out, "  ✗ Login failed.")
			continue
		}
		fmt.Fprintln(out, "  ✓ Logged in.")
		fmt.Fprintln(out)

		dates, err := m.DueDates(ctx, className)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  Found %d homework set(s):\n\n", len(dates))
		for i, d := range dates {
			fmt.Fprintf(out, "  %2d. %s\n", i+1, d.Name)
			fmt.Fprintf(out, "      Due: %s\n", d.DueDate)
			fmt.Fprintf(out, "      Status: %s\n\n", d.Status)
		}

		openSets, err := m.OpenSets(ctx, className)
		if err != nil {
			return err
		}
		for _, hw := range openSets {
			fmt.Fprintf(out, "  --- %s (due %s) ---\n\n", hw.Name, hw.DueDate)
			info, err := m.SetInfo(ctx, className, hw.Name)
			if err != nil || len(info.Problems) == 0 {
				fmt.Fprintln(out, "    No problems found.")
				fmt.Fprintln(out)
				continue
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"", "Problem", "Attempts", "Remaining", "Worth", "Status"})
			for _, p := range info.Problems {
				t.AppendRow(table.Row{problemMarker(p), p.Name, p.Attempts, p.Remaining, p.Worth, p.Status})
			}
			t.Render()

			progress := webwork.SummarizeSet(info)
			fmt.Fprintf(out, "\n    Progress: %d/%d points\n\n", progress.EarnedPoints, progress.TotalPoints)
		}

		if len(openSets) == 0 {
			continue
		}

		demoSet := openSets[0]
		fmt.Fprintf(out, "  --- Demo: fetching Problem 1 from %s ---\n\n", demoSet.Name)
		problem, err := m.Problem(ctx, className, demoSet.Name, 1)
		if err != nil {
			fmt.Fprintln(out, "    Could not load problem.")
			fmt.Fprintln(out)
			continue
		}
		printProblem(out, problem)
	}
	return nil
}

func printProblem(out io.Writer, problem webwork.ProblemDetail) {
	fmt.Fprintf(out, "    LaTeX body:\n\n")
	for _, line := range strings.Split(problem.BodyLatex, "\n") {
		if strings.TrimSpace(line) != "" {
			fmt.Fprintf(out, "      %s\n", line)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "    Answer fields:")
	for _, field := range problem.AnswerFields {
		fmt.Fprintf(out, "      - %s (type=%s, label=%s)\n", field.Name, field.Type, field.Label)
	}
	fmt.Fprintf(out, "\n    Attempts: %d, Remaining: %s\n", problem.Attempts, problem.Remaining)
}
