package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	for _, cmd := range []*cobra.Command{submitCmd, previewCmd} {
		cmd.Flags().StringArrayP("answer", "a", nil, "An answer as <field>=<value>, may be repeated.")
	}

	rootCmd.AddCommand(problemCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(previewCmd)
}

func problemNumber(arg string) (int, error) {
	number, err := strconv.Atoi(arg)
	if err != nil || number < 1 {
		return 0, fmt.Errorf("invalid problem number '%s'", arg)
	}
	return number, nil
}

// parseAnswers splits each answer on the first '=' so values may contain '=' and ','.
func parseAnswers(raw []string) (map[string]string, error) {
	answers := make(map[string]string, len(raw))
	for _, a := range raw {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("answer '%s' is not in the form <field>=<value>", a)
		}
		answers[name] = value
	}
	return answers, nil
}

var problemCmd = &cobra.Command{
	Use:   "problem <class> <set> <number>",
	Short: "Prints a problem with its LaTeX body and answer fields.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := problemNumber(args[2])
		if err != nil {
			return err
		}
		problem, err := mgr.Problem(cmd.Context(), args[0], args[1], number)
		if err != nil {
			return err
		}
		printProblem(cmd.OutOrStdout(), problem)
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <class> <set> <number> -a <field>=<value>...",
	Short: "Submits answers to a problem, this uses up an attempt.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := problemNumber(args[2])
		if err != nil {
			return err
		}
		raw, err := cmd.Flags().GetStringArray("answer")
		if err != nil {
			return err
		}
		answers, err := parseAnswers(raw)
		if err != nil {
			return err
		}

		result, err := mgr.SubmitAnswer(cmd.Context(), args[0], args[1], number, answers)
		if err != nil {
			return err
		}

		t := newTable(cmd)
		t.SetTitle(result.Message)
		t.AppendHeader(table.Row{"Field", "Entered", "Result"})
		for _, r := range result.Results {
			t.AppendRow(table.Row{r.Field, r.Entered, r.Result})
		}
		t.Render()
		if !result.Success {
			return fmt.Errorf("submission was not fully correct")
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <class> <set> <number> -a <field>=<value>...",
	Short: "Previews how answers are interpreted without using an attempt.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := problemNumber(args[2])
		if err != nil {
			return err
		}
		raw, err := cmd.Flags().GetStringArray("answer")
		if err != nil {
			return err
		}
		answers, err := parseAnswers(raw)
		if err != nil {
			return err
		}

		result, err := mgr.PreviewAnswer(cmd.Context(), args[0], args[1], number, answers)
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("%s", result.Message)
		}

		t := newTable(cmd)
		t.SetTitle(result.Message)
		t.AppendHeader(table.Row{"Field", "Entered", "Preview"})
		for _, p := range result.Previews {
			t.AppendRow(table.Row{p.Field, p.Entered, p.Preview})
		}
		t.Render()
		return nil
	},
}
