package commands

import (
	"fmt"
	"webwork-assist/internal/scrapers/webwork"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	setsCmd.Flags().Bool("open", false, "Only list sets that are currently open.")

	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(setsCmd)
	rootCmd.AddCommand(setCmd)
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Prints the configured classes.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		t := newTable(cmd)
		t.AppendHeader(table.Row{"Class", "Username", "Url"})
		for _, c := range mgr.Summaries() {
			t.AppendRow(table.Row{c.ClassName, c.Username, c.Url})
		}
		t.Render()
	},
}

var setsCmd = &cobra.Command{
	Use:   "sets <class> [--open]",
	Short: "Prints the homework sets of a class with their due dates.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		onlyOpen, err := cmd.Flags().GetBool("open")
		if err != nil {
			return err
		}

		var sets []webwork.HomeworkSet
		if onlyOpen {
			sets, err = mgr.OpenSets(cmd.Context(), args[0])
		} else {
			sets, err = mgr.AllSets(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		t := newTable(cmd)
		t.AppendHeader(table.Row{"Set", "Due", "Status"})
		for _, s := range sets {
			t.AppendRow(table.Row{s.Name, s.DueDate, s.Status})
		}
		t.Render()
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <class> <set>",
	Short: "Prints the problems of a set and the progress made on it.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := mgr.SetInfo(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		progress := webwork.SummarizeSet(set)

		t := newTable(cmd)
		t.SetTitle(fmt.Sprintf("%s (due %s)", set.Name, set.DueDate))
		t.AppendHeader(table.Row{"", "Problem", "Attempts", "Remaining", "Worth", "Status"})
		for _, p := range set.Problems {
			t.AppendRow(table.Row{problemMarker(p), p.Name, p.Attempts, p.Remaining, p.Worth, p.Status})
		}
		t.AppendFooter(table.Row{"", "Progress", "", "", fmt.Sprintf("%d/%d", progress.EarnedPoints, progress.TotalPoints), progress.Percent})
		t.Render()
		return nil
	},
}
