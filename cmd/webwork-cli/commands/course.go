package commands

import (
	"fmt"
	"webwork-assist/internal/scrapers/webwork"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	hardcopyCmd.Flags().StringP("dir", "d", ".", "The directory to save the PDF into.")
	hardcopyCmd.Flags().Bool("answers", true, "Include previous answers.")
	hardcopyCmd.Flags().Bool("comments", false, "Include grader comments.")

	rootCmd.AddCommand(gradesCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(hardcopyCmd)
}

var gradesCmd = &cobra.Command{
	Use:   "grades <class>",
	Short: "Prints the grades of every set in a class.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grades, err := mgr.Grades(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(grades) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No grades found (the grades page may have a different format).")
			return nil
		}

		t := newTable(cmd)
		t.AppendHeader(table.Row{"Set", "Score", "Out Of", "Percent"})
		for _, g := range grades {
			t.AppendRow(table.Row{g.SetName, g.Score, g.OutOf, g.Percent})
		}
		t.Render()
		return nil
	},
}

func renderCourse(cmd *cobra.Command, info webwork.CourseInfo) {
	t := newTable(cmd)
	t.SetTitle(fmt.Sprintf("%s (%s) - %d open, %d closed", info.ClassName, info.Username, info.OpenSetsCount, info.ClosedSetsCount))
	t.AppendHeader(table.Row{"Set", "Due", "Problems", "Done", "Points", "Percent", "Remaining"})
	for _, s := range info.OpenSets {
		t.AppendRow(table.Row{
			s.Name,
			s.DueDate,
			s.TotalProblems,
			s.CompletedCount,
			fmt.Sprintf("%d/%d", s.EarnedPoints, s.TotalPoints),
			s.Percent,
			fmt.Sprint(s.RemainingProblems),
		})
	}
	for _, s := range info.ClosedSets {
		t.AppendRow(table.Row{s.Name, s.DueDate, "", "", "", s.Status, ""})
	}
	t.Render()
}

var courseCmd = &cobra.Command{
	Use:   "course [class]",
	Short: "Prints an overview of a class, or of every class when none is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			info, err := mgr.CourseInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderCourse(cmd, info)
			return nil
		}

		infos, err := mgr.AllCoursesInfo(cmd.Context())
		if err != nil {
			return err
		}
		for _, info := range infos {
			renderCourse(cmd, info)
		}
		return nil
	},
}

var hardcopyCmd = &cobra.Command{
	Use:   "hardcopy <class> <set> [--dir <path>]",
	Short: "Downloads a PDF hardcopy of a set.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cmd.Flags().GetString("dir")
		if err != nil {
			return err
		}
		answers, err := cmd.Flags().GetBool("answers")
		if err != nil {
			return err
		}
		comments, err := cmd.Flags().GetBool("comments")
		if err != nil {
			return err
		}

		result, err := mgr.DownloadHardcopy(cmd.Context(), args[0], args[1], webwork.HardcopyOptions{
			Dir:             dir,
			IncludeAnswers:  answers,
			IncludeComments: comments,
		})
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("%s", result.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}
