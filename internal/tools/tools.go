package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"webwork-assist/internal/components/assert"
	"webwork-assist/internal/components/telemetry"
	"webwork-assist/internal/manager"
	"webwork-assist/internal/scrapers/webwork"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const instructions = "You are a helpful homework assistant connected to a WeBWorK online homework system. " +
	"You can list classes, homework sets, due dates, individual problems (with LaTeX), check grades, " +
	"download PDF hardcopies, and get course overviews. " +
	"This server is read-only, you cannot submit or preview answers."

// Toolset exposes the read-only manager operations as tools.
type Toolset struct {
	manager *manager.Manager
	tel     telemetry.API
}

func New(m *manager.Manager, tel telemetry.API) Toolset {
	assert.NotNil("manager", m)
	assert.NotNil("telemetry", tel)
	return Toolset{
		manager: m,
		tel:     telemetry.NewScopedAPI("tools", tel),
	}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(t Toolset, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"WeBWorK",
		version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	s.AddTools(t.Tools()...)
	return s
}

func classNameArg() mcp.ToolOption {
	return mcp.WithString(
		"class_name",
		mcp.Required(),
		mcp.Description("The WeBWorK class name, e.g. 'Math221-Vanderlei'"),
	)
}

func setNameArg() mcp.ToolOption {
	return mcp.WithString(
		"set_name",
		mcp.Required(),
		mcp.Description("Exact homework set name, e.g. 'Assignment9 Vector-Geometry'"),
	)
}

func (t Toolset) Tools() []server.ServerTool {
	tools := []server.ServerTool{
		{
			Tool: mcp.NewTool(
				"get_classes",
				mcp.WithDescription("List every configured class with its username and url."),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: t.getClasses,
		},
		{
			Tool: mcp.NewTool(
				"get_all_sets",
				mcp.WithDescription("List every homework set for a class.\n\nReturns a list of sets with name, url, status, and due_date."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
			),
			Handler: t.getAllSets,
		},
		{
			Tool: mcp.NewTool(
				"get_open_sets",
				mcp.WithDescription("List only the currently-open homework sets for a class.\n\nUseful for seeing what's available to work on right now."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
			),
			Handler: t.getOpenSets,
		},
		{
			Tool: mcp.NewTool(
				"get_due_dates",
				mcp.WithDescription("Get due dates for every homework set in a class.\n\nReturns a list of {name, due_date, status}."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
			),
			Handler: t.getDueDates,
		},
		{
			Tool: mcp.NewTool(
				"get_upcoming_deadlines",
				mcp.WithDescription("Get due dates for only the open (upcoming) sets, the assignments you can still submit to."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
			),
			Handler: t.getUpcomingDeadlines,
		},
		{
			Tool: mcp.NewTool(
				"get_set_info",
				mcp.WithDescription("Get detailed info for a specific homework set including its full problem list with attempt counts, scores, and point values."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
				setNameArg(),
			),
			Handler: t.getSetInfo,
		},
		{
			Tool: mcp.NewTool(
				"get_problem",
				mcp.WithDescription("Fetch a single problem's full content (read-only).\n\n"+
					"Returns the problem statement with inline LaTeX ($...$), current attempt count, and remaining attempts. "+
					"Use the 'body_latex' field to read the mathematical content."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
				setNameArg(),
				mcp.WithNumber(
					"problem_number",
					mcp.Required(),
					mcp.Description("Problem number (1-indexed)"),
					mcp.Min(1),
				),
			),
			Handler: t.getProblem,
		},
		{
			Tool: mcp.NewTool(
				"get_grades",
				mcp.WithDescription("Fetch the grades for all homework sets in a class, including points earned, total points, and percentage."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
			),
			Handler: t.getGrades,
		},
		{
			Tool: mcp.NewTool(
				"get_set_progress",
				mcp.WithDescription("Get a quick progress summary for a homework set: how many problems are completed, total points, and which problems still need work."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
				setNameArg(),
			),
			Handler: t.getSetProgress,
		},
		{
			Tool: mcp.NewTool(
				"get_dashboard",
				mcp.WithDescription("Get a high-level dashboard across ALL classes: open sets and due dates. A good starting point to see what needs attention."),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: t.getDashboard,
		},
		{
			Tool: mcp.NewTool(
				"get_course_info",
				mcp.WithDescription("Get a comprehensive overview of a single class.\n\n"+
					"For every open set returns the due date, problem count, completion progress and which problems are done vs. remaining. "+
					"Closed sets are listed with their status. This is the best starting tool when the user asks about a specific course."),
				mcp.WithReadOnlyHintAnnotation(true),
				classNameArg(),
			),
			Handler: t.getCourseInfo,
		},
		{
			Tool: mcp.NewTool(
				"get_all_courses_info",
				mcp.WithDescription("Get a comprehensive overview of ALL enrolled classes at once. "+
					"Use this when the user asks something like \"what do I have due?\" without specifying a class."),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: t.getAllCoursesInfo,
		},
		{
			Tool: mcp.NewTool(
				"download_hardcopy",
				mcp.WithDescription("Download a PDF hardcopy of a homework set, optionally including previous answers and grader comments. Returns the file path of the saved PDF."),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				classNameArg(),
				setNameArg(),
				mcp.WithString(
					"save_dir",
					mcp.Description("Directory to save the PDF into. Defaults to current directory."),
					mcp.DefaultString("."),
				),
				mcp.WithBoolean(
					"include_answers",
					mcp.Description("Include the student's previous answers in the PDF"),
					mcp.DefaultBool(true),
				),
				mcp.WithBoolean(
					"include_comments",
					mcp.Description("Include grader comments in the PDF"),
					mcp.DefaultBool(false),
				),
			),
			Handler: t.downloadHardcopy,
		},
	}

	for i := range tools {
		tools[i].Handler = t.logged(tools[i].Tool.Name, tools[i].Handler)
	}
	return tools
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// failure turns errors that belong to the caller into error results, anything else is returned
// as a protocol error.
func failure(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, manager.ErrUnknownCourse),
		errors.Is(err, webwork.ErrLoginFailed):
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultErrorFromErr("request failed", err), nil
}

func (t Toolset) getClasses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.manager.Summaries())
}

func (t Toolset) getAllSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sets, err := t.manager.AllSets(ctx, className)
	if err != nil {
		return failure(err)
	}
	return jsonResult(sets)
}

func (t Toolset) getOpenSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sets, err := t.manager.OpenSets(ctx, className)
	if err != nil {
		return failure(err)
	}
	return jsonResult(sets)
}

func (t Toolset) getDueDates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dates, err := t.manager.DueDates(ctx, className)
	if err != nil {
		return failure(err)
	}
	return jsonResult(dates)
}

func (t Toolset) getUpcomingDeadlines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sets, err := t.manager.OpenSets(ctx, className)
	if err != nil {
		return failure(err)
	}
	dates := make([]webwork.DueDate, len(sets))
	for i, s := range sets {
		dates[i] = webwork.DueDate{Name: s.Name, DueDate: s.DueDate, Status: s.Status}
	}
	return jsonResult(dates)
}

func (t Toolset) getSetInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	setName, err := req.RequireString("set_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	set, err := t.manager.SetInfo(ctx, className, setName)
	if errors.Is(err, webwork.ErrSetNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("Set '%s' not found in %s.", setName, className)), nil
	}
	if err != nil {
		return failure(err)
	}
	return jsonResult(set)
}

// ProblemView is a problem without the fields needed to submit answers.
type ProblemView struct {
	webwork.Problem
	BodyText  string `json:"body_text"`
	BodyLatex string `json:"body_latex"`
}

func readOnlyProblem(detail webwork.ProblemDetail) ProblemView {
	return ProblemView{
		Problem:   detail.Problem,
		BodyText:  detail.BodyText,
		BodyLatex: detail.BodyLatex,
	}
}

func (t Toolset) getProblem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	setName, err := req.RequireString("set_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	number, err := req.RequireInt("problem_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if number < 1 {
		return mcp.NewToolResultError("problem_number must be at least 1"), nil
	}

	detail, err := t.manager.Problem(ctx, className, setName, number)
	if errors.Is(err, webwork.ErrProblemNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("Problem %d not found in '%s'.", number, setName)), nil
	}
	if err != nil {
		return failure(err)
	}
	return jsonResult(readOnlyProblem(detail))
}

func (t Toolset) getGrades(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	grades, err := t.manager.Grades(ctx, className)
	if err != nil {
		return failure(err)
	}
	if len(grades) == 0 {
		return mcp.NewToolResultText("No grades found (the grades page may have a different format)."), nil
	}
	return jsonResult(grades)
}

func (t Toolset) getSetProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	setName, err := req.RequireString("set_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	progress, err := t.manager.SetProgress(ctx, className, setName)
	if errors.Is(err, webwork.ErrSetNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("Set '%s' not found in %s.", setName, className)), nil
	}
	if err != nil {
		return failure(err)
	}
	return jsonResult(progress)
}

func (t Toolset) getDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.manager.Dashboard(ctx))
}

func (t Toolset) getCourseInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := t.manager.CourseInfo(ctx, className)
	if err != nil {
		return failure(err)
	}
	return jsonResult(info)
}

func (t Toolset) getAllCoursesInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := t.manager.AllCoursesInfo(ctx)
	if err != nil {
		return failure(err)
	}
	return jsonResult(infos)
}

func (t Toolset) downloadHardcopy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := req.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	setName, err := req.RequireString("set_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.manager.DownloadHardcopy(ctx, className, setName, webwork.HardcopyOptions{
		Dir:             req.GetString("save_dir", "."),
		IncludeAnswers:  req.GetBool("include_answers", true),
		IncludeComments: req.GetBool("include_comments", false),
	})
	if err != nil {
		return failure(err)
	}
	return jsonResult(result)
}
