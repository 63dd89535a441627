package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"webwork-assist/internal/components/assert"
	"webwork-assist/internal/components/telemetry"
	"webwork-assist/internal/config"
	"webwork-assist/internal/scrapers/webwork"
	"webwork-assist/pkg/textutil"
)

const (
	report_manager_all_courses_info = "manager.all-courses-info"
	report_manager_dashboard        = "manager.dashboard"
)

var ErrUnknownCourse = errors.New("unknown class")

type ClassSummary struct {
	ClassName string `json:"class_name"`
	Username  string `json:"username"`
	Url       string `json:"url"`
}

type DashboardEntry struct {
	Class    string            `json:"class"`
	OpenSets []webwork.DueDate `json:"open_sets"`
	// Error is set instead of OpenSets when the course could not be read.
	Error string `json:"error,omitempty"`
}

// Manager owns one client per configured course for the lifetime of the process.
type Manager struct {
	names   []string
	clients map[string]*webwork.Client
	tel     telemetry.API
}

func New(cfg config.Config, tel telemetry.API) (*Manager, error) {
	return NewWithOptions(cfg, webwork.Options{CloudflareBypass: cfg.CloudflareBypass}, tel)
}

func NewWithOptions(cfg config.Config, opts webwork.Options, tel telemetry.API) (*Manager, error) {
	assert.NotNil("telemetry", tel)
	assert.NotEmptySlice("courses", cfg.Courses)

	m := &Manager{
		clients: make(map[string]*webwork.Client, len(cfg.Courses)),
		tel:     telemetry.NewScopedAPI("manager", tel),
	}
	for _, course := range cfg.Courses {
		if _, exists := m.clients[course.Name]; exists {
			return nil, fmt.Errorf("duplicate class '%s'", course.Name)
		}
		client, err := webwork.NewClient(cfg.BaseUrl, course.Name, course.Username, course.Password, opts, tel)
		if err != nil {
			return nil, fmt.Errorf("create client for %s: %w", course.Name, err)
		}
		m.names = append(m.names, course.Name)
		m.clients[course.Name] = client
	}
	return m, nil
}

// Classes returns the configured course names in configuration order.
func (m *Manager) Classes() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

func (m *Manager) Summaries() []ClassSummary {
	out := make([]ClassSummary, len(m.names))
	for i, name := range m.names {
		c := m.clients[name]
		out[i] = ClassSummary{ClassName: name, Username: c.Username, Url: c.ClassUrl.String()}
	}
	return out
}

func (m *Manager) Client(className string) (*webwork.Client, error) {
	client, ok := m.clients[className]
	if ok {
		return client, nil
	}
	available := strings.Join(m.names, ", ")
	if suggestion, ok := textutil.ClosestName(className, m.names); ok {
		return nil, fmt.Errorf("%w '%s', did you mean '%s'? Available: %s", ErrUnknownCourse, className, suggestion, available)
	}
	return nil, fmt.Errorf("%w '%s'. Available: %s", ErrUnknownCourse, className, available)
}

func (m *Manager) Login(ctx context.Context, className string) (bool, error) {
	c, err := m.Client(className)
	if err != nil {
		return false, err
	}
	return c.Login(ctx)
}

func (m *Manager) AllSets(ctx context.Context, className string) ([]webwork.HomeworkSet, error) {
	c, err := m.Client(className)
	if err != nil {
		return nil, err
	}
	return c.AllSets(ctx)
}

func (m *Manager) OpenSets(ctx context.Context, className string) ([]webwork.HomeworkSet, error) {
	c, err := m.Client(className)
	if err != nil {
		return nil, err
	}
	return c.OpenSets(ctx)
}

func (m *Manager) DueDates(ctx context.Context, className string) ([]webwork.DueDate, error) {
	c, err := m.Client(className)
	if err != nil {
		return nil, err
	}
	return c.DueDates(ctx)
}

func (m *Manager) SetInfo(ctx context.Context, className, setName string) (webwork.HomeworkSet, error) {
	c, err := m.Client(className)
	if err != nil {
		return webwork.HomeworkSet{}, err
	}
	return c.SetInfo(ctx, setName)
}

func (m *Manager) SetProgress(ctx context.Context, className, setName string) (webwork.SetProgress, error) {
	c, err := m.Client(className)
	if err != nil {
		return webwork.SetProgress{}, err
	}
	return c.SetProgress(ctx, setName)
}

func (m *Manager) Problem(ctx context.Context, className, setName string, number int) (webwork.ProblemDetail, error) {
	c, err := m.Client(className)
	if err != nil {
		return webwork.ProblemDetail{}, err
	}
	return c.Problem(ctx, setName, number)
}

func (m *Manager) SubmitAnswer(ctx context.Context, className, setName string, number int, answers map[string]string) (webwork.SubmitResult, error) {
	c, err := m.Client(className)
	if err != nil {
		return webwork.SubmitResult{}, err
	}
	return c.SubmitAnswer(ctx, setName, number, answers)
}

func (m *Manager) PreviewAnswer(ctx context.Context, className, setName string, number int, answers map[string]string) (webwork.PreviewResult, error) {
	c, err := m.Client(className)
	if err != nil {
		return webwork.PreviewResult{}, err
	}
	return c.PreviewAnswer(ctx, setName, number, answers)
}

func (m *Manager) Grades(ctx context.Context, className string) ([]webwork.ClassGrade, error) {
	c, err := m.Client(className)
	if err != nil {
		return nil, err
	}
	return c.Grades(ctx)
}

func (m *Manager) CourseInfo(ctx context.Context, className string) (webwork.CourseInfo, error) {
	c, err := m.Client(className)
	if err != nil {
		return webwork.CourseInfo{}, err
	}
	return c.CourseInfo(ctx)
}

func (m *Manager) DownloadHardcopy(ctx context.Context, className, setName string, opts webwork.HardcopyOptions) (webwork.HardcopyResult, error) {
	c, err := m.Client(className)
	if err != nil {
		return webwork.HardcopyResult{}, err
	}
	return c.DownloadHardcopy(ctx, setName, opts)
}

// AllCoursesInfo fetches the overview of every course one after another in configuration order,
// the first failure stops the walk.
func (m *Manager) AllCoursesInfo(ctx context.Context) ([]webwork.CourseInfo, error) {
	out := make([]webwork.CourseInfo, 0, len(m.names))
	for _, name := range m.names {
		info, err := m.clients[name].CourseInfo(ctx)
		if err != nil {
			m.tel.ReportBroken(report_manager_all_courses_info, err, name)
			return nil, fmt.Errorf("course info for %s: %w", name, err)
		}
		out = append(out, info)
	}
	return out, nil
}

// Dashboard lists the open sets of every course, a course that cannot be read is reported in its
// entry instead of failing the whole dashboard.
func (m *Manager) Dashboard(ctx context.Context) []DashboardEntry {
	out := make([]DashboardEntry, 0, len(m.names))
	for _, name := range m.names {
		entry := DashboardEntry{Class: name, OpenSets: []webwork.DueDate{}}
		sets, err := m.clients[name].OpenSets(ctx)
		if err != nil {
			m.tel.ReportWarning(report_manager_dashboard, err, name)
			entry.Error = err.Error()
			out = append(out, entry)
			continue
		}
		for _, s := range sets {
			entry.OpenSets = append(entry.OpenSets, webwork.DueDate{
				Name:    s.Name,
				DueDate: s.DueDate,
				Status:  s.Status,
			})
		}
		out = append(out, entry)
	}
	return out
}
