package manager

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"webwork-assist/internal/components/telemetry"
	"webwork-assist/internal/config"
	"webwork-assist/internal/scrapers/webwork"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const setsPage = `<html><body>
<div id="loginstatus">Logged in as %[1]s.</div>
<table class="problem_set_table">
  <tbody>
    <tr><td><a href="/webwork2/%[2]s/Homework_1/">Homework 1</a></td><td>Open, closes 09/14/2026 at 11:59pm PDT.</td></tr>
    <tr><td><a href="/webwork2/%[2]s/Homework_0/">Homework 0</a></td><td>Closed.</td></tr>
  </tbody>
</table>
</body></html>`

// fakeCourses serves every course with the same two sets, only the password "secret" logs in.
func fakeCourses(t *testing.T) *httptest.Server {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			t.Error(err)
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 2 || parts[0] != "webwork2" {
			http.NotFound(w, r)
			return
		}
		course := parts[1]

		if r.Method == http.MethodPost && r.PostForm.Get("passwd") != "secret" {
			fmt.Fprint(w, `<html><body><div id="loginstatus"></div></body></html>`)
			return
		}
		if len(parts) > 2 {
			fmt.Fprint(w, `<html><body>not found</body></html>`)
			return
		}
		fmt.Fprintf(w, setsPage, r.PostForm.Get("user"), course)
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestManager(t *testing.T, courses ...config.Course) (*Manager, *telemetry.Recorder) {
	server := fakeCourses(t)
	tel := telemetry.NewRecorder()
	m, err := NewWithOptions(config.Config{
		BaseUrl: server.URL + "/webwork2",
		Courses: courses,
	}, webwork.Options{RateLimit: rate.Inf}, tel)
	require.NoError(t, err)
	return m, tel
}

func TestClasses(t *testing.T) {
	m, _ := newTestManager(
		t,
		config.Course{Name: "Phys101", Username: "a", Password: "secret"},
		config.Course{Name: "Math221", Username: "b", Password: "secret"},
	)
	require.Equal(t, []string{"Phys101", "Math221"}, m.Classes())

	summaries := m.Summaries()
	require.Len(t, summaries, 2)
	require.Equal(t, "b", summaries[1].Username)
	require.Contains(t, summaries[1].Url, "/webwork2/Math221")
}

func TestUnknownCourse(t *testing.T) {
	m, _ := newTestManager(
		t,
		config.Course{Name: "Phys101", Username: "a", Password: "secret"},
		config.Course{Name: "Math221", Username: "b", Password: "secret"},
	)

	_, err := m.AllSets(context.Background(), "Chem100")
	require.ErrorIs(t, err, ErrUnknownCourse)
	require.Equal(t, "unknown class 'Chem100'. Available: Phys101, Math221", err.Error())

	_, err = m.Grades(context.Background(), "math 221")
	require.ErrorIs(t, err, ErrUnknownCourse)
	require.Contains(t, err.Error(), "did you mean 'Math221'?")
}

func TestDuplicateCourse(t *testing.T) {
	_, err := NewWithOptions(config.Config{
		BaseUrl: "https://webwork.example.edu/webwork2",
		Courses: []config.Course{
			{Name: "Math221", Username: "a", Password: "b"},
			{Name: "Math221", Username: "c", Password: "d"},
		},
	}, webwork.Options{}, telemetry.NewRecorder())
	require.Error(t, err)
}

func TestDelegation(t *testing.T) {
	m, _ := newTestManager(t, config.Course{Name: "Math221", Username: "b", Password: "secret"})
	ctx := context.Background()

	dates, err := m.DueDates(ctx, "Math221")
	require.NoError(t, err)
	require.Equal(t, []webwork.DueDate{
		{Name: "Homework 1", DueDate: "09/14/2026 at 11:59pm PDT", Status: "Open, closes 09/14/2026 at 11:59pm PDT."},
		{Name: "Homework 0", DueDate: "Closed", Status: "Closed."},
	}, dates)

	_, err = m.SetInfo(ctx, "Math221", "Homework 9")
	require.ErrorIs(t, err, webwork.ErrSetNotFound)
}

func TestAllCoursesInfo(t *testing.T) {
	m, _ := newTestManager(
		t,
		config.Course{Name: "Phys101", Username: "a", Password: "secret"},
		config.Course{Name: "Math221", Username: "b", Password: "secret"},
	)

	infos, err := m.AllCoursesInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "Phys101", infos[0].ClassName)
	require.Equal(t, "Math221", infos[1].ClassName)
	require.Equal(t, 1, infos[1].OpenSetsCount)
	require.Equal(t, 1, infos[1].ClosedSetsCount)
}

func TestAllCoursesInfoLoginFailure(t *testing.T) {
	m, tel := newTestManager(
		t,
		config.Course{Name: "Phys101", Username: "a", Password: "secret"},
		config.Course{Name: "Math221", Username: "b", Password: "wrong"},
	)

	_, err := m.AllCoursesInfo(context.Background())
	require.ErrorIs(t, err, webwork.ErrLoginFailed)
	require.Contains(t, tel.BrokenIds(), "manager: "+report_manager_all_courses_info)
}

func TestDashboard(t *testing.T) {
	m, _ := newTestManager(
		t,
		config.Course{Name: "Phys101", Username: "a", Password: "wrong"},
		config.Course{Name: "Math221", Username: "b", Password: "secret"},
	)

	dashboard := m.Dashboard(context.Background())
	require.Len(t, dashboard, 2)

	require.Equal(t, "Phys101", dashboard[0].Class)
	require.Empty(t, dashboard[0].OpenSets)
	require.Contains(t, dashboard[0].Error, "failed to log in")

	require.Equal(t, DashboardEntry{
		Class: "Math221",
		OpenSets: []webwork.DueDate{{
			Name:    "Homework 1",
			DueDate: "09/14/2026 at 11:59pm PDT",
			Status:  "Open, closes 09/14/2026 at 11:59pm PDT.",
		}},
	}, dashboard[1])
}
