package webwork

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"webwork-assist/internal/components/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testCourse   = "Math221"
	testUser     = "jdoe"
	testPassword = "hunter2"
	sessionName  = "WeBWorKCourseAuthen.Math221"
)

// fakeWebwork serves the fixtures the way a course site would, pages other than the login
// form require the session cookie handed out by a successful login.
type fakeWebwork struct {
	t *testing.T

	mutex          sync.Mutex
	logins         int
	lastForm       url.Values
	hardcopyType   string
	hardcopyHeader string
	// closes the connection on problem and hardcopy posts without answering
	dropPosts bool
}

func (f *fakeWebwork) hangUp(w http.ResponseWriter) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err != nil {
		f.t.Error(err)
		return
	}
	conn.Close()
}

func (f *fakeWebwork) write(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(fixture(f.t, name))
	if err != nil {
		f.t.Error(err)
	}
}

func (f *fakeWebwork) recordForm(r *http.Request) url.Values {
	err := r.ParseForm()
	if err != nil {
		f.t.Error(err)
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.lastForm = r.PostForm
	return r.PostForm
}

func (f *fakeWebwork) form() url.Values {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.lastForm
}

func (f *fakeWebwork) loginCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.logins
}

func (f *fakeWebwork) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/webwork2/"+testCourse {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(sessionName)
		if err != nil || cookie.Value != "session-token" {
			f.write(w, "login_failed.html")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeWebwork) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(f.requireSession)

	r.Route("/webwork2/"+testCourse, func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			form := f.recordForm(r)
			f.mutex.Lock()
			f.logins++
			f.mutex.Unlock()

			if form.Get("user") != testUser || form.Get("passwd") != testPassword || form.Get(".submit") != "Continue" {
				f.write(w, "login_failed.html")
				return
			}
			http.SetCookie(w, &http.Cookie{Name: sessionName, Value: "session-token", Path: "/"})
			f.write(w, "login.html")
		})
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			f.write(w, "sets.html")
		})
		r.Get("/grades/", func(w http.ResponseWriter, r *http.Request) {
			f.write(w, "grades.html")
		})
		r.Get("/hardcopy/{set}/", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "set") != "Assignment9_Vector-Geometry" {
				w.WriteHeader(http.StatusNotFound)
				f.write(w, "problem_missing.html")
				return
			}
			f.write(w, "hardcopy.html")
		})
		r.Post("/hardcopy/", func(w http.ResponseWriter, r *http.Request) {
			f.recordForm(r)
			if f.dropPosts {
				f.hangUp(w)
				return
			}
			if f.hardcopyHeader != "" {
				w.Header().Set("Content-Disposition", f.hardcopyHeader)
			}
			w.Header().Set("Content-Type", f.hardcopyType)
			_, err := w.Write([]byte("%PDF-1.4 fake"))
			if err != nil {
				f.t.Error(err)
			}
		})
		r.Get("/{set}/", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "set") != "Assignment9_Vector-Geometry" {
				w.WriteHeader(http.StatusNotFound)
				f.write(w, "problem_missing.html")
				return
			}
			f.write(w, "set_detail.html")
		})
		r.Get("/{set}/{problem}/", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "problem") != "1" || r.URL.Query().Get("effectiveUser") != testUser {
				f.write(w, "problem_missing.html")
				return
			}
			f.write(w, "problem.html")
		})
		r.Post("/{set}/{problem}/", func(w http.ResponseWriter, r *http.Request) {
			form := f.recordForm(r)
			if f.dropPosts {
				f.hangUp(w)
				return
			}
			switch {
			case form.Get("previewAnswers") != "":
				f.write(w, "preview.html")
			case form.Get("AnSwEr0001") == "":
				f.write(w, "submit_empty.html")
			default:
				f.write(w, "submit.html")
			}
		})
	})

	return r
}

func newFakeClient(t *testing.T, password string) (*fakeWebwork, *Client, *telemetry.Recorder) {
	fake := &fakeWebwork{t: t, hardcopyType: "application/pdf"}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	tel := telemetry.NewRecorder()
	client, err := NewClient(server.URL+"/webwork2/", testCourse, testUser, password, Options{RateLimit: rate.Inf}, tel)
	require.NoError(t, err)
	return fake, client, tel
}

func TestLogin(t *testing.T) {
	fake, client, _ := newFakeClient(t, testPassword)
	ctx := context.Background()

	ok, err := client.Login(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, client.LoggedIn())

	_, err = client.AllSets(ctx)
	require.NoError(t, err)
	_, err = client.Grades(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, fake.loginCount())
}

func TestLoginRejected(t *testing.T) {
	fake, client, tel := newFakeClient(t, "wrong")
	ctx := context.Background()

	ok, err := client.Login(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, client.LoggedIn())

	_, err = client.AllSets(ctx)
	require.ErrorIs(t, err, ErrLoginFailed)
	require.Contains(t, tel.BrokenIds(), "webwork_scraper: "+report_client_login)

	// every guarded call tries exactly once more
	require.Equal(t, 2, fake.loginCount())
}

func TestLoginTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewClient(server.URL, testCourse, testUser, testPassword, Options{RateLimit: rate.Inf}, telemetry.NewRecorder())
	require.NoError(t, err)

	ok, err := client.Login(context.Background())
	require.Error(t, err)
	require.False(t, ok)

	_, err = client.DueDates(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestSets(t *testing.T) {
	_, client, _ := newFakeClient(t, testPassword)
	ctx := context.Background()

	open, err := client.OpenSets(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, s := range open {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"Assignment9 Vector-Geometry", "Assignment10 Lines-Planes", "Midterm Practice"}, names)

	dates, err := client.DueDates(ctx)
	require.NoError(t, err)
	require.Len(t, dates, 4)
	require.Equal(t, DueDate{
		Name:    "Assignment1 Review",
		DueDate: "Closed",
		Status:  "Closed, answers available.",
	}, dates[2])

	set, err := client.SetInfo(ctx, "Assignment9 Vector-Geometry")
	require.NoError(t, err)
	require.Len(t, set.Problems, 4)
	require.Equal(t, "03/29/2026 at 11:30pm PDT", set.DueDate)

	_, err = client.SetInfo(ctx, "assignment9 vector geometry")
	require.ErrorIs(t, err, ErrSetNotFound)
	require.Contains(t, err.Error(), "did you mean 'Assignment9 Vector-Geometry'")

	progress, err := client.SetProgress(ctx, "Assignment9 Vector-Geometry")
	require.NoError(t, err)
	require.Equal(t, 10, progress.EarnedPoints)
	require.Equal(t, "77%", progress.Percent)
}

func TestProblem(t *testing.T) {
	_, client, _ := newFakeClient(t, testPassword)
	ctx := context.Background()

	detail, err := client.Problem(ctx, "Assignment9 Vector-Geometry", 1)
	require.NoError(t, err)
	require.Equal(t, client.ClassUrl.String()+"/Assignment9_Vector-Geometry/1/?effectiveUser=jdoe", detail.Url)
	require.Equal(t, 3, detail.Attempts)
	require.Len(t, detail.AnswerFields, 3)

	_, err = client.Problem(ctx, "Assignment9 Vector-Geometry", 42)
	require.ErrorIs(t, err, ErrProblemNotFound)
}

func TestSubmitAnswer(t *testing.T) {
	fake, client, _ := newFakeClient(t, testPassword)
	ctx := context.Background()

	result, err := client.SubmitAnswer(ctx, "Assignment9 Vector-Geometry", 1, map[string]string{
		"AnSwEr0001": "(14,2,10)",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "All of the answers above are correct.", result.Message)
	require.Equal(t, "Your score on this attempt is 100%.", result.ScoreSummary)
	require.Len(t, result.Results, 2)

	form := fake.form()
	require.Equal(t, "Submit Answers", form.Get("submitAnswers"))
	require.Equal(t, "SeSsIoNkEy", form.Get("key"))
	require.Equal(t, "(14,2,10)", form.Get("AnSwEr0001"))
	require.Equal(t, "(1,2,3)", form.Get("previous_AnSwEr0001"))
	require.Empty(t, form.Get("previewAnswers"))
}

func TestSubmitAnswerWithoutResults(t *testing.T) {
	_, client, _ := newFakeClient(t, testPassword)

	result, err := client.SubmitAnswer(context.Background(), "Assignment9 Vector-Geometry", 1, map[string]string{})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Empty(t, result.Results)
	require.Equal(t, "Your overall recorded score is 100%.", result.Message)
}

func TestSubmitAnswerMissingProblem(t *testing.T) {
	_, client, _ := newFakeClient(t, testPassword)

	result, err := client.SubmitAnswer(context.Background(), "Assignment9 Vector-Geometry", 7, map[string]string{})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "Could not load problem 7 from Assignment9 Vector-Geometry.", result.Message)
}

func TestSubmitAnswerTransportFailure(t *testing.T) {
	fake, client, tel := newFakeClient(t, testPassword)
	fake.dropPosts = true

	result, err := client.SubmitAnswer(context.Background(), "Assignment9 Vector-Geometry", 1, map[string]string{
		"AnSwEr0001": "(14,2,10)",
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.NotNil(t, result.Results)
	require.Empty(t, result.Results)
	require.NotEmpty(t, result.Message)
	require.Contains(t, tel.BrokenIds(), "webwork_scraper: "+report_client_submit)
}

func TestPreviewAnswerTransportFailure(t *testing.T) {
	fake, client, _ := newFakeClient(t, testPassword)
	fake.dropPosts = true

	result, err := client.PreviewAnswer(context.Background(), "Assignment9 Vector-Geometry", 1, map[string]string{
		"AnSwEr0001": "(14,2,10)",
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.NotNil(t, result.Previews)
	require.Empty(t, result.Previews)
	require.NotEmpty(t, result.Message)
}

func TestPreviewAnswer(t *testing.T) {
	fake, client, _ := newFakeClient(t, testPassword)

	result, err := client.PreviewAnswer(context.Background(), "Assignment9 Vector-Geometry", 1, map[string]string{
		"AnSwEr0001": "(14,2,10)",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "Preview generated (no attempt used).", result.Message)
	require.Equal(t, []AnswerPreview{
		{Field: "answer 1", Entered: "(14,2,10)", Preview: `\left(14,2,10\right)`},
		{Field: "answer 2", Entered: "sqrt(5)", Preview: ""},
	}, result.Previews)

	form := fake.form()
	require.Equal(t, "Preview My Answers", form.Get("previewAnswers"))
	require.Empty(t, form.Get("submitAnswers"))
}

func TestCourseInfo(t *testing.T) {
	_, client, _ := newFakeClient(t, testPassword)

	info, err := client.CourseInfo(context.Background())
	require.NoError(t, err)

	require.Equal(t, testCourse, info.ClassName)
	require.Equal(t, testUser, info.Username)
	require.Equal(t, 4, info.TotalSets)
	require.Equal(t, 3, info.OpenSetsCount)
	require.Equal(t, 1, info.ClosedSetsCount)
	require.Equal(t, []ClosedSetSummary{{
		Name:    "Assignment1 Review",
		DueDate: "Closed",
		Status:  "Closed, answers available.",
	}}, info.ClosedSets)

	require.Equal(t, 10, info.OpenSets[0].EarnedPoints)
	require.Equal(t, []int{3, 0}, info.OpenSets[0].CompletedProblems)

	// sets without a problem table degrade to an empty summary
	require.Equal(t, "N/A", info.OpenSets[1].Percent)
	require.Equal(t, 0, info.OpenSets[1].TotalProblems)
	require.Empty(t, info.OpenSets[1].RemainingProblems)
}

func TestDownloadHardcopy(t *testing.T) {
	fake, client, _ := newFakeClient(t, testPassword)
	fake.hardcopyHeader = `attachment; filename="hw9.pdf"`
	dir := filepath.Join(t.TempDir(), "nested", "pdfs")

	result, err := client.DownloadHardcopy(context.Background(), "Assignment9 Vector-Geometry", HardcopyOptions{
		Dir:            dir,
		IncludeAnswers: true,
	})
	require.NoError(t, err)
	require.True(t, result.Success, result.Message)
	require.Equal(t, filepath.Join(dir, "hw9.pdf"), result.Path)
	require.Equal(t, "Saved 13 bytes to "+result.Path, result.Message)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 fake", string(data))

	form := fake.form()
	require.Equal(t, "pdf", form.Get("hardcopy_format"))
	require.Equal(t, "Generate Hardcopy", form.Get("generate_hardcopy"))
	require.Equal(t, "on", form.Get("printStudentAnswers"))
	require.Equal(t, "Assignment9_Vector-Geometry", form.Get("selected_sets"))
	require.Empty(t, form.Get("showComments"))
	require.NotContains(t, form, ".cgifields")
}

func TestDownloadHardcopyFallbackName(t *testing.T) {
	_, client, _ := newFakeClient(t, testPassword)
	dir := t.TempDir()

	result, err := client.DownloadHardcopy(context.Background(), "Assignment9 Vector-Geometry", HardcopyOptions{
		Dir:             dir,
		IncludeComments: true,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, filepath.Join(dir, "Math221.jdoe.Assignment9_Vector-Geometry.pdf"), result.Path)
}

func TestDownloadHardcopyUnsafeName(t *testing.T) {
	for _, header := range []string{
		`attachment; filename=".."`,
		`attachment; filename="../.."`,
		`attachment; filename=" "`,
		`attachment; filename="/"`,
	} {
		fake, client, _ := newFakeClient(t, testPassword)
		fake.hardcopyHeader = header
		dir := t.TempDir()

		result, err := client.DownloadHardcopy(context.Background(), "Assignment9 Vector-Geometry", HardcopyOptions{Dir: dir})
		require.NoError(t, err, header)
		require.True(t, result.Success, header)
		require.Equal(t, filepath.Join(dir, "Math221.jdoe.Assignment9_Vector-Geometry.pdf"), result.Path, header)
	}
}

func TestDownloadHardcopyTransportFailure(t *testing.T) {
	fake, client, _ := newFakeClient(t, testPassword)
	fake.dropPosts = true
	dir := filepath.Join(t.TempDir(), "never-created")

	result, err := client.DownloadHardcopy(context.Background(), "Assignment9 Vector-Geometry", HardcopyOptions{Dir: dir})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Message)
	require.Empty(t, result.Path)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	require.NotContains(t, string(encoded), `"path"`)

	_, err = os.Stat(dir)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDownloadHardcopyNotPdf(t *testing.T) {
	fake, client, _ := newFakeClient(t, testPassword)
	fake.hardcopyType = "text/html"
	dir := filepath.Join(t.TempDir(), "never-created")

	result, err := client.DownloadHardcopy(context.Background(), "Assignment9 Vector-Geometry", HardcopyOptions{Dir: dir})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Empty(t, result.Path)
	require.Equal(
		t,
		"Expected PDF but got Content-Type: text/html. The server may not support hardcopy for this set.",
		result.Message,
	)

	_, err = os.Stat(dir)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDownloadHardcopyMissingForm(t *testing.T) {
	_, client, _ := newFakeClient(t, testPassword)

	result, err := client.DownloadHardcopy(context.Background(), "Nope", HardcopyOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "Could not find the hardcopy form on the page.", result.Message)
}
