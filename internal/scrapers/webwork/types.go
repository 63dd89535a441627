package webwork

import "errors"

var (
	ErrLoginFailed     = errors.New("failed to log in")
	ErrSetNotFound     = errors.New("set not found")
	ErrProblemNotFound = errors.New("problem not found")
)

// CompletedStatus is the only status that marks a problem as done.
const CompletedStatus = "100%"

type Problem struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Url       string `json:"url"`
	Attempts  int    `json:"attempts"`
	Remaining string `json:"remaining"`
	Worth     int    `json:"worth"`
	Status    string `json:"status"`
}

func (p Problem) Completed() bool {
	return p.Status == CompletedStatus
}

type AnswerField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
	// Options is only set for select fields.
	Options []string `json:"options,omitempty"`
}

type ProblemDetail struct {
	Problem
	BodyText     string            `json:"body_text"`
	BodyLatex    string            `json:"body_latex"`
	AnswerFields []AnswerField     `json:"answer_fields"`
	HiddenFields map[string]string `json:"hidden_fields"`
}

type HomeworkSet struct {
	Name    string `json:"name"`
	Url     string `json:"url"`
	Status  string `json:"status"`
	DueDate string `json:"due_date"`
	// Problems stays empty until the set's detail page is fetched.
	Problems []Problem `json:"problems"`
}

// Open reports whether the status text mentions the set being open.
func (s HomeworkSet) Open() bool {
	return isOpenStatus(s.Status)
}

type ClassGrade struct {
	SetName string `json:"set_name"`
	Score   string `json:"score"`
	OutOf   string `json:"out_of"`
	Percent string `json:"percent"`
}

type DueDate struct {
	Name    string `json:"name"`
	DueDate string `json:"due_date"`
	Status  string `json:"status"`
}

type AttemptResult struct {
	Field   string `json:"field"`
	Entered string `json:"entered"`
	Result  string `json:"result"`
}

type SubmitResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	ScoreSummary string          `json:"score_summary"`
	Results      []AttemptResult `json:"results"`
}

type AnswerPreview struct {
	Field   string `json:"field"`
	Entered string `json:"entered"`
	Preview string `json:"preview"`
}

type PreviewResult struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Previews []AnswerPreview `json:"previews"`
}

type HardcopyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Path is empty when the download failed.
	Path string `json:"path,omitempty"`
}

type SetProgress struct {
	Name              string `json:"name"`
	Status            string `json:"status"`
	DueDate           string `json:"due_date"`
	TotalProblems     int    `json:"total_problems"`
	CompletedCount    int    `json:"completed_count"`
	TotalPoints       int    `json:"total_points"`
	EarnedPoints      int    `json:"earned_points"`
	Percent           string `json:"percent"`
	CompletedProblems []int  `json:"completed_problems"`
	RemainingProblems []int  `json:"remaining_problems"`
}

type ClosedSetSummary struct {
	Name    string `json:"name"`
	DueDate string `json:"due_date"`
	Status  string `json:"status"`
}

type CourseInfo struct {
	ClassName       string             `json:"class_name"`
	Username        string             `json:"username"`
	Url             string             `json:"url"`
	TotalSets       int                `json:"total_sets"`
	OpenSetsCount   int                `json:"open_sets_count"`
	ClosedSetsCount int                `json:"closed_sets_count"`
	OpenSets        []SetProgress      `json:"open_sets"`
	ClosedSets      []ClosedSetSummary `json:"closed_sets"`
}
