package webwork

import (
	"context"
	"fmt"
	"webwork-assist/pkg/textutil"
)

// AllSets lists every homework set on the course page, their problems are left empty.
func (c *Client) AllSets(ctx context.Context) ([]HomeworkSet, error) {
	err := c.ensureLogin(ctx)
	if err != nil {
		return nil, err
	}

	p, err := c.fetch(ctx, report_client_get_sets, c.ClassUrl.String())
	if err != nil {
		return nil, fmt.Errorf("webwork scraper: get sets: %w", err)
	}
	sets := parseSetList(p.url, p.doc)
	if len(sets) == 0 {
		c.tel.ReportWarning(report_client_get_sets, "no sets found", c.Course)
	}
	return sets, nil
}

func (c *Client) OpenSets(ctx context.Context) ([]HomeworkSet, error) {
	sets, err := c.AllSets(ctx)
	if err != nil {
		return nil, err
	}
	open := []HomeworkSet{}
	for _, s := range sets {
		if s.Open() {
			open = append(open, s)
		}
	}
	return open, nil
}

func (c *Client) DueDates(ctx context.Context) ([]DueDate, error) {
	sets, err := c.AllSets(ctx)
	if err != nil {
		return nil, err
	}
	dates := make([]DueDate, len(sets))
	for i, s := range sets {
		dates[i] = DueDate{Name: s.Name, DueDate: s.DueDate, Status: s.Status}
	}
	return dates, nil
}

func setNotFound(name string, sets []HomeworkSet) error {
	names := make([]string, len(sets))
	for i, s := range sets {
		names[i] = s.Name
	}
	if suggestion, ok := textutil.ClosestName(name, names); ok {
		return fmt.Errorf("%w: '%s' (did you mean '%s'?)", ErrSetNotFound, name, suggestion)
	}
	return fmt.Errorf("%w: '%s'", ErrSetNotFound, name)
}

// SetInfo finds the set with exactly the given name and fills in its problems from the set page.
func (c *Client) SetInfo(ctx context.Context, setName string) (HomeworkSet, error) {
	sets, err := c.AllSets(ctx)
	if err != nil {
		return HomeworkSet{}, err
	}

	var set HomeworkSet
	found := false
	for _, s := range sets {
		if s.Name == setName {
			set = s
			found = true
			break
		}
	}
	if !found {
		return HomeworkSet{}, setNotFound(setName, sets)
	}

	return c.setDetail(ctx, set)
}

func (c *Client) setDetail(ctx context.Context, set HomeworkSet) (HomeworkSet, error) {
	p, err := c.fetch(ctx, report_client_get_set_info, set.Url)
	if err != nil {
		return HomeworkSet{}, fmt.Errorf("webwork scraper: get set %s: %w", set.Name, err)
	}
	set.Problems = parseSetDetail(p.url, p.doc)
	return set, nil
}

// SetProgress summarizes how many points of a set are done.
func (c *Client) SetProgress(ctx context.Context, setName string) (SetProgress, error) {
	set, err := c.SetInfo(ctx, setName)
	if err != nil {
		return SetProgress{}, err
	}
	return SummarizeSet(set), nil
}

func percentOf(earned, total int) string {
	if total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", float64(earned)/float64(total)*100)
}

// SummarizeSet computes the progress of a set whose problems have been fetched.
func SummarizeSet(set HomeworkSet) SetProgress {
	progress := SetProgress{
		Name:              set.Name,
		Status:            set.Status,
		DueDate:           set.DueDate,
		TotalProblems:     len(set.Problems),
		CompletedProblems: []int{},
		RemainingProblems: []int{},
	}
	for _, p := range set.Problems {
		progress.TotalPoints += p.Worth
		if p.Completed() {
			progress.EarnedPoints += p.Worth
			progress.CompletedProblems = append(progress.CompletedProblems, p.Number)
			continue
		}
		progress.RemainingProblems = append(progress.RemainingProblems, p.Number)
	}
	progress.CompletedCount = len(progress.CompletedProblems)
	progress.Percent = percentOf(progress.EarnedPoints, progress.TotalPoints)
	return progress
}

func (c *Client) Grades(ctx context.Context) ([]ClassGrade, error) {
	err := c.ensureLogin(ctx)
	if err != nil {
		return nil, err
	}
	p, err := c.fetch(ctx, report_client_get_grades, c.courseUrl("grades"))
	if err != nil {
		return nil, fmt.Errorf("webwork scraper: get grades: %w", err)
	}
	return parseGrades(p.doc), nil
}

// CourseInfo is an overview of the course, open sets are fetched for their progress while closed
// sets are only listed.
func (c *Client) CourseInfo(ctx context.Context) (CourseInfo, error) {
	sets, err := c.AllSets(ctx)
	if err != nil {
		return CourseInfo{}, err
	}

	info := CourseInfo{
		ClassName:  c.Course,
		Username:   c.Username,
		Url:        c.ClassUrl.String(),
		TotalSets:  len(sets),
		OpenSets:   []SetProgress{},
		ClosedSets: []ClosedSetSummary{},
	}

	for _, s := range sets {
		if !s.Open() {
			info.ClosedSets = append(info.ClosedSets, ClosedSetSummary{
				Name:    s.Name,
				DueDate: s.DueDate,
				Status:  s.Status,
			})
			continue
		}

		detail, err := c.setDetail(ctx, s)
		if err != nil {
			c.tel.ReportWarning(report_client_course_info, fmt.Errorf("set %s: %w", s.Name, err))
			detail = s
		}
		info.OpenSets = append(info.OpenSets, SummarizeSet(detail))
	}

	info.OpenSetsCount = len(info.OpenSets)
	info.ClosedSetsCount = len(info.ClosedSets)
	return info, nil
}
