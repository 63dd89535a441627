package webwork

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"webwork-assist/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	closesRegex = regexp.MustCompile(`(?i)closes\s+(.+?)(?:\.|$)`)
	closedRegex = regexp.MustCompile(`(?i)closed`)
	numberRegex = regexp.MustCompile(`\d+`)
)

// ExtractDueDate pulls the due date out of a set status like
// "Open, closes 03/29/2026 at 11:30pm PDT.".
func ExtractDueDate(status string) string {
	groups := closesRegex.FindStringSubmatch(status)
	if len(groups) >= 2 {
		return strings.TrimSpace(groups[1])
	}
	if closedRegex.MatchString(status) {
		return "Closed"
	}
	return status
}

func isOpenStatus(status string) bool {
	return strings.Contains(strings.ToLower(status), "open")
}

// parseRows calls parse on the cells of every body row of table that has at least minCells cells.
func parseRows[T any](table *goquery.Selection, minCells int, parse func(cells *goquery.Selection) (T, bool)) []T {
	out := make([]T, 0)
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minCells {
			return
		}
		record, ok := parse(cells)
		if !ok {
			return
		}
		out = append(out, record)
	})
	return out
}

func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return htmlutil.Text(cells.Eq(i))
}

// digits parses s only when it is made entirely of ascii digits, anything else is 0.
func digits(s string) int {
	if s == "" {
		return 0
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func anchorUrl(anchor htmlutil.Anchor) string {
	if anchor.Url == nil {
		return ""
	}
	return anchor.Url.String()
}

func parseSetList(base *url.URL, doc *goquery.Document) []HomeworkSet {
	table := doc.Find("table.problem_set_table").First()
	return parseRows(table, 2, func(cells *goquery.Selection) (HomeworkSet, bool) {
		anchor, ok := htmlutil.GetAnchor(base, cells.Eq(0))
		if !ok {
			return HomeworkSet{}, false
		}
		status := cellText(cells, 1)
		return HomeworkSet{
			Name:    anchor.Name,
			Url:     anchorUrl(anchor),
			Status:  status,
			DueDate: ExtractDueDate(status),
		}, true
	})
}

func parseSetDetail(base *url.URL, doc *goquery.Document) []Problem {
	table := doc.Find("table.problem_set_table").First()
	return parseRows(table, 5, func(cells *goquery.Selection) (Problem, bool) {
		anchor, ok := htmlutil.GetAnchor(base, cells.Eq(0))
		if !ok {
			return Problem{}, false
		}
		number := 0
		if match := numberRegex.FindString(anchor.Name); match != "" {
			number, _ = strconv.Atoi(match)
		}
		return Problem{
			Number:    number,
			Name:      anchor.Name,
			Url:       anchorUrl(anchor),
			Attempts:  digits(cellText(cells, 1)),
			Remaining: cellText(cells, 2),
			Worth:     digits(cellText(cells, 3)),
			Status:    cellText(cells, 4),
		}, true
	})
}

func parseGrades(doc *goquery.Document) []ClassGrade {
	table := doc.Find("table.grade_table").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	return parseRows(table, 3, func(cells *goquery.Selection) (ClassGrade, bool) {
		return ClassGrade{
			SetName: cellText(cells, 0),
			Score:   cellText(cells, 1),
			OutOf:   cellText(cells, 2),
			Percent: cellText(cells, 3),
		}, true
	})
}

func parseAttemptResults(doc *goquery.Document) []AttemptResult {
	return parseRows(doc.Find("table.attemptResults"), 3, func(cells *goquery.Selection) (AttemptResult, bool) {
		return AttemptResult{
			Field:   cellText(cells, 0),
			Entered: cellText(cells, 1),
			Result:  cellText(cells, 2),
		}, true
	})
}

func parseAnswerPreviews(doc *goquery.Document) []AnswerPreview {
	return parseRows(doc.Find("table.attemptResults"), 2, func(cells *goquery.Selection) (AnswerPreview, bool) {
		return AnswerPreview{
			Field:   cellText(cells, 0),
			Entered: cellText(cells, 1),
			Preview: cellText(cells, 2),
		}, true
	})
}
