package webwork

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

var (
	attemptsRegex  = regexp.MustCompile(`attempted this problem\s+(\d+)\s+time`)
	remainingRegex = regexp.MustCompile(`You have\s+(unlimited|\d+)\s+attempts?\s+remaining`)
	percentRegex   = regexp.MustCompile(`(\d+)%`)
)

func (c *Client) problemUrl(setName string, number int) string {
	return c.courseUrl(setSlug(setName), strconv.Itoa(number))
}

// Problem fetches a single problem page, ErrProblemNotFound is returned when the page has no
// problem body.
func (c *Client) Problem(ctx context.Context, setName string, number int) (ProblemDetail, error) {
	err := c.ensureLogin(ctx)
	if err != nil {
		return ProblemDetail{}, err
	}

	endpoint := c.problemUrl(setName, number)
	p, err := c.fetch(ctx, report_client_get_problem, endpoint)
	if err != nil {
		return ProblemDetail{}, fmt.Errorf("webwork scraper: get problem %d of %s: %w", number, setName, err)
	}

	detail, ok := parseProblemPage(p, number, endpoint)
	if !ok {
		return ProblemDetail{}, fmt.Errorf("%w: problem %d in '%s'", ErrProblemNotFound, number, setName)
	}
	return detail, nil
}

func parseProblemPage(p page, number int, endpoint string) (ProblemDetail, bool) {
	body := p.doc.Find("#problem_body").First()
	if body.Length() == 0 {
		return ProblemDetail{}, false
	}

	detail := ProblemDetail{
		Problem: Problem{
			Number:    number,
			Name:      fmt.Sprintf("Problem %d", number),
			Url:       endpoint,
			Remaining: "unknown",
			Worth:     1,
			Status:    "0%",
		},
		BodyText:     BodyText(body.Nodes[0]),
		BodyLatex:    BodyLatex(body.Nodes[0]),
		AnswerFields: extractAnswerFields(body),
		HiddenFields: extractHiddenFields(p.doc.Find("#problemMainForm").First()),
	}

	if groups := attemptsRegex.FindStringSubmatch(p.raw); len(groups) >= 2 {
		detail.Attempts, _ = strconv.Atoi(groups[1])
	}
	if groups := remainingRegex.FindStringSubmatch(p.raw); len(groups) >= 2 {
		detail.Remaining = groups[1]
	}
	detail.Status = scoreStatus(p.doc, detail.Status)

	return detail, true
}

func scoreStatus(doc *goquery.Document, fallback string) string {
	summary := doc.Find("#score_summary").First()
	if summary.Length() == 0 {
		return fallback
	}
	if match := percentRegex.FindString(summary.Text()); match != "" {
		return match
	}
	return fallback
}
