package webwork

import (
	"context"
	"fmt"
	"strings"
	"time"
	"webwork-assist/pkg/htmlutil"
)

const (
	submitMarker  = "submitAnswers"
	previewMarker = "previewAnswers"
)

// answerPayload merges the problem's hidden fields with the given answers, the current value of
// each field is echoed back as its previous answer.
func answerPayload(problem ProblemDetail, answers map[string]string, marker, markerValue string) map[string]string {
	payload := make(map[string]string, len(problem.HiddenFields)+len(problem.AnswerFields)*2+1)
	for name, value := range problem.HiddenFields {
		payload[name] = value
	}
	payload[marker] = markerValue
	for _, field := range problem.AnswerFields {
		payload[field.Name] = answers[field.Name]
		payload["previous_"+field.Name] = field.Value
	}
	return payload
}

func couldNotLoad(setName string, number int) string {
	return fmt.Sprintf("Could not load problem %d from %s.", number, setName)
}

// SubmitAnswer submits answers for a problem, this uses up an attempt. The submission is only
// successful when at least one result row was parsed and every row is marked correct.
func (c *Client) SubmitAnswer(ctx context.Context, setName string, number int, answers map[string]string) (SubmitResult, error) {
	err := c.ensureLogin(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	start := time.Now()
	c.tel.ReportDebug(report_client_submit, c.Course, setName, number)

	problem, err := c.Problem(ctx, setName, number)
	if err != nil {
		c.tel.ReportWarning(report_client_submit, fmt.Errorf("load problem: %w", err))
		return SubmitResult{
			Message: couldNotLoad(setName, number),
			Results: []AttemptResult{},
		}, nil
	}

	postCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	endpoint := c.problemUrl(setName, number)
	res, err := c.http.R().
		SetContext(postCtx).
		SetFormData(answerPayload(problem, answers, submitMarker, "Submit Answers")).
		Post(endpoint)
	if err != nil {
		c.tel.ReportBroken(
			report_client_submit,
			fmt.Errorf("submit request: %w", err),
			endpoint,
			time.Since(start).String(),
		)
		return SubmitResult{Message: err.Error(), Results: []AttemptResult{}}, nil
	}

	p, err := c.parsePage(report_client_submit, endpoint, res)
	if err != nil {
		return SubmitResult{Message: err.Error(), Results: []AttemptResult{}}, nil
	}

	result := SubmitResult{Results: parseAttemptResults(p.doc)}
	if summary := p.doc.Find("#score_summary").First(); summary.Length() > 0 {
		result.ScoreSummary = htmlutil.Text(summary)
	}
	if message := p.doc.Find("#Message").First(); message.Length() > 0 {
		result.Message = htmlutil.Text(message)
	}
	if result.Message == "" {
		result.Message = result.ScoreSummary
	}
	result.Success = allCorrect(result.Results)

	c.tel.ReportDebug(report_client_submit, setName, number, result.Success, time.Since(start).String())
	return result, nil
}

func allCorrect(results []AttemptResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !strings.Contains(strings.ToLower(r.Result), "correct") {
			return false
		}
	}
	return true
}

// PreviewAnswer renders the given answers without using an attempt.
func (c *Client) PreviewAnswer(ctx context.Context, setName string, number int, answers map[string]string) (PreviewResult, error) {
	err := c.ensureLogin(ctx)
	if err != nil {
		return PreviewResult{}, err
	}

	problem, err := c.Problem(ctx, setName, number)
	if err != nil {
		c.tel.ReportWarning(report_client_preview, fmt.Errorf("load problem: %w", err))
		return PreviewResult{
			Message:  couldNotLoad(setName, number),
			Previews: []AnswerPreview{},
		}, nil
	}

	endpoint := c.problemUrl(setName, number)
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(answerPayload(problem, answers, previewMarker, "Preview My Answers")).
		Post(endpoint)
	if err != nil {
		c.tel.ReportBroken(report_client_preview, fmt.Errorf("preview request: %w", err), endpoint)
		return PreviewResult{Message: err.Error(), Previews: []AnswerPreview{}}, nil
	}

	p, err := c.parsePage(report_client_preview, endpoint, res)
	if err != nil {
		return PreviewResult{Message: err.Error(), Previews: []AnswerPreview{}}, nil
	}

	return PreviewResult{
		Success:  true,
		Message:  "Preview generated (no attempt used).",
		Previews: parseAnswerPreviews(p.doc),
	}, nil
}
