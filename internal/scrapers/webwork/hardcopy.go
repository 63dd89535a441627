package webwork

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var filenameRegex = regexp.MustCompile(`filename="?([^";\n]+)"?`)

type HardcopyOptions struct {
	// Dir is created when it does not exist, empty means the working directory.
	Dir             string
	IncludeAnswers  bool
	IncludeComments bool
}

func hardcopyFailure(message string) HardcopyResult {
	return HardcopyResult{Message: message}
}

// DownloadHardcopy generates a PDF of a set through the hardcopy form and saves it under opts.Dir.
func (c *Client) DownloadHardcopy(ctx context.Context, setName string, opts HardcopyOptions) (HardcopyResult, error) {
	err := c.ensureLogin(ctx)
	if err != nil {
		return HardcopyResult{}, err
	}

	slug := setSlug(setName)
	endpoint := c.courseUrl("hardcopy", slug)

	p, err := c.fetch(ctx, report_client_hardcopy, endpoint)
	if err != nil {
		return hardcopyFailure(err.Error()), nil
	}

	form := p.doc.Find("#hardcopy-form").First()
	if form.Length() == 0 {
		c.tel.ReportWarning(report_client_hardcopy, "no hardcopy form", endpoint)
		return hardcopyFailure("Could not find the hardcopy form on the page."), nil
	}

	payload := extractHiddenFields(form, ".cgifields")
	payload["hardcopy_format"] = "pdf"
	payload["generate_hardcopy"] = "Generate Hardcopy"
	if opts.IncludeAnswers {
		payload["printStudentAnswers"] = "on"
	}
	if opts.IncludeComments {
		payload["showComments"] = "on"
	}

	postUrl := endpoint
	if action := form.AttrOr("action", ""); action != "" {
		resolved, err := p.url.Parse(action)
		if err != nil {
			c.tel.ReportBroken(report_client_hardcopy, fmt.Errorf("parse form action: %w", err), action)
			return hardcopyFailure(err.Error()), nil
		}
		postUrl = resolved.String()
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(payload).
		Post(postUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_hardcopy, fmt.Errorf("generate request: %w", err), postUrl)
		return hardcopyFailure(err.Error()), nil
	}

	contentType := res.Header().Get("Content-Type")
	if !strings.Contains(contentType, "application/pdf") {
		return hardcopyFailure(fmt.Sprintf(
			"Expected PDF but got Content-Type: %s. The server may not support hardcopy for this set.",
			contentType,
		)), nil
	}

	filename := fmt.Sprintf("%s.%s.%s.pdf", c.Course, c.Username, slug)
	if groups := filenameRegex.FindStringSubmatch(res.Header().Get("Content-Disposition")); len(groups) >= 2 {
		// the server picks the name, it must not leave the target directory
		served := filepath.Base(strings.TrimSpace(groups[1]))
		if served != "." && served != ".." && served != string(filepath.Separator) {
			filename = served
		}
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, filename)

	err = os.MkdirAll(dir, 0755)
	if err != nil {
		c.tel.ReportBroken(report_client_hardcopy, fmt.Errorf("create dir: %w", err), dir)
		return HardcopyResult{}, fmt.Errorf("webwork scraper: save hardcopy: %w", err)
	}
	body := res.Body()
	err = os.WriteFile(path, body, 0644)
	if err != nil {
		c.tel.ReportBroken(report_client_hardcopy, fmt.Errorf("write file: %w", err), path)
		return HardcopyResult{}, fmt.Errorf("webwork scraper: save hardcopy: %w", err)
	}

	return HardcopyResult{
		Success: true,
		Message: fmt.Sprintf("Saved %d bytes to %s", len(body), path),
		Path:    path,
	}, nil
}
