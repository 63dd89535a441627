package webwork

import (
	"webwork-assist/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var answerFieldPrefixes = []string{"AnSwEr", "MuLtIaNsWeR_AnSwEr"}

// extractAnswerFields collects the inputs a student is expected to fill, followed by any answer
// dropdowns.
func extractAnswerFields(body *goquery.Selection) []AnswerField {
	fields := []AnswerField{}

	body.Find("input").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		inputType := input.AttrOr("type", "text")
		if inputType == "hidden" {
			return
		}
		if hasAnyPrefix(name, "previous_", "MaThQuIlL_") {
			return
		}
		if !hasAnyPrefix(name, answerFieldPrefixes...) {
			return
		}
		fields = append(fields, AnswerField{
			Name:  name,
			Type:  inputType,
			Value: input.AttrOr("value", ""),
			Label: input.AttrOr("aria-label", ""),
		})
	})

	body.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if !hasAnyPrefix(name, answerFieldPrefixes...) {
			return
		}
		options := []string{}
		sel.Find("option").Each(func(_ int, option *goquery.Selection) {
			options = append(options, htmlutil.Text(option))
		})
		fields = append(fields, AnswerField{
			Name:    name,
			Type:    "select",
			Label:   sel.AttrOr("aria-label", ""),
			Options: options,
		})
	})

	return fields
}

// extractHiddenFields returns the named hidden inputs of form, except those whose name is in skip.
func extractHiddenFields(form *goquery.Selection, skip ...string) map[string]string {
	fields := map[string]string{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		for _, s := range skip {
			if name == s {
				return
			}
		}
		fields[name] = input.AttrOr("value", "")
	})
	return fields
}
