package webwork

import (
	"regexp"
	"strings"
	"webwork-assist/pkg/htmlutil"

	"golang.org/x/net/html"
)

const (
	mathInlineType  = "math/tex"
	mathDisplayType = "math/tex; mode=display"
)

// names with these prefixes belong to previous answers, the MathQuill editor or multi-answer
// bookkeeping and are never shown to the student as fields
var internalFieldPrefixes = []string{"previous_", "MaThQuIlL_", "MuLtIaNsWeR_"}

var blockElements = map[string]bool{
	"div":   true,
	"p":     true,
	"table": true,
	"tr":    true,
	"ul":    true,
	"ol":    true,
	"li":    true,
}

var blankLinesRegex = regexp.MustCompile(`\n{3,}`)

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func attrOr(node *html.Node, key, fallback string) string {
	value, ok := htmlutil.Attr(node, key)
	if !ok {
		return fallback
	}
	return value
}

// BodyLatex renders the children of a problem body as text with math scripts turned back into
// $...$ / $$...$$ and visible inputs turned into [label] placeholders.
func BodyLatex(body *html.Node) string {
	var builder strings.Builder
	writeLatex(&builder, body)
	text := strings.TrimSpace(builder.String())
	return blankLinesRegex.ReplaceAllString(text, "\n\n")
}

func writeLatex(out *strings.Builder, parent *html.Node) {
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			out.WriteString(child.Data)
		case html.ElementNode:
			writeLatexElement(out, child)
		}
	}
}

func writeLatexElement(out *strings.Builder, node *html.Node) {
	switch {
	case node.Data == "script" && attrOr(node, "type", "") == mathInlineType:
		out.WriteString("$" + htmlutil.GetText(node) + "$")
	case node.Data == "script" && attrOr(node, "type", "") == mathDisplayType:
		out.WriteString("$$" + htmlutil.GetText(node) + "$$")
	case node.Data == "br":
		out.WriteString("\n")
	case node.Data == "input":
		name := attrOr(node, "name", "")
		if attrOr(node, "type", "text") == "hidden" {
			return
		}
		if hasAnyPrefix(name, internalFieldPrefixes...) {
			return
		}
		placeholder := name
		if placeholder == "" {
			placeholder = "___"
		}
		out.WriteString("[" + attrOr(node, "aria-label", placeholder) + "]")
	case blockElements[node.Data]:
		out.WriteString("\n")
		writeLatex(out, node)
		out.WriteString("\n")
	default:
		writeLatex(out, node)
	}
}

// BodyText is every visible text fragment of the body, stripped and one per line.
func BodyText(body *html.Node) string {
	return strings.Join(htmlutil.StrippedStrings(body), "\n")
}
