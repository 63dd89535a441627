package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// StrippedStrings returns every visible text node under node with surrounding whitespace removed,
// empty strings and the contents of script/style elements are skipped.
func StrippedStrings(node *html.Node) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				out = append(out, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if node != nil {
		walk(node)
	}
	return out
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Text returns the text of a selection trimmed with inner whitespace runs collapsed.
func Text(sel *goquery.Selection) string {
	text := removeNonPrintable(sel.Text())
	text = strings.TrimSpace(text)
	return innerWhitespace.ReplaceAllString(text, " ")
}

// Attr returns the value of an attribute on a raw node.
func Attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

type Anchor struct {
	Name string
	Url  *url.URL
}

// ResolveHref resolves href against base, absolute hrefs are returned as is.
func ResolveHref(base *url.URL, href string) (*url.URL, error) {
	link, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return link, nil
	}
	return base.ResolveReference(link), nil
}

// GetAnchor reads the first anchor in sel.
func GetAnchor(base *url.URL, sel *goquery.Selection) (Anchor, bool) {
	a := sel.Find("a").First()
	if a.Length() == 0 {
		if goquery.NodeName(sel) != "a" {
			return Anchor{}, false
		}
		a = sel
	}
	link, err := ResolveHref(base, a.AttrOr("href", ""))
	if err != nil {
		return Anchor{}, false
	}
	return Anchor{Name: Text(a), Url: link}, true
}
