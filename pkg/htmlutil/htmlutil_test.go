package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, src string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestText(t *testing.T) {
	doc := parse(t, `<table><tr><td>
		Open,   closes
		03/29/2026 at 11:30pm PDT.
	</td></tr></table>`)
	require.Equal(t, "Open, closes 03/29/2026 at 11:30pm PDT.", Text(doc.Find("td")))
}

func TestStrippedStrings(t *testing.T) {
	doc := parse(t, `<div id="b">  Find <script type="math/tex">x^2</script> the <b> value </b>
	<style>.a{}</style>
	</div>`)
	require.Equal(t, []string{"Find", "the", "value"}, StrippedStrings(doc.Find("#b").Nodes[0]))
}

func TestGetAnchor(t *testing.T) {
	base, err := url.Parse("https://webwork.example.edu/webwork2/Math221/")
	require.NoError(t, err)

	doc := parse(t, `<table><tr>
		<td><a href="/webwork2/Math221/Assignment1/"> Assignment1 </a></td>
		<td>no link</td>
	</tr></table>`)
	cells := doc.Find("td")

	anchor, ok := GetAnchor(base, cells.Eq(0))
	require.True(t, ok)
	require.Equal(t, "Assignment1", anchor.Name)
	require.Equal(t, "https://webwork.example.edu/webwork2/Math221/Assignment1/", anchor.Url.String())

	_, ok = GetAnchor(base, cells.Eq(1))
	require.False(t, ok)
}
