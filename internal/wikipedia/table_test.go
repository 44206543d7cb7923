package wikipedia

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableExpandsSpans(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
<table>
<tr><th>A</th><th>B</th><th>C</th></tr>
<tr><td rowspan="3">a1</td><td colspan="2">bc1</td></tr>
<tr><td>b2</td><td rowspan="2">c2</td></tr>
<tr><td>b3 <sup class="reference">[12]</sup></td></tr>
</table>`))
	require.NoError(t, err)

	tbl := parseTable(doc.Find("table"))
	assert.Equal(t, []string{"A", "B", "C"}, tbl.header)
	assert.Equal(t, [][]string{
		{"a1", "bc1", "bc1"},
		{"a1", "b2", "c2"},
		{"a1", "b3", "c2"},
	}, tbl.rows)
	assert.Equal(t, 1, tbl.column(func(h string) bool { return h == "b" }))
	assert.Equal(t, -1, tbl.column(func(h string) bool { return h == "z" }))
	assert.Empty(t, tbl.cell(0, 7))
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jimmy Kimmel", cleanText("  Jimmy\n\tKimmel[a] "))
	assert.Equal(t, "19.50", cleanText("19.50[23]"))
}

func TestParseTableShortRowConsumesTrailingSpan(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
<table>
<tr><th>#</th><th>A</th><th>B</th><th>C</th></tr>
<tr><td>1st</td><td>a1</td><td>b1</td><td rowspan="2">c1</td></tr>
<tr><td>2nd</td></tr>
<tr><td>3rd</td><td>a3</td><td>b3</td><td>c3</td></tr>
</table>`))
	require.NoError(t, err)

	tbl := parseTable(doc.Find("table"))
	assert.Equal(t, [][]string{
		{"1st", "a1", "b1", "c1"},
		{"2nd", "", "", "c1"},
		{"3rd", "a3", "b3", "c3"},
	}, tbl.rows)
}
