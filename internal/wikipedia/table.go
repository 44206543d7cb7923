package wikipedia

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	citationPattern   = regexp.MustCompile(`\[[^\]]{1,8}\]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// table is a rectangular view of an HTML table with spans expanded.
type table struct {
	header []string
	rows   [][]string
}

// column returns the index of the first header accepted by match, or -1.
func (t table) column(match func(string) bool) int {
	for i, h := range t.header {
		if match(strings.ToLower(h)) {
			return i
		}
	}
	return -1
}

// cell returns rows[r][c], or "" when c is out of range.
func (t table) cell(r, c int) string {
	if c < 0 || c >= len(t.rows[r]) {
		return ""
	}
	return t.rows[r][c]
}

type pendingSpan struct {
	text      string
	remaining int
}

// parseTable reads sel the way a tabular reader would: the first row names the
// columns, rowspan and colspan are expanded, and cell text is cleaned.
func parseTable(sel *goquery.Selection) table {
	var grid [][]string
	// carry tracks rowspans that still cover upcoming rows, by column.
	carry := map[int]*pendingSpan{}

	tableRows(sel).Each(func(_ int, tr *goquery.Selection) {
		var row []string
		col := 0
		fill := func() {
			for {
				span, ok := carry[col]
				if !ok {
					return
				}
				row = append(row, span.text)
				span.remaining--
				if span.remaining == 0 {
					delete(carry, col)
				}
				col++
			}
		}

		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			fill()
			text := cellText(cell)
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")
			for i := 0; i < colspan; i++ {
				row = append(row, text)
				if rowspan > 1 {
					carry[col] = &pendingSpan{text: text, remaining: rowspan - 1}
				}
				col++
			}
		})
		fill()
		// A short row still consumes the spans that cover columns it never reached.
		for last := lastCarried(carry); col <= last; {
			if _, ok := carry[col]; ok {
				fill()
				continue
			}
			row = append(row, "")
			col++
		}
		if len(row) > 0 {
			grid = append(grid, row)
		}
	})

	if len(grid) == 0 {
		return table{}
	}
	return table{header: grid[0], rows: grid[1:]}
}

func lastCarried(carry map[int]*pendingSpan) int {
	last := -1
	for c := range carry {
		if c > last {
			last = c
		}
	}
	return last
}

// tableRows selects the rows of sel without descending into nested tables.
// The HTML parser always wraps bare rows in a tbody.
func tableRows(sel *goquery.Selection) *goquery.Selection {
	return sel.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr")
}

func spanAttr(cell *goquery.Selection, name string) int {
	raw, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// cellText extracts visible text from a cell: footnotes, hidden sort keys and
// styles are dropped, line breaks become separators.
func cellText(cell *goquery.Selection) string {
	c := cell.Clone()
	c.Find("sup.reference, .sortkey, .reference, style, script").Remove()
	c.Find(`[style*="display:none"], [style*="display: none"]`).Remove()
	c.Find("br").ReplaceWithHtml(", ")
	return cleanText(c.Text())
}

func cleanText(s string) string {
	s = citationPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
