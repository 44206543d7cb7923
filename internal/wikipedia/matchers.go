package wikipedia

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// matcher is one structural pattern. Lists of matchers are tried in order and
// the first that yields nodes wins.
type matcher struct {
	name string
	expr *xpath.Expr
}

var (
	ceremoniesTableExpr  = xpath.MustCompile(`//*[@id='Ceremonies']/../following-sibling::table[1]`)
	nominationsTableExpr = xpath.MustCompile(`//*[@id='Winners_and_nominees']/../following-sibling::table[1]`)
	categoryCellExpr     = xpath.MustCompile(`.//tbody/tr/td`)
	nomineeExpr          = xpath.MustCompile(`.//ul/li/ul/li/i/a`)
)

var winnerMatchers = []matcher{
	{name: "bold-italic", expr: xpath.MustCompile(`.//ul/li/b/i/a`)},
	{name: "italic-bold", expr: xpath.MustCompile(`.//ul/li/i/b/a`)},
}

var categoryMatchers = []matcher{
	{name: "bold-link", expr: xpath.MustCompile(`.//div/b/a`)},
	{name: "bold", expr: xpath.MustCompile(`.//div/b`)},
}

// firstMatch returns the nodes of the first matcher that hits, or nil.
func firstMatch(node *html.Node, matchers []matcher) []*html.Node {
	for _, m := range matchers {
		if nodes := htmlquery.QuerySelectorAll(node, m.expr); len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

// nodeText returns a link or label as written. Brackets are part of titles
// here, so only surrounding whitespace is dropped.
func nodeText(n *html.Node) string {
	return strings.TrimSpace(htmlquery.InnerText(n))
}
