// Package document turns HTML pages into generic row/cell grids.
//
// Tables are not bound to fixed column positions: every table is a list of
// rows, every row keeps its header cells and data cells apart, and anchors are
// kept with their attributes so extractors can match on labels and classes.
package document

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor element found inside a cell or a row.
type Link struct {
	Attrs   map[string]string
	Href    string
	Text    string
	Classes []string
}

// HasClass reports whether the anchor carries the given CSS class.
func (l Link) HasClass(class string) bool {
	return slices.Contains(l.Classes, class)
}

// Attr returns the value of an attribute and whether it was present.
func (l Link) Attr(name string) (string, bool) {
	v, ok := l.Attrs[name]

	return v, ok
}

// Cell is a th or td element.
type Cell struct {
	// Text is the concatenated text content, untrimmed.
	Text  string
	Links []Link
}

// TrimmedText returns the cell text without surrounding whitespace.
func (c Cell) TrimmedText() string {
	return strings.TrimSpace(c.Text)
}

// FirstLink returns the first anchor of the cell.
func (c Cell) FirstLink() (Link, bool) {
	if len(c.Links) == 0 {
		return Link{}, false
	}

	return c.Links[0], true
}

// Row is a tr element.
type Row struct {
	Headers []Cell
	Data    []Cell
	// Links holds every anchor of the row, in document order.
	Links []Link
}

// FirstHeader returns the first header cell of the row.
func (r Row) FirstHeader() (Cell, bool) {
	if len(r.Headers) == 0 {
		return Cell{}, false
	}

	return r.Headers[0], true
}

// LinksWithClass returns the row anchors carrying class.
func (r Row) LinksWithClass(class string) []Link {
	var out []Link

	for _, l := range r.Links {
		if l.HasClass(class) {
			out = append(out, l)
		}
	}

	return out
}

// Table is a table element in document order.
type Table struct {
	Rows []Row
}

// ParseTables parses an HTML page and returns every table it contains, in
// document order. Nested tables are listed too, and a table's rows include the
// rows of tables nested inside it.
func ParseTables(r io.Reader) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return TablesFromSelection(doc.Selection), nil
}

// TablesFromSelection builds grids for every table below sel.
func TablesFromSelection(sel *goquery.Selection) []Table {
	var tables []Table

	sel.Find("table").Each(func(_ int, t *goquery.Selection) {
		tables = append(tables, buildTable(t))
	})

	return tables
}

func buildTable(t *goquery.Selection) Table {
	var table Table

	t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		table.Rows = append(table.Rows, Row{
			Headers: buildCells(tr.Find("th")),
			Data:    buildCells(tr.Find("td")),
			Links:   buildLinks(tr.Find("a")),
		})
	})

	return table
}

func buildCells(sel *goquery.Selection) []Cell {
	var cells []Cell

	sel.Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, Cell{
			Text:  c.Text(),
			Links: buildLinks(c.Find("a")),
		})
	})

	return cells
}

func buildLinks(sel *goquery.Selection) []Link {
	var links []Link

	sel.Each(func(_ int, a *goquery.Selection) {
		link := Link{
			Text:  a.Text(),
			Attrs: make(map[string]string),
		}

		for _, attr := range a.Get(0).Attr {
			link.Attrs[attr.Key] = attr.Val
		}

		link.Href = link.Attrs["href"]
		link.Classes = strings.Fields(link.Attrs["class"])
		links = append(links, link)
	})

	return links
}
