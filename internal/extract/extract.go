// Package extract turns puzzle markup into cell records and discovers catalog
// identifiers from the catalog page.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyluth/regent/pkg/puzzle"
)

const (
	// CellSelector matches one puzzle square.
	CellSelector = "div.square"

	// ContainerSelector matches the puzzle grid container on a level page.
	ContainerSelector = "div.board__grid"

	// FallbackContainerSelector is tried when ContainerSelector matches nothing.
	FallbackContainerSelector = `div[style*="grid-template-columns"]`

	// LevelLinkSelector matches catalog links to individual levels.
	LevelLinkSelector = `a[href^="/level/"]`

	thickBorderMarker = "thick-border"
)

var (
	backgroundColorPattern = regexp.MustCompile(`background-color\s*:\s*([^;]+)`)
	levelHrefPattern       = regexp.MustCompile(`/level/(\d+)`)
)

// Extract parses grid markup and returns one CellRecord per matching square in
// document order. Markup without squares yields an empty slice and no error.
func Extract(markup string) ([]puzzle.CellRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	cells := []puzzle.CellRecord{}
	doc.Find(CellSelector).Each(func(_ int, s *goquery.Selection) {
		cells = append(cells, puzzle.CellRecord{
			Row:     intAttr(s, "data-row"),
			Col:     intAttr(s, "data-col"),
			Color:   backgroundColor(s.AttrOr("style", "")),
			Borders: borderClasses(s.AttrOr("class", "")),
		})
	})

	return cells, nil
}

// Container locates the grid container in a full level page and returns its
// inner markup. found is false when neither selector matches.
func Container(page string) (inner string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse page: %w", err)
	}

	sel := doc.Find(ContainerSelector).First()
	if sel.Length() == 0 {
		sel = doc.Find(FallbackContainerSelector).First()
	}
	if sel.Length() == 0 {
		return "", false, nil
	}

	inner, err = sel.Html()
	if err != nil {
		return "", false, fmt.Errorf("failed to render container markup: %w", err)
	}
	return inner, true, nil
}

// Levels collects the level identifiers linked from a catalog page, sorted
// ascending with duplicates removed.
func Levels(page string) ([]int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog page: %w", err)
	}

	seen := make(map[int]struct{})
	doc.Find(LevelLinkSelector).Each(func(_ int, s *goquery.Selection) {
		m := levelHrefPattern.FindStringSubmatch(s.AttrOr("href", ""))
		if m == nil {
			return
		}
		if id, err := strconv.Atoi(m[1]); err == nil {
			seen[id] = struct{}{}
		}
	})

	return puzzle.SortedIDs(seen), nil
}

// intAttr parses an integer attribute, returning -1 when absent or malformed.
func intAttr(s *goquery.Selection, name string) int {
	raw, ok := s.Attr(name)
	if !ok {
		return -1
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return -1
	}
	return v
}

func backgroundColor(style string) string {
	m := backgroundColorPattern.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func borderClasses(class string) []string {
	borders := []string{}
	for _, cls := range strings.Fields(class) {
		if strings.Contains(cls, thickBorderMarker) {
			borders = append(borders, cls)
		}
	}
	return borders
}
