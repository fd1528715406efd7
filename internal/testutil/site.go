// Package testutil builds saved-page fixtures for tests that replay a remote
// catalog from disk.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// GridPage returns a level page whose grid container holds one square per
// entry of colors, laid out row by row.
func GridPage(colors [][]string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"board__grid\">\n")
	for r, row := range colors {
		for c, color := range row {
			fmt.Fprintf(&b, "<div class=\"square\" data-row=\"%d\" data-col=\"%d\" style=\"background-color: %s;\"></div>\n", r, c, color)
		}
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// EmptyPage is a level page without a grid container.
const EmptyPage = "<html><body><p>Coming soon</p></body></html>"

// WriteSite writes index.html linking every level in pages and
// level/<id>.html for each page, and returns the site directory.
func WriteSite(t *testing.T, dir string, pages map[int]string) string {
	t.Helper()
	site := filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(filepath.Join(site, "level"), 0755))

	ids := make([]int, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var index strings.Builder
	index.WriteString("<html><body>\n")
	for _, id := range ids {
		fmt.Fprintf(&index, "<a href=\"/level/%d\">Level %d</a>\n", id, id)
		path := filepath.Join(site, "level", fmt.Sprintf("%d.html", id))
		require.NoError(t, os.WriteFile(path, []byte(pages[id]), 0644))
	}
	index.WriteString("<a href=\"/about\">About</a>\n</body></html>")
	require.NoError(t, os.WriteFile(filepath.Join(site, "index.html"), []byte(index.String()), 0644))

	return site
}
