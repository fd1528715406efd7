package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogPage = `<html><body>
<a href="/level/3">Level 3</a>
<a href="/level/1">Level 1</a>
<a href="/level/3">again</a>
<a href="/about">About</a>
</body></html>`

const levelPage = `<html><body><main>
<div class="board__grid" style="grid-template-columns: repeat(2, 1fr)">` +
	`<div class="square" data-row="0" data-col="0" style="background-color: rgb(1, 2, 3);"></div>` +
	`<div class="square" data-row="0" data-col="1" style="background-color: rgb(4, 5, 6);"></div>` +
	`</div></main></body></html>`

const emptyPage = `<html><body><p>Nothing to see</p></body></html>`

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, catalogPage)
		case "/level/1":
			fmt.Fprint(w, levelPage)
		case "/level/2":
			fmt.Fprint(w, emptyPage)
		case "/level/ua":
			fmt.Fprint(w, r.Header.Get("User-Agent"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_ListIdentifiers(t *testing.T) {
	srv := newTestServer(t, nil)
	f, err := NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	ids, err := f.ListIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)
}

func TestHTTPFetcher_FetchGrid(t *testing.T) {
	srv := newTestServer(t, nil)
	f, err := NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL, UserAgent: "regent-test"})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("returns container markup", func(t *testing.T) {
		content, err := f.FetchGrid(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, content.Snapshot)
		assert.Equal(t, 2, strings.Count(content.Markup, `class="square"`))
		assert.NotContains(t, content.Markup, "board__grid")
	})

	t.Run("missing container", func(t *testing.T) {
		_, err := f.FetchGrid(ctx, 2)
		require.Error(t, err)
		assert.True(t, IsContainerNotFound(err))
		assert.Equal(t, "Puzzle container not found", err.Error())
	})

	t.Run("HTTP error status", func(t *testing.T) {
		_, err := f.FetchGrid(ctx, 99)
		require.Error(t, err)

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 99, fe.ID)
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
		assert.Contains(t, err.Error(), "fetch puzzle 99: HTTP 404")
	})

	t.Run("level zero is not the catalog", func(t *testing.T) {
		_, err := f.FetchGrid(ctx, 0)
		require.Error(t, err)

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.False(t, fe.Catalog)
		assert.Contains(t, err.Error(), "fetch puzzle 0: HTTP 404")
	})
}

func TestHTTPFetcher_SendsUserAgent(t *testing.T) {
	srv := newTestServer(t, nil)
	f, err := NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL, UserAgent: "regent-test/1.0"})
	require.NoError(t, err)

	body, err := f.get(context.Background(), FetchError{}, srv.URL+"/level/ua")
	require.NoError(t, err)
	assert.Equal(t, "regent-test/1.0", body)
}

func TestHTTPFetcher_TransportError(t *testing.T) {
	srv := newTestServer(t, nil)
	url := srv.URL
	srv.Close()

	f, err := NewHTTPFetcher(HTTPOptions{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = f.ListIdentifiers(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, fe.StatusCode)
	assert.True(t, fe.Catalog)
	assert.Contains(t, err.Error(), "fetch catalog")
}

func TestHTTPFetcher_CancelledContext(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	f, err := NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL, RequestsPerSecond: 0.01})
	require.NoError(t, err)

	// First request consumes the single burst token
	_, err = f.FetchGrid(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchGrid(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "a cancelled wait must not reach the server")
}

func TestNewHTTPFetcher_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPFetcher(HTTPOptions{BaseURL: "  "})
	require.Error(t, err)
}

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "level"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(catalogPage), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level", "1.html"), []byte(levelPage), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level", "3.html"), []byte(emptyPage), 0644))
	return dir
}

func TestStaticFetcher(t *testing.T) {
	f := NewStaticFetcher(writeSite(t))
	ctx := context.Background()

	ids, err := f.ListIdentifiers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)

	content, err := f.FetchGrid(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, content.Markup, `data-col="1"`)

	_, err = f.FetchGrid(ctx, 3)
	assert.True(t, IsContainerNotFound(err))

	_, err = f.FetchGrid(ctx, 5)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.StatusCode)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStaticFetcher_MissingCatalog(t *testing.T) {
	_, err := NewStaticFetcher(t.TempDir()).ListIdentifiers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch catalog")
}
