package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><head>
<link rel="stylesheet" href="styles.css">
<link rel="icon" href="https://cdn.example.com/favicon.ico">
<script src="script.js?v=3"></script>
</head><body>
<a href="index.html">Home</a>
<a href="#contact">Contact</a>
<a href="mailto:hi@example.com">Mail</a>
<a href="//example.com/x">Ext</a>
<img src="images/gallery/1-brands/a_thumb.jpg" data-full-src="images/gallery/1-brands/a.jpg">
<video poster="images/gallery/1-brands/v_thumb.jpg"><source src="images/gallery/1-brands/v.mp4" type="video/mp4"></video>
<img src="data:image/png;base64,AAAA">
<img src="images/gallery/1-brands/a_thumb.jpg#dup">
</body></html>`

func TestExtract(t *testing.T) {
	got, err := Extract(strings.NewReader(samplePage))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"images/gallery/1-brands/a_thumb.jpg",
		"images/gallery/1-brands/a.jpg",
		"images/gallery/1-brands/v_thumb.jpg",
		"images/gallery/1-brands/v.mp4",
		"styles.css",
		"script.js",
		"index.html",
	}, got)
}

func write(t *testing.T, p, s string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(s), 0o644))
}

func TestCheck_Local(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	write(t, filepath.Join(out, "project-brands.html"), samplePage)
	write(t, filepath.Join(out, "index.html"), `<a href="project-brands.html">x</a>`)
	write(t, filepath.Join(out, "styles.css"), "")
	write(t, filepath.Join(root, "script.js"), "")
	write(t, filepath.Join(root, "images/gallery/1-brands/a.jpg"), "x")
	write(t, filepath.Join(root, "images/gallery/1-brands/a_thumb.jpg"), "x")
	write(t, filepath.Join(root, "images/gallery/1-brands/v.mp4"), "x")

	rep, err := Check(context.Background(), Options{Root: root, OutDir: out})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Pages)
	assert.Equal(t, 8, rep.Checked)
	require.Len(t, rep.Missing, 1)
	assert.Equal(t, "project-brands.html", rep.Missing[0].Page)
	assert.Equal(t, "images/gallery/1-brands/v_thumb.jpg", rep.Missing[0].Ref)
}

func TestCheck_Remote(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		switch r.URL.Path {
		case "/site/ok.jpg":
			w.WriteHeader(http.StatusOK)
		case "/site/head-not-allowed.jpg":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	root := t.TempDir()
	write(t, filepath.Join(root, "index.html"),
		`<img src="ok.jpg"><img src="head-not-allowed.jpg"><img src="gone.jpg"><img src="/ok.jpg">`)

	rep, err := Check(context.Background(), Options{
		Root:    root,
		BaseURL: srv.URL + "/site",
		Client:  srv.Client(),
	})
	require.NoError(t, err)
	// "/ok.jpg" 按站点根解析，与 "ok.jpg" 指向同一 URL。
	assert.Equal(t, 4, rep.Checked)
	require.Len(t, rep.Missing, 1)
	assert.Equal(t, "gone.jpg", rep.Missing[0].Ref)
	assert.Equal(t, "HTTP 404", rep.Missing[0].Reason)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, methods, http.MethodGet)
}

func TestCheck_InvalidBaseURL(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "index.html"), `<img src="a.jpg">`)
	_, err := Check(context.Background(), Options{Root: root, BaseURL: "not a url"})
	require.Error(t, err)
}
