package probe

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/infra/cache"
)

func TestProbe_BitmapFromOriginal(t *testing.T) {
	dir := t.TempDir()
	f := writePNG(t, dir, "a.png", 160, 90)

	d, err := (&Prober{}).Probe(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, domain.Dims{Width: 160, Height: 90}, d)
}

func TestProbe_PrefersFreshThumbnail(t *testing.T) {
	dir := t.TempDir()
	f := writePNG(t, dir, "a.png", 1600, 900)
	writeJPEG(t, filepath.Join(dir, "a_thumb.jpg"), 600, 338)

	d, err := (&Prober{}).Probe(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 600, d.Width)
	assert.Equal(t, 338, d.Height)
}

func TestProbe_IgnoresStaleThumbnail(t *testing.T) {
	dir := t.TempDir()
	f := writePNG(t, dir, "a.png", 1600, 900)
	thumb := filepath.Join(dir, "a_thumb.jpg")
	writeJPEG(t, thumb, 300, 300)

	old := time.Unix(f.ModUnix, 0).Add(-time.Hour)
	require.NoError(t, os.Chtimes(thumb, old, old))

	d, err := (&Prober{}).Probe(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, domain.Dims{Width: 1600, Height: 900}, d)
}

func TestProbe_VideoUsesPoster(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not really a video"), 0o644))
	writeJPEG(t, filepath.Join(dir, "clip_thumb.jpg"), 640, 360)

	d, err := (&Prober{}).Probe(context.Background(), domain.MediaFile{
		AbsPath: video, RelPath: "clip.mp4", Ext: ".mp4", IsVideo: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Dims{Width: 640, Height: 360}, d)
}

func TestProbe_SVG(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		body string
		want domain.Dims
	}{
		"attrs.svg":   {`<svg xmlns="http://www.w3.org/2000/svg" width="200px" height="100"></svg>`, domain.Dims{Width: 200, Height: 100}},
		"viewbox.svg": {`<?xml version="1.0"?><svg viewBox="0 0 48.4 24"/>`, domain.Dims{Width: 48, Height: 24}},
		"percent.svg": {`<svg width="100%" height="100%" viewBox="0,0,30,10"/>`, domain.Dims{Width: 30, Height: 10}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(p, []byte(tc.body), 0o644))
			d, err := (&Prober{}).Probe(context.Background(), domain.MediaFile{AbsPath: p, RelPath: name, Ext: ".svg"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, d)
		})
	}
}

func TestProbe_FallbackLogsWarning(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(p, []byte("garbage"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	pr := New(nil, zap.New(core))

	d, err := pr.Probe(context.Background(), domain.MediaFile{AbsPath: p, RelPath: "broken.jpg", Ext: ".jpg"})
	require.NoError(t, err)
	assert.Equal(t, domain.Dims{Width: FallbackWidth, Height: FallbackHeight, Fallback: true}, d)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.True(t, strings.Contains(entry.Message, "占位尺寸"))
	assert.Equal(t, "broken.jpg", entry.ContextMap()["file"])
}

func TestProbe_CacheHitSkipsDisk(t *testing.T) {
	store, err := cache.OpenDims(t.TempDir(), false)
	require.NoError(t, err)

	f := domain.MediaFile{AbsPath: "/does/not/exist.jpg", RelPath: "x.jpg", Ext: ".jpg", Size: 1, ModUnix: 2}
	store.Put(f, domain.Dims{Width: 10, Height: 20})

	d, err := New(store, nil).Probe(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, domain.Dims{Width: 10, Height: 20}, d)
}

func TestProbeAll_OrderAndCancel(t *testing.T) {
	dir := t.TempDir()
	files := []domain.MediaFile{
		writePNG(t, dir, "a.png", 10, 10),
		writePNG(t, dir, "b.png", 20, 10),
		writePNG(t, dir, "c.png", 30, 10),
	}

	dims, err := (&Prober{}).ProbeAll(context.Background(), files, 2)
	require.NoError(t, err)
	require.Len(t, dims, 3)
	for i, want := range []int{10, 20, 30} {
		assert.Equal(t, want, dims[i].Width)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Prober{}).ProbeAll(ctx, files, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func writePNG(t *testing.T, dir, name string, w, h int) domain.MediaFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	st, err := os.Stat(p)
	require.NoError(t, err)
	return domain.MediaFile{
		AbsPath: p, RelPath: name, Base: strings.TrimSuffix(name, filepath.Ext(name)), Ext: filepath.Ext(name),
		Size: st.Size(), ModUnix: st.ModTime().Unix(),
	}
}

func writeJPEG(t *testing.T, p string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
}
