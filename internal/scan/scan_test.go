package scan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScanMedia_SectionsAndMain(t *testing.T) {
	root := t.TempDir()
	g := filepath.Join(root, "images", "gallery")

	touch(t, filepath.Join(g, "1-brands", "1-nike", "a.jpg"))
	touch(t, filepath.Join(g, "1-brands", "1-nike", "a_thumb.jpg"))
	touch(t, filepath.Join(g, "1-brands", "1-nike", "a_thumb1000.jpg"))
	touch(t, filepath.Join(g, "1-brands", "1-nike", "clip.MP4"))
	touch(t, filepath.Join(g, "1-brands", "1-nike", "notes.txt"))
	touch(t, filepath.Join(g, "1-brands", "1-nike", ".DS_Store"))
	touch(t, filepath.Join(g, "8-display", "x.png"))
	touch(t, filepath.Join(g, "8-display", ".hidden", "y.png"))
	touch(t, filepath.Join(g, "stray.jpg"))

	got, err := ScanMedia(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 3 {
		t.Fatalf("期望 3 个媒体文件，实际 %d：%+v", len(got), got)
	}

	if got[0].RelPath != "images/gallery/1-brands/1-nike/a.jpg" || got[0].Section != "1-nike" || got[0].Project != "1-brands" {
		t.Fatalf("第 1 个文件不符合预期：%+v", got[0])
	}
	if !got[1].IsVideo || got[1].Ext != ".mp4" || got[1].Base != "clip" {
		t.Fatalf("期望第 2 个为视频 clip.mp4，实际：%+v", got[1])
	}
	if got[2].Section != MainSection || got[2].Project != "8-display" {
		t.Fatalf("期望项目根目录文件归入 main，实际：%+v", got[2])
	}
	if !filepath.IsAbs(got[2].AbsPath) {
		t.Fatalf("期望 AbsPath 为绝对路径，实际=%q", got[2].AbsPath)
	}
}

func TestScanMedia_NaturalOrder(t *testing.T) {
	root := t.TempDir()
	g := filepath.Join(root, "images", "gallery")

	touch(t, filepath.Join(g, "10-misc", "a.jpg"))
	touch(t, filepath.Join(g, "2-magazines", "1-elle", "10-cover.jpg"))
	touch(t, filepath.Join(g, "2-magazines", "1-elle", "2-cover.jpg"))

	got, err := ScanMedia(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{
		"images/gallery/2-magazines/1-elle/2-cover.jpg",
		"images/gallery/2-magazines/1-elle/10-cover.jpg",
		"images/gallery/10-misc/a.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个文件，实际 %d", len(want), len(got))
	}
	for i := range want {
		if got[i].RelPath != want[i] {
			t.Fatalf("第 %d 个：期望 %q，实际 %q", i, want[i], got[i].RelPath)
		}
	}
}

func TestScanMedia_ExcludeDirsFromConfig(t *testing.T) {
	root := t.TempDir()
	g := filepath.Join(root, "images", "gallery")

	touch(t, filepath.Join(g, "1-a", "x.jpg"))
	touch(t, filepath.Join(g, "9-drafts", "y.jpg"))

	got, err := ScanMedia(root, []string{"images/gallery/9-drafts"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].Project != "1-a" {
		t.Fatalf("期望仅剩 1-a/x.jpg，实际：%+v", got)
	}
}

func TestScanMedia_NoGallery(t *testing.T) {
	_, err := ScanMedia(t.TempDir(), nil)
	if !errors.Is(err, ErrNoGallery) {
		t.Fatalf("期望 ErrNoGallery，实际：%v", err)
	}
}

func TestScanCovers(t *testing.T) {
	root := t.TempDir()
	c := filepath.Join(root, "images", "mobile-covers")

	touch(t, filepath.Join(c, "2-magazines", "1-elle.jpg"))
	touch(t, filepath.Join(c, "1-brands", "10-zeta.jpg"))
	touch(t, filepath.Join(c, "1-brands", "2-pivotpoint.jpg"))
	touch(t, filepath.Join(c, "1-brands", "2-pivotpoint_thumb.jpg"))
	touch(t, filepath.Join(c, "1-brands", "readme.md"))

	got, err := ScanCovers(root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{
		"images/mobile-covers/1-brands/2-pivotpoint.jpg",
		"images/mobile-covers/1-brands/10-zeta.jpg",
		"images/mobile-covers/2-magazines/1-elle.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个封面，实际 %d", len(want), len(got))
	}
	for i := range want {
		if got[i].RelPath != want[i] {
			t.Fatalf("第 %d 个：期望 %q，实际 %q", i, want[i], got[i].RelPath)
		}
	}
}

func TestScanCovers_MissingDir(t *testing.T) {
	got, err := ScanCovers(t.TempDir())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("期望空结果，实际 %d", len(got))
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
