package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/folio/internal/domain"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ConfigMissingPath(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte("site_name: Studio\n"))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingPath {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingPath, err, Code(err))
	}
}

func TestLoadEffective_ApplyCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte("path: site\napply: true\n"))

	eff, err := LoadEffective(cwd, CLIArgs{
		Apply:    false,
		ApplySet: true, // --apply=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Apply != false {
		t.Fatalf("期望 apply=false，实际=%v", eff.Apply)
	}

	wantPath := filepath.Join(cwd, "site")
	if eff.Path != wantPath {
		t.Fatalf("期望 path=%q，实际=%q", wantPath, eff.Path)
	}
	if eff.OutDir != wantPath {
		t.Fatalf("期望 out_dir 默认等于 path，实际=%q", eff.OutDir)
	}
	if eff.File != filepath.Join(cwd, FileName) {
		t.Fatalf("期望记录配置文件路径，实际=%q", eff.File)
	}
}

func TestLoadEffective_Defaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvConcurrency, "")
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Path: "."})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := Layout{ContainerWidth: 1000, TargetRowHeight: 300, Gap: 10, MinItemsPerRow: 3, VisibleRows: 3}
	if eff.Layout != want {
		t.Fatalf("期望默认布局 %+v，实际 %+v", want, eff.Layout)
	}
	if eff.Thumbs != (ThumbConfig{Width: 600, LargeWidth: 1000, Quality: 85}) {
		t.Fatalf("缩略图默认值不对：%+v", eff.Thumbs)
	}
	if eff.Concurrency != DefaultConcurrency {
		t.Fatalf("期望 concurrency=%d，实际=%d", DefaultConcurrency, eff.Concurrency)
	}
	if eff.File != "" {
		t.Fatalf("配置文件不存在时 File 应为空，实际=%q", eff.File)
	}
}

func TestLoadEffective_FullFile(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvConcurrency, "")
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`
path: .
out_dir: dist
site_name: Jane Doe
subtitle: Art Director
base_url: https://example.com
container_width: 1200
gap: 0
concurrency: 99
thumbnails:
  quality: 70
projects:
  - id: brands
    gallery_key: 1-brands
    category: BRANDS
  - id: animation
    gallery_key: 3-animation
    animation: true
sections:
  1-brands/1-nike:
    custom_rows: [1, 4]
title_overrides:
  Sketches:
    show_all_rows: true
autoplay: [reel]
carousel_categories:
  1-brands: BRANDS
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.OutDir != filepath.Join(cwd, "dist") {
		t.Fatalf("out_dir 应相对 path 解析，实际=%q", eff.OutDir)
	}
	if eff.Layout.ContainerWidth != 1200 || eff.Layout.Gap != 0 {
		t.Fatalf("布局字段未生效：%+v", eff.Layout)
	}
	if eff.Concurrency != 32 {
		t.Fatalf("期望 concurrency 截断到 32，实际=%d", eff.Concurrency)
	}
	if eff.Thumbs.Quality != 70 || eff.Thumbs.Width != DefaultThumbWidth {
		t.Fatalf("thumbnails 合并不对：%+v", eff.Thumbs)
	}
	wantProjects := []domain.ProjectInfo{
		{ID: "brands", GalleryKey: "1-brands", Category: "BRANDS"},
		{ID: "animation", GalleryKey: "3-animation", Animation: true},
	}
	if len(eff.Projects) != 2 || eff.Projects[0] != wantProjects[0] || eff.Projects[1] != wantProjects[1] {
		t.Fatalf("projects 不对：%+v", eff.Projects)
	}
	if eff.CarouselCategories["1-brands"] != "BRANDS" || len(eff.Autoplay) != 1 {
		t.Fatalf("其余字段未生效：%+v", eff)
	}
}

func TestLoadEffective_BaseURLPrecedence(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte("path: .\nbase_url: https://file.example\n"))

	t.Setenv(EnvBaseURL, "https://env.example")
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.BaseURL != "https://env.example" {
		t.Fatalf("期望环境变量覆盖配置，实际=%q", eff.BaseURL)
	}

	eff, err = LoadEffective(cwd, CLIArgs{BaseURL: "https://cli.example", BaseURLSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.BaseURL != "https://cli.example" {
		t.Fatalf("期望 CLI 覆盖环境变量，实际=%q", eff.BaseURL)
	}
}

func TestLoadEffective_EnvConcurrency(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	cwd := t.TempDir()

	t.Setenv(EnvConcurrency, "8")
	eff, err := LoadEffective(cwd, CLIArgs{Path: "."})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Concurrency != 8 {
		t.Fatalf("期望 concurrency=8，实际=%d", eff.Concurrency)
	}

	t.Setenv(EnvConcurrency, "many")
	if _, err := LoadEffective(cwd, CLIArgs{Path: "."}); Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoadEffective_CLIPath_ConfigOptional(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{
		Path: root,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Path != root {
		t.Fatalf("期望 path=%q，实际=%q", root, eff.Path)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvConcurrency, "")
	cases := map[string]string{
		"yaml":            "path: [\n",
		"base_url":        "path: .\nbase_url: example.com\n",
		"base_url_scheme": "path: .\nbase_url: ftp://example.com\n",
		"width":           "path: .\ncontainer_width: -1\n",
		"gap":             "path: .\ngap: -2\n",
		"quality":         "path: .\nthumbnails:\n  quality: 101\n",
		"section_key":     "path: .\nsections:\n  nike:\n    first_row_count: 2\n",
		"section_min":     "path: .\nsections:\n  a/b:\n    min_items_per_row: 0\n",
		"custom_rows":     "path: .\ntitle_overrides:\n  X:\n    custom_rows: [2, 0]\n",
		"dup_project":     "path: .\nprojects:\n  - id: a\n  - id: a\n",
		"empty_project":   "path: .\nprojects:\n  - category: X\n",
		"proxy":           "path: .\ncheck:\n  proxy: \"http://[::1\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(body))
			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoadEffective_CLIPath_InvalidConfig(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(root, FileName), []byte("path: [\n"))

	_, err := LoadEffective(cwd, CLIArgs{Path: root})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
