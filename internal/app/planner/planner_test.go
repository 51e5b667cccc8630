package planner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/folio/internal/domain"
)

func TestReadThumbState_ExistingThumbs(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.jpg"))
	write(t, filepath.Join(dir, "a_thumb.jpg"))

	st, err := ReadThumbState(domain.MediaFile{AbsPath: filepath.Join(dir, "a.jpg"), Ext: ".jpg"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !st.HasThumb || st.HasLargeThumb {
		t.Fatalf("期望仅存在普通缩略图：%+v", st)
	}
	if st.ThumbModUnix == 0 {
		t.Fatalf("期望记录缩略图 mtime：%+v", st)
	}
}

func TestPlanThumbs_LastImagePerSectionIsLarge(t *testing.T) {
	files := []domain.MediaFile{
		mf("1-brands", "1-nike", "a", ".jpg", false),
		mf("1-brands", "1-nike", "b", ".png", false),
		mf("1-brands", "1-nike", "c", ".svg", false),
		mf("1-brands", "1-nike", "d", ".mp4", true),
		mf("1-brands", "2-adidas", "e", ".jpg", false),
	}

	plans := PlanThumbs(files, nil, Options{Width: 600, LargeWidth: 1000})
	if len(plans) != 3 {
		t.Fatalf("期望 3 个计划（svg/视频不生成），实际 %d", len(plans))
	}

	if plans[0].Large || plans[0].Width != 600 || plans[0].DstRel != "images/gallery/1-brands/1-nike/a_thumb.jpg" {
		t.Fatalf("a.jpg 计划不符合预期：%+v", plans[0])
	}
	// b.png 是 1-nike 中最后一张可处理图片（c.svg/d.mp4 不计入）。
	if !plans[1].Large || plans[1].Width != 1000 || plans[1].DstRel != "images/gallery/1-brands/1-nike/b_thumb1000.jpg" {
		t.Fatalf("b.png 计划不符合预期：%+v", plans[1])
	}
	if !plans[2].Large {
		t.Fatalf("e.jpg 是 2-adidas 的唯一图片，应为大图：%+v", plans[2])
	}
	for _, p := range plans {
		if p.Skip {
			t.Fatalf("无现状时不应跳过：%+v", p)
		}
	}
}

func TestPlanThumbs_SkipFreshAndForce(t *testing.T) {
	a := mf("p", "s", "a", ".jpg", false)
	a.ModUnix = 100
	b := mf("p", "s", "b", ".jpg", false)
	b.ModUnix = 100

	states := map[string]domain.ThumbState{
		a.RelPath: {HasThumb: true, ThumbModUnix: 200},
		// b 是最后一张：只有普通缩略图不够，需要 _thumb1000.jpg。
		b.RelPath: {HasThumb: true, ThumbModUnix: 200, HasLargeThumb: true, LargeModUnix: 50},
	}

	plans := PlanThumbs([]domain.MediaFile{a, b}, states, Options{Width: 600, LargeWidth: 1000})
	if !plans[0].Skip {
		t.Fatalf("a 的缩略图比原图新，应跳过：%+v", plans[0])
	}
	if plans[1].Skip {
		t.Fatalf("b 的大图缩略图比原图旧，不应跳过：%+v", plans[1])
	}

	forced := PlanThumbs([]domain.MediaFile{a, b}, states, Options{Width: 600, LargeWidth: 1000, Force: true})
	if forced[0].Skip || forced[1].Skip {
		t.Fatalf("Force 时不应跳过：%+v", forced)
	}
}

func TestReadThumbStates_SkipsVideos(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.jpg"))
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "a.jpg"), old, old); err != nil {
		t.Fatalf("设置 mtime 失败：%v", err)
	}

	files := []domain.MediaFile{
		{AbsPath: filepath.Join(dir, "a.jpg"), RelPath: "a.jpg", Ext: ".jpg"},
		{AbsPath: filepath.Join(dir, "v.mp4"), RelPath: "v.mp4", Ext: ".mp4", IsVideo: true},
	}
	states, err := ReadThumbStates(files)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := states["v.mp4"]; ok {
		t.Fatalf("视频不应读取缩略图状态")
	}
	if _, ok := states["a.jpg"]; !ok {
		t.Fatalf("期望包含 a.jpg 的状态")
	}
}

func mf(project, section, base, ext string, video bool) domain.MediaFile {
	rel := "images/gallery/" + project + "/" + section + "/" + base + ext
	return domain.MediaFile{
		AbsPath: filepath.Join(string(filepath.Separator), "site", filepath.FromSlash(rel)),
		RelPath: rel,
		Project: project,
		Section: section,
		Base:    base,
		Ext:     ext,
		IsVideo: video,
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
