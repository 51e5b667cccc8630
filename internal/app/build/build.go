// Package build 编排 folio 的各个命令：build/thumbs/carousels/describe。
//
// 每个命令都返回对外稳定的 domain.Report；单个条目失败只降级为该条目的 failed，不影响其它条目。
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/folio/internal/app"
	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/content"
	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/infra/cache"
	"github.com/John-Robertt/folio/internal/infra/fsx"
	"github.com/John-Robertt/folio/internal/layout"
	"github.com/John-Robertt/folio/internal/naming"
	"github.com/John-Robertt/folio/internal/probe"
	"github.com/John-Robertt/folio/internal/render"
	"github.com/John-Robertt/folio/internal/scan"
)

const (
	// DataFile 是图库结构文件（相对 out_dir）。
	DataFile = "gallery-data.json"
	// SitemapFile 仅在配置了 base_url 时生成（相对 out_dir）。
	SitemapFile = "sitemap.xml"
	// ReportFile 是最近一次 apply 的报告（相对站点根目录）。
	ReportFile = scan.StateDir + "/report.json"
)

// Env 是命令的运行环境；零值可用。
type Env struct {
	Log      *zap.Logger
	Observer Observer
}

func (e Env) log() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e Env) obs() Observer {
	if e.Observer == nil {
		return nopObserver{}
	}
	return e.Observer
}

// site 是一次扫描 + 分组的结果，各命令共用。
type site struct {
	files    []domain.MediaFile
	index    map[string]domain.MediaFile
	gallery  domain.Gallery
	projects []domain.ProjectInfo
}

func loadSite(eff config.EffectiveConfig, env Env) (site, error) {
	scanStarted := time.Now()
	files, err := scan.ScanMedia(eff.Path, eff.ExcludeDirs)
	if err != nil {
		return site{}, err
	}
	scanDur := time.Since(scanStarted)

	groupStarted := time.Now()
	g := app.GroupGallery(files)
	s := site{
		files:    files,
		index:    app.IndexFiles(files),
		gallery:  g,
		projects: app.ResolveProjects(eff.Projects, g),
	}
	groupDur := time.Since(groupStarted)

	sections := 0
	for _, p := range g.Projects {
		sections += len(p.Sections)
	}
	env.obs().OnPhaseDone("scan", map[string]any{"files": len(files)}, scanDur)
	env.obs().OnPhaseDone("group", map[string]any{
		"projects": len(s.projects),
		"sections": sections,
	}, groupDur)
	return s, nil
}

func newReport(command string, eff config.EffectiveConfig) domain.Report {
	return domain.Report{
		BuildID:   uuid.NewString(),
		Command:   command,
		Path:      eff.Path,
		DryRun:    !eff.Apply,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, 32),
	}
}

func finish(rep *domain.Report) domain.Report {
	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	return *rep
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{Status: domain.StatusFailed, ErrorCode: code, ErrorMsg: msg}
}

// emit 在 apply 时按“内容变化才写”落盘；dry-run 只比较内容，返回 planned/unchanged。
func emit(apply bool, dst string, data []byte) (string, error) {
	if !apply {
		if fsx.Unchanged(dst, data) {
			return domain.StatusUnchanged, nil
		}
		return domain.StatusPlanned, nil
	}
	changed, err := fsx.WriteFileIfChanged(dst, data)
	if err != nil {
		return domain.StatusFailed, err
	}
	if changed {
		return domain.StatusWritten, nil
	}
	return domain.StatusUnchanged, nil
}

// relTarget 返回报告中使用的 target：相对站点根目录、'/' 分隔。
func relTarget(root, abs string) string {
	if rel, err := filepath.Rel(root, abs); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(abs)
}

// Build 执行一次站点构建（dry-run/apply）。
//
// 阶段：scan → group → probe → layout+render（按项目并发）→ data/sitemap。
// apply 时写回尺寸缓存与 .folio/report.json。
func Build(ctx context.Context, eff config.EffectiveConfig, env Env) domain.Report {
	log := env.log()
	obs := env.obs()
	obs.OnStart("build", eff)

	rep := newReport("build", eff)

	s, err := loadSite(eff, env)
	if err != nil {
		rep.Items = append(rep.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		return finish(&rep)
	}

	text, _, err := content.Load(filepath.Join(eff.Path, content.FileName))
	if err != nil {
		// 文字内容损坏不阻塞构建：页面退回默认标题、无描述。
		log.Warn("文字内容无法读取，使用默认标题", zap.Error(err))
		rep.Items = append(rep.Items, domain.ItemResult{
			Kind:      domain.KindContent,
			Target:    content.FileName,
			Status:    domain.StatusFailed,
			ErrorCode: domain.ErrCodeConfigInvalid,
			ErrorMsg:  err.Error(),
		})
		text = domain.TextContent{Projects: map[string]domain.ProjectText{}}
	}
	text, _ = content.Sync(text, s.gallery, s.projects)

	store, err := cache.OpenDims(eff.Path, !eff.Apply)
	if err != nil {
		log.Warn("尺寸缓存不可用，本次不使用缓存", zap.Error(err))
		store = nil
	}

	probeStarted := time.Now()
	dimsList, err := probe.New(store, log).ProbeAll(ctx, s.files, eff.Concurrency)
	if err != nil {
		rep.Items = append(rep.Items, syntheticFailed(domain.ErrCodeProbeFailed, fmt.Sprintf("尺寸探测中止：%v", err)))
		return finish(&rep)
	}
	dims := make(map[string]domain.Dims, len(dimsList))
	fallbacks := 0
	for i, d := range dimsList {
		dims[s.files[i].RelPath] = d
		if d.Fallback {
			fallbacks++
		}
	}
	probeDur := time.Since(probeStarted)
	obs.OnPhaseDone("probe", map[string]any{"files": len(s.files), "fallbacks": fallbacks}, probeDur)
	log.Debug("尺寸探测完成", zap.Int("files", len(s.files)), zap.Int("fallbacks", fallbacks), zap.Duration("dur", probeDur))

	obs.OnPhaseDone("render", map[string]any{
		"workers": eff.Concurrency,
		"pages":   len(s.projects),
	}, 0)

	pages := renderPages(ctx, eff, s, text, dims, obs)
	rep.Items = append(rep.Items, pages...)

	rep.Items = append(rep.Items, writeData(eff, s.gallery))
	if eff.BaseURL != "" {
		rep.Items = append(rep.Items, writeSitemap(eff, s.projects))
	}

	if eff.Apply && store != nil {
		keep := make(map[string]struct{}, len(s.files))
		for _, f := range s.files {
			keep[f.RelPath] = struct{}{}
		}
		store.Prune(keep)
		if err := store.Flush(); err != nil {
			log.Warn("写回尺寸缓存失败", zap.String("file", store.Path()), zap.Error(err))
		}
	}

	out := finish(&rep)
	if eff.Apply {
		if err := WriteReport(eff.Path, out); err != nil {
			log.Error("写入报告失败", zap.Error(err))
		}
	}
	return out
}

// WriteReport 把报告原子写入 <root>/.folio/report.json。
func WriteReport(root string, rep domain.Report) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return fsx.WriteFile(filepath.Join(root, filepath.FromSlash(ReportFile)), append(b, '\n'))
}

func renderPages(ctx context.Context, eff config.EffectiveConfig, s site, text domain.TextContent, dims map[string]domain.Dims, obs Observer) []domain.ItemResult {
	out := make([]domain.ItemResult, len(s.projects))

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, eff.Concurrency))
	for i, p := range s.projects {
		g.Go(func() error {
			started := time.Now()
			res := renderOne(gctx, eff, s, p, text, dims)
			out[i] = res

			mu.Lock()
			done++
			obs.OnItemDone(done, len(s.projects), res, time.Since(started))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func renderOne(ctx context.Context, eff config.EffectiveConfig, s site, p domain.ProjectInfo, text domain.TextContent, dims map[string]domain.Dims) domain.ItemResult {
	dst := filepath.Join(eff.OutDir, p.PageFile())
	res := domain.ItemResult{
		Kind:    domain.KindPage,
		Target:  relTarget(eff.Path, dst),
		Project: p.ID,
	}
	if err := ctx.Err(); err != nil {
		res.Status = domain.StatusFailed
		res.ErrorCode = domain.ErrCodeRenderFailed
		res.ErrorMsg = err.Error()
		return res
	}

	gp, ok := s.gallery.Projects[p.GalleryKey]
	if !ok {
		res.Status = domain.StatusFailed
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = fmt.Sprintf("images/gallery 下没有项目目录 %q", p.GalleryKey)
		return res
	}

	page, st := assemblePage(eff, p, gp, text.Projects[p.ID], s.index, dims, s.projects)
	res.Sections, res.Media, res.Rows, res.Fallbacks = st.sections, st.media, st.rows, st.fallbacks

	b, err := render.ProjectPageBytes(page)
	if err != nil {
		res.Status = domain.StatusFailed
		res.ErrorCode = domain.ErrCodeRenderFailed
		res.ErrorMsg = err.Error()
		return res
	}

	status, err := emit(eff.Apply, dst, b)
	res.Status = status
	if err != nil {
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
	}
	return res
}

type pageStats struct {
	sections, media, rows, fallbacks int
}

// assemblePage 把一个项目的分区转成渲染输入：解析分区参数、生成 MediaItem 并布局。
//
// DisplayIndex 在整页内连续编号（与 lightbox 数组下标一致）。
func assemblePage(eff config.EffectiveConfig, p domain.ProjectInfo, gp domain.Project, text domain.ProjectText,
	index map[string]domain.MediaFile, dims map[string]domain.Dims, nav []domain.ProjectInfo) (render.Page, pageStats) {
	title := text.Title
	if title == "" {
		title = naming.Title(p.ID)
	}
	page := render.Page{
		SiteName: eff.SiteName,
		Subtitle: eff.Subtitle,
		Project:  p,
		Title:    title,
		Nav:      nav,
		Rules: render.MediaRules{
			Autoplay:         eff.Autoplay,
			InvertedControls: eff.InvertedControls,
		},
	}

	var st pageStats
	next := 0
	for _, key := range gp.SectionKeys() {
		stext := text.Sections[key]
		stitle := stext.Title
		if stitle == "" {
			stitle = naming.Title(key)
		}
		descs := stext.Descriptions()

		srcs := gp.Sections[key].Images
		items := make([]domain.MediaItem, 0, len(srcs))
		for _, src := range srcs {
			d, ok := dims[src]
			if !ok || d.Width <= 0 || d.Height <= 0 {
				d = domain.Dims{Width: probe.FallbackWidth, Height: probe.FallbackHeight, Fallback: true}
			}
			if d.Fallback {
				st.fallbacks++
			}
			items = append(items, domain.MediaItem{
				SourcePath:    src,
				NaturalWidth:  d.Width,
				NaturalHeight: d.Height,
				DisplayIndex:  next,
				IsVideo:       index[src].IsVideo,
				Description:   descs[path.Base(src)],
				DimsFallback:  d.Fallback,
			})
			next++
		}

		set := eff.ResolveSection(p, key, stitle)
		rows := layout.LayoutSection(items, set.Params, set.Options)

		page.Sections = append(page.Sections, render.Section{
			Key:          key,
			Title:        stitle,
			Description:  stext.Description,
			Rows:         rows,
			Gap:          set.Params.Gap,
			VisibleRows:  set.VisibleRows,
			CustomLayout: set.CustomLayout,
		})
		st.sections++
		st.media += len(items)
		st.rows += len(rows)
	}
	return page, st
}

// writeData 生成 gallery-data.json（供首页脚本读取）。
func writeData(eff config.EffectiveConfig, g domain.Gallery) domain.ItemResult {
	dst := filepath.Join(eff.OutDir, DataFile)
	res := domain.ItemResult{Kind: domain.KindData, Target: relTarget(eff.Path, dst)}

	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		res.Status = domain.StatusFailed
		res.ErrorCode = domain.ErrCodeRenderFailed
		res.ErrorMsg = err.Error()
		return res
	}
	status, err := emit(eff.Apply, dst, append(b, '\n'))
	res.Status = status
	if err != nil {
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
	}
	return res
}

func writeSitemap(eff config.EffectiveConfig, projects []domain.ProjectInfo) domain.ItemResult {
	dst := filepath.Join(eff.OutDir, SitemapFile)
	res := domain.ItemResult{Kind: domain.KindSitemap, Target: relTarget(eff.Path, dst)}

	pages := make([]string, 0, len(projects)+1)
	pages = append(pages, "index.html")
	for _, p := range projects {
		pages = append(pages, p.PageFile())
	}
	b, err := render.Sitemap(eff.BaseURL, pages)
	if err != nil {
		res.Status = domain.StatusFailed
		res.ErrorCode = domain.ErrCodeRenderFailed
		res.ErrorMsg = err.Error()
		return res
	}
	status, err := emit(eff.Apply, dst, b)
	res.Status = status
	if err != nil {
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
	}
	return res
}
