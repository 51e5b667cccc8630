package build

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/content"
	"github.com/John-Robertt/folio/internal/domain"
)

// Describe 把图库同步进 text-content.json：新增图片得到空描述条目，已删除图片的条目被移除，
// 已有描述保持不变。
func Describe(ctx context.Context, eff config.EffectiveConfig, env Env) (domain.Report, content.SyncStats) {
	log := env.log()
	obs := env.obs()
	obs.OnStart("describe", eff)

	rep := newReport("describe", eff)
	dst := filepath.Join(eff.Path, content.FileName)
	res := domain.ItemResult{Kind: domain.KindContent, Target: content.FileName}
	fail := func(code string, err error) (domain.Report, content.SyncStats) {
		res.Status = domain.StatusFailed
		res.ErrorCode = code
		res.ErrorMsg = err.Error()
		rep.Items = append(rep.Items, res)
		return finish(&rep), content.SyncStats{}
	}

	if err := ctx.Err(); err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}
	s, err := loadSite(eff, env)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Errorf("扫描失败：%w", err))
	}

	started := time.Now()
	tc, _, err := content.Load(dst)
	if err != nil {
		// 解析失败时不覆盖用户文件。
		return fail(domain.ErrCodeConfigInvalid, err)
	}
	synced, st := content.Sync(tc, s.gallery, s.projects)
	b, err := content.Marshal(synced)
	if err != nil {
		return fail(domain.ErrCodeRenderFailed, err)
	}

	res.Media = s.gallery.Count()
	res.Status, err = emit(eff.Apply, dst, b)
	if err != nil {
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
	}
	rep.Items = append(rep.Items, res)
	obs.OnItemDone(1, 1, res, time.Since(started))

	log.Info("文字内容同步",
		zap.Int("projects_added", st.ProjectsAdded),
		zap.Int("sections_added", st.SectionsAdded),
		zap.Int("images_added", st.ImagesAdded),
		zap.Int("images_removed", st.ImagesRemoved))
	return finish(&rep), st
}
