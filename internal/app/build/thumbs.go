package build

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/folio/internal/app/planner"
	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/infra/fsx"
	"github.com/John-Robertt/folio/internal/infra/imgx"
)

// Thumbs 规划缩略图；apply 时按 concurrency 并发生成并原子写入。
// force 为 true 时忽略“已是最新”的判断，全部重建。
func Thumbs(ctx context.Context, eff config.EffectiveConfig, force bool, env Env) domain.Report {
	log := env.log()
	obs := env.obs()
	obs.OnStart("thumbs", eff)

	rep := newReport("thumbs", eff)

	s, err := loadSite(eff, env)
	if err != nil {
		rep.Items = append(rep.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		return finish(&rep)
	}

	planStarted := time.Now()
	states, err := planner.ReadThumbStates(s.files)
	if err != nil {
		rep.Items = append(rep.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("读取缩略图状态失败：%v", err)))
		return finish(&rep)
	}
	plans := planner.PlanThumbs(s.files, states, planner.Options{
		Width:      eff.Thumbs.Width,
		LargeWidth: eff.Thumbs.LargeWidth,
		Force:      force,
	})

	var todo []domain.ThumbPlan
	for _, p := range plans {
		if p.Skip {
			rep.Items = append(rep.Items, domain.ItemResult{Kind: domain.KindThumb, Target: p.DstRel, Status: domain.StatusSkipped})
			continue
		}
		todo = append(todo, p)
	}
	obs.OnPhaseDone("plan", map[string]any{
		"thumbs": len(plans),
		"todo":   len(todo),
		"skip":   len(plans) - len(todo),
	}, time.Since(planStarted))

	if !eff.Apply {
		for _, p := range todo {
			rep.Items = append(rep.Items, domain.ItemResult{Kind: domain.KindThumb, Target: p.DstRel, Status: domain.StatusPlanned})
		}
		return finish(&rep)
	}

	obs.OnPhaseDone("exec", map[string]any{"workers": eff.Concurrency, "total_items": len(todo)}, 0)

	results := make([]domain.ItemResult, len(todo))
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, eff.Concurrency))
	for i, p := range todo {
		g.Go(func() error {
			started := time.Now()
			res := makeThumb(gctx, p, eff.Thumbs.Quality)
			if res.Status == domain.StatusFailed {
				log.Warn("缩略图生成失败", zap.String("src", p.SrcRel), zap.String("error", res.ErrorMsg))
			}
			results[i] = res

			mu.Lock()
			done++
			obs.OnItemDone(done, len(todo), res, time.Since(started))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	rep.Items = append(rep.Items, results...)

	out := finish(&rep)
	if err := WriteReport(eff.Path, out); err != nil {
		log.Error("写入报告失败", zap.Error(err))
	}
	return out
}

func makeThumb(ctx context.Context, p domain.ThumbPlan, quality int) domain.ItemResult {
	res := domain.ItemResult{Kind: domain.KindThumb, Target: p.DstRel, Status: domain.StatusWritten}
	fail := func(code string, err error) domain.ItemResult {
		res.Status = domain.StatusFailed
		res.ErrorCode = code
		res.ErrorMsg = err.Error()
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(domain.ErrCodeImageFailed, err)
	}
	src, err := os.ReadFile(p.SrcAbs)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}
	b, err := imgx.ResizeToWidthJPEG(src, p.Width, quality)
	if err != nil {
		return fail(domain.ErrCodeImageFailed, fmt.Errorf("%s：%w", p.SrcRel, err))
	}
	if err := fsx.WriteFile(p.DstAbs, b); err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}
	return res
}
