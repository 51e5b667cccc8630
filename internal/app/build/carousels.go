package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/folio/internal/carousel"
	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/scan"
)

// IndexFile 是首页（相对站点根目录）。
const IndexFile = "index.html"

// Carousels 扫描 images/mobile-covers 并把轮播写回 index.html 的容器。
func Carousels(ctx context.Context, eff config.EffectiveConfig, env Env) domain.Report {
	obs := env.obs()
	obs.OnStart("carousels", eff)

	rep := newReport("carousels", eff)
	res := domain.ItemResult{Kind: domain.KindCarousel, Target: IndexFile}
	fail := func(code string, err error) domain.Report {
		res.Status = domain.StatusFailed
		res.ErrorCode = code
		res.ErrorMsg = err.Error()
		rep.Items = append(rep.Items, res)
		return finish(&rep)
	}

	if err := ctx.Err(); err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}

	started := time.Now()
	covers, err := scan.ScanCovers(eff.Path)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Errorf("扫描封面失败：%w", err))
	}
	groups := carousel.Group(covers, eff.CarouselCategories)
	obs.OnPhaseDone("scan", map[string]any{"covers": len(covers), "categories": len(groups)}, time.Since(started))

	fragment, err := carousel.Build(groups)
	if err != nil {
		return fail(domain.ErrCodeRenderFailed, err)
	}

	dst := filepath.Join(eff.Path, IndexFile)
	index, err := os.ReadFile(dst)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}
	out, err := carousel.Splice(index, fragment)
	if err != nil {
		if errors.Is(err, carousel.ErrNoContainer) || errors.Is(err, carousel.ErrMultipleContainers) {
			return fail(domain.ErrCodeNoContainer, err)
		}
		return fail(domain.ErrCodeRenderFailed, err)
	}

	res.Media = len(covers)
	res.Status, err = emit(eff.Apply, dst, out)
	if err != nil {
		res.ErrorCode = domain.ErrCodeIOFailed
		res.ErrorMsg = err.Error()
	}
	rep.Items = append(rep.Items, res)
	obs.OnItemDone(1, 1, res, time.Since(started))
	return finish(&rep)
}
