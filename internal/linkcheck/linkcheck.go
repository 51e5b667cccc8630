// Package linkcheck 检查生成页面里引用的站内资源是否存在。
package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/folio/internal/domain"
)

// 需要检查的 (选择器, 属性)。
var refAttrs = []struct{ sel, attr string }{
	{"img[src]", "src"},
	{"img[data-full-src]", "data-full-src"},
	{"video[poster]", "poster"},
	{"source[src]", "src"},
	{"link[href]", "href"},
	{"script[src]", "src"},
	{"a[href]", "href"},
}

// Extract 返回 HTML 中引用的站内相对链接（去掉 query/fragment，按出现顺序去重）。
// 外部链接（带 scheme 或以 // 开头）、锚点、data:/mailto:/tel:/javascript: 一律忽略。
func Extract(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []string
	for _, ra := range refAttrs {
		doc.Find(ra.sel).Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(ra.attr)
			ref, ok := siteRef(v)
			if !ok || seen[ref] {
				return
			}
			seen[ref] = true
			out = append(out, ref)
		})
	}
	return out, nil
}

func siteRef(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "//") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	return u.Path, true
}

// Options 控制一次检查。
type Options struct {
	// Root 是站点根目录；OutDir 是生成页面所在目录（可与 Root 相同）。
	Root   string
	OutDir string

	// BaseURL 非空时走远程模式：对 <BaseURL>/<ref> 发 HEAD。
	BaseURL string
	Client  *http.Client

	Concurrency int
	Log         *zap.Logger
}

type pageRef struct {
	page string
	ref  string
}

// Check 扫描 OutDir 下的 *.html（不递归），检查每个站内链接。
//
// 本地模式：ref 先相对 OutDir 解析，不存在时再相对 Root 解析（images/ 在 Root 下）。
// 远程模式：同一目标只请求一次；状态码 >= 400 视为缺失，405 时退回 GET。
func Check(ctx context.Context, opt Options) (domain.CheckReport, error) {
	rep := domain.CheckReport{Root: opt.Root, BaseURL: opt.BaseURL, Missing: []domain.MissingLink{}}
	if opt.OutDir == "" {
		opt.OutDir = opt.Root
	}
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}

	pages, err := filepath.Glob(filepath.Join(opt.OutDir, "*.html"))
	if err != nil {
		return rep, err
	}
	sort.Strings(pages)
	rep.Pages = len(pages)

	var refs []pageRef
	for _, p := range pages {
		fh, err := os.Open(p)
		if err != nil {
			return rep, err
		}
		list, err := Extract(fh)
		_ = fh.Close()
		if err != nil {
			return rep, fmt.Errorf("解析 %s 失败：%w", filepath.Base(p), err)
		}
		for _, r := range list {
			refs = append(refs, pageRef{page: filepath.Base(p), ref: r})
		}
	}

	targets := uniqueRefs(refs)
	rep.Checked = len(targets)

	var verdict map[string]string
	if strings.TrimSpace(opt.BaseURL) != "" {
		verdict, err = checkRemote(ctx, opt, targets)
		if err != nil {
			return rep, err
		}
	} else {
		verdict = checkLocal(opt, targets)
	}

	for _, pr := range refs {
		if why, bad := verdict[pr.ref]; bad {
			rep.Missing = append(rep.Missing, domain.MissingLink{Page: pr.page, Ref: pr.ref, Reason: why})
		}
	}
	log.Debug("链接检查完成",
		zap.Int("pages", rep.Pages),
		zap.Int("checked", rep.Checked),
		zap.Int("missing", len(rep.Missing)))
	return rep, nil
}

func uniqueRefs(refs []pageRef) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range refs {
		if !seen[r.ref] {
			seen[r.ref] = true
			out = append(out, r.ref)
		}
	}
	return out
}

// checkLocal 返回缺失目标 -> 原因。
func checkLocal(opt Options, targets []string) map[string]string {
	bad := map[string]string{}
	for _, ref := range targets {
		rel, err := url.PathUnescape(ref)
		if err != nil {
			bad[ref] = "路径编码无效"
			continue
		}
		rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
		if rel == "" {
			rel = "index.html"
		}
		if exists(filepath.Join(opt.OutDir, filepath.FromSlash(rel))) ||
			exists(filepath.Join(opt.Root, filepath.FromSlash(rel))) {
			continue
		}
		bad[ref] = "文件不存在"
	}
	return bad
}

func exists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func checkRemote(ctx context.Context, opt Options, targets []string) (map[string]string, error) {
	base, err := url.Parse(strings.TrimSpace(opt.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base_url 无效：%q", opt.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	client := opt.Client
	if client == nil {
		client = http.DefaultClient
	}
	conc := opt.Concurrency
	if conc < 1 {
		conc = 1
	}

	var mu sync.Mutex
	bad := map[string]string{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conc)
	for _, ref := range targets {
		g.Go(func() error {
			ru, err := url.Parse(strings.TrimPrefix(ref, "/"))
			if err != nil {
				return nil
			}
			why := probeURL(gctx, client, base.ResolveReference(ru).String())
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if why != "" {
				mu.Lock()
				bad[ref] = why
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bad, nil
}

// probeURL 返回空字符串表示可访问，否则返回原因。
func probeURL(ctx context.Context, c *http.Client, u string) string {
	code, err := do(ctx, c, http.MethodHead, u)
	if err == nil && code == http.StatusMethodNotAllowed {
		code, err = do(ctx, c, http.MethodGet, u)
	}
	if err != nil {
		return "请求失败：" + err.Error()
	}
	if code >= 400 {
		return fmt.Sprintf("HTTP %d", code)
	}
	return ""
}

func do(ctx context.Context, c *http.Client, method, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
