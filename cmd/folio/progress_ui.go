package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/folio/internal/app/build"
	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/domain"
)

var _ build.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的行式进度输出。
//
// 过程信息只写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON。
// 长时间无条目完成时由 keepalive ticker 补打一行进度。
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers int
	total   int
	done    int
	ok      int
	fail    int
	skip    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(command string, eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "dry-run"
	modeHint := " (只计算，不写入)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] folio %s (%s)\n", now.Format("15:04:05"), command, mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  layout: width=%g row_height=%g gap=%g min_items=%d visible_rows=%d\n",
		eff.Layout.ContainerWidth, eff.Layout.TargetRowHeight, eff.Layout.Gap,
		eff.Layout.MinItemsPerRow, eff.Layout.VisibleRows,
	)
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  base_url: %s\n", orOff(truncate(eff.BaseURL, 120)))
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 固定排除 .folio/\n", formatStringListJSON(eff.ExcludeDirs))

	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  out: %s\n", eff.OutDir)
	if eff.Apply {
		fmt.Fprintf(p.w, "  report: %s\n", filepath.Join(eff.Path, filepath.FromSlash(build.ReportFile)))
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		if _, ok := fields["covers"]; ok {
			fmt.Fprintf(p.w, "扫描: covers=%d categories=%d (%s)\n",
				intField(fields, "covers"), intField(fields, "categories"), formatShortDuration(dur),
			)
		} else {
			fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
		}
	case "group":
		fmt.Fprintf(p.w, "分组: projects=%d sections=%d (%s)\n",
			intField(fields, "projects"), intField(fields, "sections"), formatShortDuration(dur),
		)
	case "probe":
		fmt.Fprintf(p.w, "探测: files=%d fallbacks=%d (%s)\n",
			intField(fields, "files"), intField(fields, "fallbacks"), formatShortDuration(dur),
		)
	case "plan":
		fmt.Fprintf(p.w, "规划: thumbs=%d todo=%d skip=%d (%s)\n",
			intField(fields, "thumbs"), intField(fields, "todo"), intField(fields, "skip"), formatShortDuration(dur),
		)
	case "render", "exec":
		p.workers = intField(fields, "workers")
		p.total = intField(fields, "pages")
		if name == "exec" {
			p.total = intField(fields, "total_items")
		}
		fmt.Fprintf(p.w, "执行: workers=%d total_items=%d\n\n", p.workers, p.total)
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	default:
		// 未知阶段也打印一行，便于调试。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	switch res.Status {
	case domain.StatusFailed:
		p.fail++
	case domain.StatusSkipped:
		p.skip++
	default:
		p.ok++
	}

	status := statusLabel(res.Status)
	switch res.Status {
	case domain.StatusFailed:
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s: %s (%s)\n",
			idx, total, res.Target, status, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	case domain.StatusSkipped:
		fmt.Fprintf(p.w, "[%d/%d] %s %s (%s)\n", idx, total, res.Target, status, formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s %s%s (%s)\n",
			idx, total, res.Target, status, formatItemStats(res), formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免结束后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stop := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					active := p.workers
					if remain := p.total - p.done; remain < active {
						active = remain
					}
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d skip=%d active=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, p.skip, active, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// close 停止 keepalive（命令提前结束时调用，例如 ctx 取消）。
func (p *progressUI) close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func statusLabel(s string) string {
	switch s {
	case domain.StatusWritten:
		return "OK"
	case domain.StatusUnchanged:
		return "SAME"
	case domain.StatusPlanned:
		return "PLAN"
	case domain.StatusSkipped:
		return "SKIP"
	case domain.StatusFailed:
		return "FAIL"
	}
	return strings.ToUpper(s)
}

// formatItemStats 只输出非零的页面统计。
func formatItemStats(res domain.ItemResult) string {
	var b strings.Builder
	for _, f := range []struct {
		key string
		n   int
	}{
		{"sections", res.Sections},
		{"media", res.Media},
		{"rows", res.Rows},
		{"fallbacks", res.Fallbacks},
	} {
		if f.n == 0 {
			continue
		}
		fmt.Fprintf(&b, " %s=%d", f.key, f.n)
	}
	return b.String()
}

func orOff(s string) string {
	if s == "" {
		return "off"
	}
	return s
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) 得到 "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		return 0
	}
}
