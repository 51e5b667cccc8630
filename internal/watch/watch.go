// Package watch 监听站点源文件变化，并在变化平息后触发重建。
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/content"
	"github.com/John-Robertt/folio/internal/scan"
)

// DefaultDebounce 是最后一次变化之后到触发重建的等待时间。
const DefaultDebounce = 500 * time.Millisecond

// Options 控制一次监听。
type Options struct {
	Root     string
	Debounce time.Duration
	Log      *zap.Logger
}

// Run 阻塞监听 <Root>/images（递归）、text-content.json 与 folio.yaml，直到 ctx 取消。
//
// - 缩略图（*_thumb*）、隐藏文件与 .folio/ 下的变化被忽略（避免构建输出触发自身）
// - 一串连续变化只触发一次 rebuild；rebuild 在 Run 的 goroutine 内同步执行
// - 新建的子目录会自动加入监听
//
// ctx 取消时返回 nil；只有监听器无法建立时返回 error。
func Run(ctx context.Context, opt Options, rebuild func(context.Context)) error {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	debounce := opt.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	root := filepath.Clean(opt.Root)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// 根目录只监听一层：用于 text-content.json / folio.yaml。
	if err := w.Add(root); err != nil {
		return err
	}
	addTree(w, filepath.Join(root, "images"), log)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && Relevant(root, ev.Name) {
					addTree(w, ev.Name, log)
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if !Relevant(root, ev.Name) {
				continue
			}
			log.Debug("检测到变化", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Stop()
				timer.Reset(debounce)
			}
			timerC = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("监听出错", zap.Error(err))

		case <-timerC:
			timerC = nil
			log.Info("源文件已变化，开始重建")
			rebuild(ctx)
		}
	}
}

// Relevant 判断 path 的变化是否需要重建。
func Relevant(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	if rel == content.FileName || rel == config.FileName {
		return true
	}
	if rel != "images" && !strings.HasPrefix(rel, "images/") {
		return false
	}
	return !scan.IsThumb(filepath.Base(rel))
}

func addTree(w *fsnotify.Watcher, dir string, log *zap.Logger) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// 目录不存在（例如还没有 images/）不算错误。
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			log.Warn("无法监听目录", zap.String("dir", p), zap.Error(err))
		}
		return nil
	})
}
