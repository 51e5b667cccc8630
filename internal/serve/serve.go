// Package serve 提供本地预览服务器。
package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options 描述要服务的目录。
type Options struct {
	// Root 是站点根目录（images/ 与首页所在处）；OutDir 是生成页面所在目录。
	Root   string
	OutDir string
	Log    *zap.Logger
}

// NewHandler 返回预览站点的路由。
//
// - /healthz 返回 ok
// - /images/* 直接来自 Root
// - 其余路径先查 OutDir 再查 Root；目录请求返回其中的 index.html
// - 任一路径段以 "." 开头时返回 404（不暴露 .folio/ 等状态目录）
func NewHandler(opt Options) http.Handler {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	outDir := opt.OutDir
	if outDir == "" {
		outDir = opt.Root
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(hideDotPaths)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/images/*", http.FileServer(http.Dir(opt.Root)))
	r.Handle("/*", http.FileServer(overlay{http.Dir(outDir), http.Dir(opt.Root)}))
	return r
}

// ListenAndServe 在 addr 上服务 h，直到 ctx 取消后优雅关闭。
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("预览服务已启动", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("预览服务已停止")
	return nil
}

// overlay 依次在多个目录中查找文件。
type overlay []http.FileSystem

func (o overlay) Open(name string) (http.File, error) {
	var firstErr error
	for _, fs := range o {
		f, err := fs.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = os.ErrNotExist
	}
	return nil, firstErr
}

func hideDotPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range strings.Split(path.Clean(r.URL.Path), "/") {
			if strings.HasPrefix(part, ".") {
				http.NotFound(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("dur", time.Since(started)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
