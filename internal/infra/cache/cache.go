package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/infra/fsx"
)

// DimsFile 是尺寸缓存相对站点根目录的位置。
const DimsFile = ".folio/cache/dims.json"

var ErrReadOnly = errors.New("cache: read-only")

// DimsStore 缓存媒体尺寸，避免每次构建都重新读取文件头。
//
// 约束：
// - 键为 RelPath；Size 或 ModUnix 变化即视为失效
// - 占位回退尺寸（Fallback）不入缓存，下次仍会重新探测
// - dry-run：只允许读（ReadOnly=true），Flush 返回 ErrReadOnly
// - 并发安全：probe 会在多个 goroutine 中调用 Get/Put
type DimsStore struct {
	Root     string // 站点根目录
	ReadOnly bool

	mu      sync.Mutex
	entries map[string]dimsEntry
	dirty   bool
}

type dimsEntry struct {
	Size    int64 `json:"size"`
	ModUnix int64 `json:"mtime"`
	Width   int   `json:"width"`
	Height  int   `json:"height"`
}

type dimsFile struct {
	Version int                  `json:"version"`
	Entries map[string]dimsEntry `json:"entries"`
}

const dimsVersion = 1

// OpenDims 读取 <root>/.folio/cache/dims.json。
// 文件不存在、版本不符或内容损坏时从空缓存开始（缓存丢失只影响性能）。
func OpenDims(root string, readOnly bool) (*DimsStore, error) {
	s := &DimsStore{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
		entries:  map[string]dimsEntry{},
	}

	b, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("读取尺寸缓存失败：%w", err)
	}

	var f dimsFile
	if err := json.Unmarshal(b, &f); err != nil || f.Version != dimsVersion {
		return s, nil
	}
	for k, v := range f.Entries {
		if v.Width > 0 && v.Height > 0 {
			s.entries[k] = v
		}
	}
	return s, nil
}

// Path 返回缓存文件的绝对路径。
func (s *DimsStore) Path() string {
	return filepath.Join(s.Root, filepath.FromSlash(DimsFile))
}

// Get 返回命中的尺寸；文件大小或 mtime 变化时视为未命中。
func (s *DimsStore) Get(f domain.MediaFile) (domain.Dims, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[f.RelPath]
	if !ok || e.Size != f.Size || e.ModUnix != f.ModUnix {
		return domain.Dims{}, false
	}
	return domain.Dims{Width: e.Width, Height: e.Height}, true
}

// Put 记录探测结果；回退尺寸与非法尺寸被忽略。
func (s *DimsStore) Put(f domain.MediaFile, d domain.Dims) {
	if d.Fallback || d.Width <= 0 || d.Height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := dimsEntry{Size: f.Size, ModUnix: f.ModUnix, Width: d.Width, Height: d.Height}
	if old, ok := s.entries[f.RelPath]; ok && old == e {
		return
	}
	s.entries[f.RelPath] = e
	s.dirty = true
}

// Prune 删除 keep 之外的条目（图库中已删除的文件）。
func (s *DimsStore) Prune(keep map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.entries {
		if _, ok := keep[k]; !ok {
			delete(s.entries, k)
			s.dirty = true
		}
	}
}

// Len 返回缓存条目数。
func (s *DimsStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Flush 把变更原子写回磁盘；无变更时不写。
func (s *DimsStore) Flush() error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	b, err := json.MarshalIndent(dimsFile{Version: dimsVersion, Entries: s.entries}, "", "  ")
	if err != nil {
		return err
	}
	if err := fsx.WriteFile(s.Path(), append(b, '\n')); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
