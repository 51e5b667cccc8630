package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/naming"
)

const (
	GalleryDir = "images/gallery"
	CoversDir  = "images/mobile-covers"
	StateDir   = ".folio"

	// MainSection 是直接位于项目目录下的文件所归入的分区。
	MainSection = "main"
)

// ErrNoGallery 表示 <root>/images/gallery 不存在。
var ErrNoGallery = errors.New("图库目录不存在")

// ScanMedia 扫描 <root>/images/gallery 下的媒体文件，并应用目录排除规则。
//
// 规则（硬约束）：
// - 只收录扩展名白名单内的文件（大小写不敏感）
// - 跳过以 '.' 开头的文件与目录；跳过缩略图（文件名含 "_thumb"）
// - 永久排除：<root>/.folio/
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
// - 目录层级：gallery/<project>/<section>/...；直接位于 <project> 下的文件归入 "main"
// - 更深层的文件归入其第二级目录；gallery 根目录下的散落文件忽略
//
// 注意：扫描阶段只做 stat（DirEntry.Info），不读文件内容。
func ScanMedia(root string, excludeDirs []string) ([]domain.MediaFile, error) {
	root = filepath.Clean(root)
	base := filepath.Join(root, filepath.FromSlash(GalleryDir))
	if st, err := os.Stat(base); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w：%s", ErrNoGallery, base)
	}
	excluded := buildExcluded(root, excludeDirs)

	files := make([]domain.MediaFile, 0, 128)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == base {
			return nil
		}

		name := d.Name()
		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if strings.HasPrefix(name, ".") || isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		kind, ok := mediaExt(ext)
		if !ok || IsThumb(name) {
			return nil
		}

		inGallery, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(inGallery), "/")
		if len(parts) < 2 {
			return nil
		}
		section := MainSection
		if len(parts) > 2 {
			section = parts[1]
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, domain.MediaFile{
			AbsPath: path,
			RelPath: filepath.ToSlash(rel),
			Project: parts[0],
			Section: section,
			Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			IsVideo: kind == kindVideo,
			Size:    info.Size(),
			ModUnix: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出：数字前缀按数值比较（"10-x" 在 "2-y" 之后）。
	sort.SliceStable(files, func(i, j int) bool { return naming.LessPath(files[i].RelPath, files[j].RelPath) })
	return files, nil
}

// ScanCovers 扫描 <root>/images/mobile-covers/<category>/ 下的封面图片。
// 目录不存在时返回空结果。
func ScanCovers(root string) ([]domain.Cover, error) {
	root = filepath.Clean(root)
	base := filepath.Join(root, filepath.FromSlash(CoversDir))

	cats, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Cover{}, nil
		}
		return nil, err
	}

	out := make([]domain.Cover, 0, 32)
	for _, cat := range cats {
		if !cat.IsDir() || strings.HasPrefix(cat.Name(), ".") {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(base, cat.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || IsThumb(name) {
				continue
			}
			switch strings.ToLower(filepath.Ext(name)) {
			case ".jpg", ".jpeg", ".png", ".webp":
			default:
				continue
			}
			out = append(out, domain.Cover{
				Category: cat.Name(),
				AbsPath:  filepath.Join(base, cat.Name(), name),
				RelPath:  CoversDir + "/" + cat.Name() + "/" + name,
				Name:     name,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return naming.Less(out[i].Category, out[j].Category)
		}
		return naming.Less(out[i].Name, out[j].Name)
	})
	return out, nil
}

// IsThumb 判断文件名是否为本工具生成的缩略图。
func IsThumb(name string) bool {
	return strings.Contains(strings.ToLower(name), "_thumb")
}

type mediaKind int

const (
	kindImage mediaKind = iota
	kindVideo
)

func mediaExt(ext string) (mediaKind, bool) {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
		return kindImage, true
	case ".mp4", ".mov", ".webm":
		return kindVideo, true
	default:
		return 0, false
	}
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, 1+len(excludeDirs))
	excluded = append(excluded, filepath.Join(root, StateDir))

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
