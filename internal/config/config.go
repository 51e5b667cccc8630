package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/folio/internal/domain"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 folio.yaml。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = domain.ErrCodeConfigMissingPath
)

// FileName 是配置文件名（位于站点根目录或 cwd）。
const FileName = "folio.yaml"

// 内置默认值（当配置未指定时）。
const (
	DefaultContainerWidth  = 1000
	DefaultTargetRowHeight = 300
	DefaultGap             = 10
	DefaultMinItemsPerRow  = 3
	DefaultVisibleRows     = 3
	DefaultConcurrency     = 4
	DefaultThumbWidth      = 600
	DefaultThumbLargeWidth = 1000
	DefaultThumbQuality    = 85
)

// 环境变量覆盖。
const (
	EnvBaseURL     = "FOLIO_BASE_URL"
	EnvConcurrency = "FOLIO_CONCURRENCY"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	Apply    bool
	ApplySet bool

	BaseURL    string
	BaseURLSet bool
}

// SectionConfig 是分区级覆盖项；nil 表示“不覆盖”。
type SectionConfig struct {
	MinItemsPerRow  *int     `yaml:"min_items_per_row"`
	TargetRowHeight *float64 `yaml:"target_row_height"`
	FirstRowCount   *int     `yaml:"first_row_count"`
	CustomRows      []int    `yaml:"custom_rows"`
	ShowAllRows     *bool    `yaml:"show_all_rows"`
}

type ThumbConfig struct {
	Width      int `yaml:"width"`
	LargeWidth int `yaml:"large_width"`
	Quality    int `yaml:"quality"`
}

type CheckConfig struct {
	Proxy string `yaml:"proxy"`
}

// FileConfig 对应 folio.yaml 的解析结构。未知字段忽略。
type FileConfig struct {
	Path     string `yaml:"path"`
	OutDir   string `yaml:"out_dir"`
	SiteName string `yaml:"site_name"`
	Subtitle string `yaml:"subtitle"`
	BaseURL  string `yaml:"base_url"`
	Apply    *bool  `yaml:"apply"`

	ContainerWidth  float64  `yaml:"container_width"`
	TargetRowHeight float64  `yaml:"target_row_height"`
	Gap             *float64 `yaml:"gap"`
	MinItemsPerRow  int      `yaml:"min_items_per_row"`
	VisibleRows     int      `yaml:"visible_rows"`
	Concurrency     int      `yaml:"concurrency"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`

	Thumbnails ThumbConfig `yaml:"thumbnails"`
	Check      CheckConfig `yaml:"check"`

	Projects       []domain.ProjectInfo     `yaml:"projects"`
	Sections       map[string]SectionConfig `yaml:"sections"`
	TitleOverrides map[string]SectionConfig `yaml:"title_overrides"`

	Autoplay           []string          `yaml:"autoplay"`
	InvertedControls   []string          `yaml:"inverted_controls"`
	CarouselCategories map[string]string `yaml:"carousel_categories"`
}

// Layout 是全局布局默认值。
type Layout struct {
	ContainerWidth  float64
	TargetRowHeight float64
	Gap             float64
	MinItemsPerRow  int
	VisibleRows     int
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path   string
	OutDir string
	// File 是实际读取到的配置文件；不存在时为空。
	File string

	SiteName string
	Subtitle string
	BaseURL  string
	Apply    bool

	Concurrency int
	ExcludeDirs []string
	ProxyURL    string

	Layout Layout
	Thumbs ThumbConfig

	Projects       []domain.ProjectInfo
	Sections       map[string]SectionConfig
	TitleOverrides map[string]SectionConfig

	Autoplay           []string
	InvertedControls   []string
	CarouselCategories map[string]string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按固定规则发现并读取配置文件，然后与 CLI 参数、环境变量合并为最终配置。
//
// 发现规则：
// 1) CLI 提供 path：尝试读取 <path>/folio.yaml（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/folio.yaml（必选），且其中必须包含 path
//
// 覆盖优先级：
// - path：CLI path > config path
// - apply：CLI --apply/--apply=false > config > 默认 false
// - base_url：CLI --base-url > FOLIO_BASE_URL > config
// - concurrency：FOLIO_CONCURRENCY > config > 默认 4
// - 其他字段：仅由 config 控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, FileName)

		fc, exists, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			cfgPath = ""
		}
		return merge(absPath, cli, fc, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	// 配置文件中的相对 path 以配置文件所在目录为基准。
	return merge(absCleanFrom(cwdAbs, fc.Path), cli, fc, cfgPath)
}

func merge(absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, a ...any) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, a...)}
	}

	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	baseURL := strings.TrimSpace(fc.BaseURL)
	if v, ok := os.LookupEnv(EnvBaseURL); ok {
		baseURL = strings.TrimSpace(v)
	}
	if cli.BaseURLSet {
		baseURL = strings.TrimSpace(cli.BaseURL)
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("base_url 无效：%q", baseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return invalid("base_url 必须是 http/https：%q", baseURL)
		}
	}

	concurrency := fc.Concurrency
	if v := strings.TrimSpace(os.Getenv(EnvConcurrency)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return invalid("%s 不是整数：%q", EnvConcurrency, v)
		}
		concurrency = n
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	concurrency = max(1, min(concurrency, 32))

	lay := Layout{
		ContainerWidth:  orDefault(fc.ContainerWidth, DefaultContainerWidth),
		TargetRowHeight: orDefault(fc.TargetRowHeight, DefaultTargetRowHeight),
		Gap:             DefaultGap,
		MinItemsPerRow:  orDefault(fc.MinItemsPerRow, DefaultMinItemsPerRow),
		VisibleRows:     orDefault(fc.VisibleRows, DefaultVisibleRows),
	}
	if fc.Gap != nil {
		lay.Gap = *fc.Gap
	}
	switch {
	case lay.ContainerWidth <= 0:
		return invalid("container_width 必须 > 0")
	case lay.TargetRowHeight <= 0:
		return invalid("target_row_height 必须 > 0")
	case lay.Gap < 0:
		return invalid("gap 不能为负")
	case lay.Gap >= lay.ContainerWidth:
		return invalid("gap 必须小于 container_width")
	}

	th := ThumbConfig{
		Width:      orDefault(fc.Thumbnails.Width, DefaultThumbWidth),
		LargeWidth: orDefault(fc.Thumbnails.LargeWidth, DefaultThumbLargeWidth),
		Quality:    orDefault(fc.Thumbnails.Quality, DefaultThumbQuality),
	}
	if th.Width < 0 || th.LargeWidth < 0 {
		return invalid("thumbnails 宽度不能为负")
	}
	if th.Quality < 1 || th.Quality > 100 {
		return invalid("thumbnails.quality 必须在 [1, 100]：%d", th.Quality)
	}

	proxyURL := strings.TrimSpace(fc.Check.Proxy)
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid("check.proxy 无效：%w", err)
		}
	}

	for key, sc := range fc.Sections {
		if strings.Count(key, "/") != 1 {
			return invalid("sections 的键必须是 <project>/<section>：%q", key)
		}
		if err := validateSection(sc); err != nil {
			return invalid("sections[%q]：%w", key, err)
		}
	}
	for key, sc := range fc.TitleOverrides {
		if err := validateSection(sc); err != nil {
			return invalid("title_overrides[%q]：%w", key, err)
		}
	}

	seen := map[string]bool{}
	for _, p := range fc.Projects {
		id := strings.TrimSpace(p.ID)
		if id == "" && strings.TrimSpace(p.GalleryKey) == "" {
			return invalid("projects 条目必须至少包含 id 或 gallery_key")
		}
		if id != "" {
			if seen[id] {
				return invalid("projects 中 id 重复：%q", id)
			}
			seen[id] = true
		}
	}

	outDir := absPath
	if strings.TrimSpace(fc.OutDir) != "" {
		outDir = absCleanFrom(absPath, fc.OutDir)
	}

	return EffectiveConfig{
		Path:               absPath,
		OutDir:             outDir,
		File:               cfgPath,
		SiteName:           strings.TrimSpace(fc.SiteName),
		Subtitle:           strings.TrimSpace(fc.Subtitle),
		BaseURL:            baseURL,
		Apply:              apply,
		Concurrency:        concurrency,
		ExcludeDirs:        append([]string(nil), fc.ExcludeDirs...),
		ProxyURL:           proxyURL,
		Layout:             lay,
		Thumbs:             th,
		Projects:           append([]domain.ProjectInfo(nil), fc.Projects...),
		Sections:           fc.Sections,
		TitleOverrides:     fc.TitleOverrides,
		Autoplay:           append([]string(nil), fc.Autoplay...),
		InvertedControls:   append([]string(nil), fc.InvertedControls...),
		CarouselCategories: fc.CarouselCategories,
	}, nil
}

func validateSection(sc SectionConfig) error {
	if sc.MinItemsPerRow != nil && *sc.MinItemsPerRow < 1 {
		return fmt.Errorf("min_items_per_row 必须 >= 1")
	}
	if sc.TargetRowHeight != nil && *sc.TargetRowHeight <= 0 {
		return fmt.Errorf("target_row_height 必须 > 0")
	}
	if sc.FirstRowCount != nil && *sc.FirstRowCount < 0 {
		return fmt.Errorf("first_row_count 不能为负")
	}
	for _, n := range sc.CustomRows {
		if n < 1 {
			return fmt.Errorf("custom_rows 中的数量必须 >= 1")
		}
	}
	return nil
}

func orDefault[T int | float64](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
