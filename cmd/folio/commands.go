package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/folio/internal/app/build"
	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/infra/httpx"
	"github.com/John-Robertt/folio/internal/layout"
	"github.com/John-Robertt/folio/internal/linkcheck"
	"github.com/John-Robertt/folio/internal/serve"
	"github.com/John-Robertt/folio/internal/watch"
)

const defaultServeAddr = "127.0.0.1:8080"

func (c *cli) buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "生成项目页、gallery-data.json 与 sitemap",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(cmd, args)
			if err != nil {
				return c.configFailed("build", cmd, err)
			}
			env, ui := c.env()
			defer ui.close()
			rep := build.Build(cmd.Context(), eff, env)
			c.emitReport(rep)
			return resultCode(rep)
		},
	}
	cmd.Flags().Bool("apply", false, "实际写入（默认 dry-run）")
	cmd.Flags().String("base-url", "", "站点公开地址（用于 sitemap；覆盖配置与环境变量）")
	return cmd
}

func (c *cli) thumbsCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "thumbs [path]",
		Short: "为图库图片生成缩略图",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(cmd, args)
			if err != nil {
				return c.configFailed("thumbs", cmd, err)
			}
			env, ui := c.env()
			defer ui.close()
			rep := build.Thumbs(cmd.Context(), eff, force, env)
			c.emitReport(rep)
			return resultCode(rep)
		},
	}
	cmd.Flags().Bool("apply", false, "实际写入（默认 dry-run）")
	cmd.Flags().BoolVar(&force, "force", false, "即使缩略图已是最新也重新生成")
	return cmd
}

func (c *cli) carouselsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carousels [path]",
		Short: "按 mobile-covers 重建首页的移动端轮播",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(cmd, args)
			if err != nil {
				return c.configFailed("carousels", cmd, err)
			}
			env, _ := c.env()
			rep := build.Carousels(cmd.Context(), eff, env)
			c.emitReport(rep)
			return resultCode(rep)
		},
	}
	cmd.Flags().Bool("apply", false, "实际写入（默认 dry-run）")
	return cmd
}

func (c *cli) describeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [path]",
		Short: "为新增媒体补齐 text-content.json 条目",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(cmd, args)
			if err != nil {
				return c.configFailed("describe", cmd, err)
			}
			env, _ := c.env()
			rep, stats := build.Describe(cmd.Context(), eff, env)
			fmt.Fprintf(c.stderr, "描述: projects_added=%d sections_added=%d images_added=%d images_removed=%d\n",
				stats.ProjectsAdded, stats.SectionsAdded, stats.ImagesAdded, stats.ImagesRemoved)
			c.emitReport(rep)
			return resultCode(rep)
		},
	}
	cmd.Flags().Bool("apply", false, "实际写入（默认 dry-run）")
	return cmd
}

// layoutCmd 直接暴露布局引擎：stdin 读 MediaItem 数组，stdout 写行数组。
func (c *cli) layoutCmd() *cobra.Command {
	p := layout.Params{
		ContainerWidth:  config.DefaultContainerWidth,
		TargetRowHeight: config.DefaultTargetRowHeight,
		Gap:             config.DefaultGap,
		MinItemsPerRow:  config.DefaultMinItemsPerRow,
	}
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "从 stdin 读取媒体尺寸（JSON），输出 justified 行布局",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.ContainerWidth <= 0 || p.TargetRowHeight <= 0 {
				return errors.New("--width 与 --height 必须 > 0")
			}
			if p.Gap < 0 || p.Gap >= p.ContainerWidth {
				return errors.New("--gap 必须 >= 0 且小于 --width")
			}
			items, err := readMediaItems(c.stdin)
			if err != nil {
				return err
			}
			rows := layout.Rows(items, p)
			c.log.Debug("布局完成", zap.Int("items", len(items)), zap.Int("rows", len(rows)))

			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rows); err != nil {
				fmt.Fprintf(c.stderr, "写出失败：%v\n", err)
				return exitCode(1)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&p.ContainerWidth, "width", p.ContainerWidth, "容器宽度（px）")
	cmd.Flags().Float64Var(&p.TargetRowHeight, "height", p.TargetRowHeight, "目标行高（px）")
	cmd.Flags().Float64Var(&p.Gap, "gap", p.Gap, "item 间距（px）")
	cmd.Flags().IntVar(&p.MinItemsPerRow, "min", p.MinItemsPerRow, "每行最少 item 数")
	return cmd
}

func readMediaItems(r io.Reader) ([]domain.MediaItem, error) {
	var items []domain.MediaItem
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("stdin 不是合法的媒体数组: %w", err)
	}
	for i, it := range items {
		if it.NaturalWidth <= 0 || it.NaturalHeight <= 0 {
			return nil, fmt.Errorf("第 %d 项尺寸非法: %dx%d", i, it.NaturalWidth, it.NaturalHeight)
		}
	}
	if items == nil {
		items = []domain.MediaItem{}
	}
	return items, nil
}

func (c *cli) checkCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "检查生成页面中的站内链接",
		Long: `check 解析输出目录下的 *.html，检查其中引用的图片、视频、样式与页面是否存在。

默认检查本地文件；--remote 或 --base-url 时对已部署站点发 HEAD 请求。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(cmd, args)
			if err != nil {
				fmt.Fprintf(c.stderr, "%s: %v\n", config.Code(err), err)
				return exitCode(1)
			}
			opt := linkcheck.Options{
				Root:        eff.Path,
				OutDir:      eff.OutDir,
				Concurrency: eff.Concurrency,
				Log:         c.log,
			}
			if remote || cmd.Flags().Changed("base-url") {
				if eff.BaseURL == "" {
					return errors.New("远程检查需要 base_url（--base-url、FOLIO_BASE_URL 或 folio.yaml）")
				}
				client, err := httpx.NewClient(eff.ProxyURL)
				if err != nil {
					fmt.Fprintf(c.stderr, "%s: %v\n", domain.ErrCodeConfigInvalid, err)
					return exitCode(1)
				}
				opt.BaseURL = eff.BaseURL
				opt.Client = client
			}

			rep, err := linkcheck.Check(cmd.Context(), opt)
			if err != nil {
				fmt.Fprintf(c.stderr, "检查失败：%v\n", err)
				return exitCode(1)
			}
			c.emitCheckReport(rep)
			if len(rep.Missing) > 0 {
				return exitCode(1)
			}
			return nil
		},
	}
	cmd.Flags().String("base-url", "", "远程检查的站点地址（隐含 --remote）")
	cmd.Flags().BoolVar(&remote, "remote", false, "检查已部署站点而非本地文件")
	return cmd
}

func (c *cli) emitCheckReport(rep domain.CheckReport) {
	summary := fmt.Sprintf("完成：pages=%d checked=%d missing=%d", rep.Pages, rep.Checked, len(rep.Missing))
	if isTTY(c.stdout) {
		fmt.Fprintln(c.stdout, summary)
		for _, m := range rep.Missing {
			fmt.Fprintf(c.stderr, "%s -> %s: %s\n", m.Page, m.Ref, m.Reason)
		}
		return
	}
	_ = json.NewEncoder(c.stdout).Encode(rep)
	fmt.Fprintln(c.stderr, summary)
}

func (c *cli) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "监听图库与内容变化并自动重建",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(cmd, args)
			if err != nil {
				return c.configFailed("watch", cmd, err)
			}
			ctx := cmd.Context()
			env := build.Env{Log: c.log}

			rebuild := func(ctx context.Context) {
				// folio.yaml 也在监听范围内：每次重建都重新读取配置，读取失败时沿用上一次。
				if next, err := c.loadConfig(cmd, args); err != nil {
					c.log.Warn("配置无效，沿用上一次配置", zap.String("code", config.Code(err)), zap.Error(err))
				} else {
					eff = next
				}
				started := time.Now()
				rep := build.Build(ctx, eff, env)
				c.log.Info("重建完成",
					zap.Int("written", rep.Summary.Written),
					zap.Int("unchanged", rep.Summary.Unchanged),
					zap.Int("planned", rep.Summary.Planned),
					zap.Int("failed", rep.Summary.Failed),
					zap.Duration("dur", time.Since(started)),
				)
			}

			rebuild(ctx)
			c.log.Info("开始监听", zap.String("root", eff.Path), zap.Bool("apply", eff.Apply))
			if err := watch.Run(ctx, watch.Options{Root: eff.Path, Debounce: debounce, Log: c.log}, rebuild); err != nil {
				fmt.Fprintf(c.stderr, "监听失败：%v\n", err)
				return exitCode(1)
			}
			return nil
		},
	}
	cmd.Flags().Bool("apply", false, "实际写入（默认 dry-run）")
	cmd.Flags().String("base-url", "", "站点公开地址（用于 sitemap）")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "最后一次变化后到重建的等待时间")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "本地预览生成的站点",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := c.loadConfig(cmd, args)
			if err != nil {
				fmt.Fprintf(c.stderr, "%s: %v\n", config.Code(err), err)
				return exitCode(1)
			}
			h := serve.NewHandler(serve.Options{Root: eff.Path, OutDir: eff.OutDir, Log: c.log})
			c.log.Info("预览服务启动", zap.String("addr", "http://"+addr), zap.String("root", eff.Path))
			if err := serve.ListenAndServe(cmd.Context(), addr, h, c.log); err != nil {
				fmt.Fprintf(c.stderr, "服务失败：%v\n", err)
				return exitCode(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "监听地址")
	return cmd
}
