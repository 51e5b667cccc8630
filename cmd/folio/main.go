package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/folio/internal/app/build"
	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/logx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitCode 让子命令以指定退出码结束（不打印额外错误）。
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// run 执行 CLI 并返回退出码：0 成功；1 有失败条目；2 参数错误。
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, getwd: os.Getwd}
	return c.run(ctx, args)
}

func (c *cli) run(ctx context.Context, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(ctx)
	var ec exitCode
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ec):
		return int(ec)
	default:
		fmt.Fprintf(c.stderr, "参数错误：%v\n\n", err)
		fmt.Fprintf(c.stderr, "使用 \"folio --help\" 查看用法。\n")
		return 2
	}
}

// cli 持有全局 flag 与输出端；每次 run 新建，便于测试。
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getwd  func() (string, error)

	verbose bool
	log     *zap.Logger
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "folio",
		Short: "folio：作品集静态站点构建器",
		Long: `folio 扫描 images/gallery 下的作品，预计算 justified 行布局并生成静态项目页。

所有写操作默认 dry-run：不加 --apply 时只计算与报告，不落盘。
stdout 非终端时只输出一个 JSON 报告；日志与进度写到 stderr。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.log = logx.New(c.verbose, c.stderr)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(
		c.buildCmd(),
		c.thumbsCmd(),
		c.carouselsCmd(),
		c.describeCmd(),
		c.layoutCmd(),
		c.checkCmd(),
		c.watchCmd(),
		c.serveCmd(),
	)
	return root
}

// loadConfig 把位置参数与显式指定的 flag 合并进配置。
func (c *cli) loadConfig(cmd *cobra.Command, args []string) (config.EffectiveConfig, error) {
	cwd, err := c.getwd()
	if err != nil {
		return config.EffectiveConfig{}, err
	}
	ca := config.CLIArgs{}
	if len(args) > 0 {
		ca.Path = args[0]
	}
	if f := cmd.Flags().Lookup("apply"); f != nil && f.Changed {
		ca.Apply, _ = cmd.Flags().GetBool("apply")
		ca.ApplySet = true
	}
	if f := cmd.Flags().Lookup("base-url"); f != nil && f.Changed {
		ca.BaseURL, _ = cmd.Flags().GetString("base-url")
		ca.BaseURLSet = true
	}
	return config.LoadEffective(cwd, ca)
}

// configFailed 把配置错误输出为只含一个合成条目的报告，退出码 1。
func (c *cli) configFailed(command string, cmd *cobra.Command, err error) error {
	cwd, _ := c.getwd()
	cwdAbs, _ := filepath.Abs(cwd)
	now := time.Now().UTC()

	apply, _ := cmd.Flags().GetBool("apply")
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	rep := domain.Report{
		Command:    command,
		Path:       cwdAbs,
		DryRun:     !apply,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: code,
			ErrorMsg:  err.Error(),
		}},
	}
	rep.Finalize()
	c.emitReport(rep)
	return exitCode(1)
}

// observer 只在交互终端启用进度输出。
func (c *cli) observer() (build.Observer, *progressUI) {
	w, interactive := pickProgressWriter(c.stdout, c.stderr)
	if !interactive {
		return nil, nil
	}
	ui := newProgressUI(w)
	return ui, ui
}

func (c *cli) env() (build.Env, *progressUI) {
	obs, ui := c.observer()
	return build.Env{Log: c.log, Observer: obs}, ui
}

func (c *cli) emitReport(rep domain.Report) {
	summary := fmt.Sprintf("完成：written=%d unchanged=%d planned=%d skipped=%d failed=%d fallbacks=%d",
		rep.Summary.Written, rep.Summary.Unchanged, rep.Summary.Planned,
		rep.Summary.Skipped, rep.Summary.Failed, rep.Summary.Fallbacks)

	if isTTY(c.stdout) {
		fmt.Fprintln(c.stdout, summary)
		for _, it := range rep.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			key := it.Target
			if key == "" {
				key = "<" + rep.Command + ">"
			}
			fmt.Fprintf(c.stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(c.stdout)
	_ = enc.Encode(rep)
	fmt.Fprintln(c.stderr, summary)
}

func resultCode(rep domain.Report) error {
	if rep.Summary.Failed > 0 {
		return exitCode(1)
	}
	return nil
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter(stdout, stderr io.Writer) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(stderr) {
		return stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(stdout) {
		return stdout, true
	}
	return nil, false
}
