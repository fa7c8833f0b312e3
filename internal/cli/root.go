package cli

import (
	"fmt"

	"github.com/nerdneilsfield/mathguard/internal/config"
	"github.com/nerdneilsfield/mathguard/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 各子命令共享的全局标志与运行时依赖
type app struct {
	cfgFile     string
	debug       bool
	inlineMark  string
	displayMark string
	encoding    string
	normalize   bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "mathguard",
		Short: "在 Markdown 转换、格式化和翻译时保护数学公式",
		Long: `mathguard 在把文档交给下游转换之前，把 $...$、$$...$$ 与 \begin{..}...\end{..}
形式的公式替换为 @@n@@ 占位符，转换完成后再把公式原样放回。

子命令:
  render     Markdown 转 HTML
  fmt        Markdown 格式化
  translate  使用大模型翻译
  protect    输出保护后的文本
  inspect    列出提取出的公式`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "配置文件路径（默认 $HOME/.mathguard.yaml 或 ./.mathguard.yaml）")
	flags.BoolVar(&a.debug, "debug", false, "启用调试日志")
	flags.StringVar(&a.inlineMark, "inline-mark", "", "行内公式定界符（默认 $）")
	flags.StringVar(&a.displayMark, "display-mark", "", "行间公式定界符（默认 $$）")
	flags.StringVar(&a.encoding, "encoding", "", "输入文件编码，auto 表示自动检测")
	flags.BoolVar(&a.normalize, "normalize-newlines", false, "提取前把 CRLF/CR 统一为 LF")

	rootCmd.AddCommand(
		newRenderCommand(a),
		newFmtCommand(a),
		newTranslateCommand(a),
		newProtectCommand(a),
		newInspectCommand(a),
	)
	return rootCmd
}

// setup 加载配置，命令行标志覆盖配置文件
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}

	if changed(cmd, "inline-mark") {
		cfg.Math.InlineMark = a.inlineMark
	}
	if changed(cmd, "display-mark") {
		cfg.Math.DisplayMark = a.displayMark
	}
	if changed(cmd, "encoding") {
		cfg.Encoding = a.encoding
	}
	if changed(cmd, "normalize-newlines") {
		cfg.Math.NormalizeLineEndings = a.normalize
	}
	cfg.Debug = cfg.Debug || a.debug

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.Debug, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	log.Debug("configuration loaded",
		zap.String("inline_mark", cfg.Math.InlineMark),
		zap.String("display_mark", cfg.Math.DisplayMark),
		zap.String("engine", cfg.Engine),
		zap.Int("concurrency", cfg.Concurrency))
	return nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}
