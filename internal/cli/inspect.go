package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nerdneilsfield/mathguard/internal/report"
	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProtectCommand(a *app) *cobra.Command {
	var colorMode string
	cmd := &cobra.Command{
		Use:   "protect [flags] [file]",
		Short: "输出公式被替换为占位符之后的文本",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			protector, name, text, err := a.extract(cmd, args)
			if err != nil {
				return err
			}
			protected := protector.Extract(text)
			a.log.Debug("protected", zap.String("document", name), zap.Int("blocks", len(protector.Blocks())))

			w := cmd.OutOrStdout()
			_, err = io.WriteString(w, report.Highlight(protected, useColor(colorMode, w)))
			return err
		},
	}
	cmd.Flags().StringVar(&colorMode, "color", "auto", "占位符高亮：auto、always 或 never")
	return cmd
}

func newInspectCommand(a *app) *cobra.Command {
	var (
		format string
		find   string
		width  int
	)
	cmd := &cobra.Command{
		Use:   "inspect [flags] [file]",
		Short: "列出文档中被提取的公式",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			protector, _, text, err := a.extract(cmd, args)
			if err != nil {
				return err
			}
			protector.Extract(text)
			blocks := report.Filter(protector.Blocks(), find)
			return report.Write(cmd.OutOrStdout(), f, blocks, width)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "输出格式：table、yaml 或 json")
	cmd.Flags().StringVar(&find, "find", "", "只显示模糊匹配的公式")
	cmd.Flags().IntVar(&width, "width", 60, "表格中公式预览的最大显示宽度，0 表示不截断")
	return cmd
}

// extract 读取输入并创建对应的保护器
func (a *app) extract(cmd *cobra.Command, args []string) (*mathguard.Protector, string, string, error) {
	name, text, err := a.readInput(cmd, args)
	if err != nil {
		return nil, "", "", err
	}
	protector, err := mathguard.NewProtector(a.cfg.Math, mathguard.WithLogger(a.log))
	if err != nil {
		return nil, "", "", err
	}
	return protector, name, text, nil
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
