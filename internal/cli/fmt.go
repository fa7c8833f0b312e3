package cli

import (
	"github.com/nerdneilsfield/mathguard/internal/pipeline"
	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"github.com/nerdneilsfield/mathguard/pkg/transform"
	"github.com/spf13/cobra"
)

func newFmtCommand(a *app) *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "fmt [flags] [file...]",
		Short: "格式化 Markdown，公式保持原样",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(a.cfg.Math, transform.NewMarkdownFormatter(),
				pipeline.WithBlockProcessor(mathguard.UnescapeHTML),
				pipeline.WithLogger(a.log))
			if err != nil {
				return err
			}
			return a.runDocuments(cmd, p, args, out)
		},
	}

	cmd.Flags().BoolVarP(&out.inPlace, "write", "w", false, "把结果写回源文件")
	cmd.Flags().StringVarP(&out.output, "output", "o", "", "输出文件（默认标准输出）")
	cmd.Flags().StringVar(&out.outDir, "out-dir", "", "批量输出目录")
	return cmd
}
