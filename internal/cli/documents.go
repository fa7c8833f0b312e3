package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nerdneilsfield/mathguard/internal/pipeline"
	"github.com/nerdneilsfield/mathguard/internal/report"
	"github.com/nerdneilsfield/mathguard/internal/textio"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const stdinName = "<stdin>"

// outputOptions 决定结果写到哪里
type outputOptions struct {
	output  string
	outDir  string
	ext     string
	inPlace bool
}

// runDocuments 处理标准输入、单个文件或一批文件
func (a *app) runDocuments(cmd *cobra.Command, p *pipeline.Pipeline, args []string, out outputOptions) error {
	ctx := cmd.Context()

	if len(args) == 0 {
		if out.inPlace {
			return fmt.Errorf("cannot write in place when reading from stdin")
		}
		input, err := textio.ReadAll(cmd.InOrStdin(), a.cfg.Encoding)
		if err != nil {
			return err
		}
		res, err := p.Process(ctx, stdinName, input)
		if err != nil {
			return err
		}
		return writeOutput(cmd, out.output, res.Output)
	}

	if len(args) == 1 && !out.inPlace && out.outDir == "" {
		input, err := textio.ReadFile(args[0], a.cfg.Encoding)
		if err != nil {
			return err
		}
		res, err := p.Process(ctx, args[0], input)
		if err != nil {
			return err
		}
		a.log.Info("document processed", zap.String("file", args[0]), zap.Int("blocks", len(res.Blocks)))
		return writeOutput(cmd, out.output, res.Output)
	}

	if out.output != "" {
		return fmt.Errorf("--output accepts a single input, use --out-dir for %d files", len(args))
	}
	if !out.inPlace && out.outDir == "" {
		return fmt.Errorf("%d input files require --out-dir", len(args))
	}

	jobs := make([]pipeline.Job, 0, len(args))
	for _, input := range args {
		job := pipeline.Job{Input: input, Output: input}
		if !out.inPlace {
			job.Output = pipeline.OutputPath(input, out.outDir, out.ext)
		}
		jobs = append(jobs, job)
	}

	stderr := cmd.ErrOrStderr()
	_, err := p.ProcessFiles(ctx, jobs, pipeline.FileOptions{
		Concurrency: a.cfg.Concurrency,
		Encoding:    a.cfg.Encoding,
		OnDone: func(job pipeline.Job, res *pipeline.Result, err error) {
			if err != nil {
				pterm.Fprintln(stderr, pterm.Error.Sprintf("%s: %v", job.Input, err))
				return
			}
			pterm.Fprintln(stderr, pterm.Success.Sprint(report.Summary(job.Output, len(res.Blocks), res.Duration)))
		},
	})
	return err
}

// readInput 读取单个输入，没有参数时读标准输入
func (a *app) readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 {
		text, err := textio.ReadAll(cmd.InOrStdin(), a.cfg.Encoding)
		return stdinName, text, err
	}
	text, err := textio.ReadFile(args[0], a.cfg.Encoding)
	return args[0], text, err
}

func writeOutput(cmd *cobra.Command, path, text string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
