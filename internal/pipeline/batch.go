package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nerdneilsfield/mathguard/internal/textio"
	"go.uber.org/zap"
)

// Job 一个输入文件及其输出路径
type Job struct {
	Input  string
	Output string
}

// FileOptions 批量处理选项
type FileOptions struct {
	// 最大并发数，小于 1 时按 1 处理
	Concurrency int
	// 输入编码，见 textio.Decode
	Encoding string
	// 每完成一个文件调用一次，可能被并发调用
	OnDone func(job Job, result *Result, err error)
}

// ProcessFiles 并发处理多个文件，所有失败合并为一个错误返回
//
// 单个文件失败不会中断其他文件。
func (p *Pipeline) ProcessFiles(ctx context.Context, jobs []Job, opts FileOptions) ([]*Result, error) {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = fmt.Errorf("%s: %w", job.Input, ctx.Err())
				return
			}

			results[i], errs[i] = p.processFile(ctx, job, opts.Encoding)
			if opts.OnDone != nil {
				opts.OnDone(job, results[i], errs[i])
			}
		}(i, job)
	}
	wg.Wait()

	p.log.Debug("batch finished", zap.Int("files", len(jobs)), zap.Int("concurrency", concurrency))
	return results, errors.Join(errs...)
}

func (p *Pipeline) processFile(ctx context.Context, job Job, encoding string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", job.Input, err)
	}
	input, err := textio.ReadFile(job.Input, encoding)
	if err != nil {
		return nil, err
	}

	result, err := p.Process(ctx, job.Input, input)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(job.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(job.Output, []byte(result.Output), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", job.Output, err)
	}
	return result, nil
}

// OutputPath 计算输入文件在 outDir 中的输出路径，ext 替换原扩展名（为空时保留）
func OutputPath(input, outDir, ext string) string {
	base := filepath.Base(input)
	if ext != "" {
		base = base[:len(base)-len(filepath.Ext(base))] + ext
	}
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	return filepath.Join(outDir, base)
}
