package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/config"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/jgivc/autodocs/internal/service/artifact"
	"github.com/spf13/afero"
)

const (
	workflowExt      = ".json"
	workflowMIMEType = "application/json"
	archiveExt       = ".zip"
	docsArchiveExt   = ".docs.zip"
)

// job is one export together with the archive it is written to.
type job struct {
	file   os.FileInfo
	output string
}

type Generator interface {
	Generate(ctx context.Context, up *entity.Upload) (*entity.Documentation, error)
}

type Builder interface {
	Zip(doc *entity.Documentation, t time.Time) ([]byte, error)
}

type batchService struct {
	running atomic.Bool
	fs      afero.Fs
	gen     Generator
	b       Builder
	cfg     *config.BatchConfig
	now     func() time.Time
	log     *slog.Logger
}

func NewBatchService(fs afero.Fs, gen Generator, b Builder, cfg *config.BatchConfig, log *slog.Logger) *batchService {
	return &batchService{
		fs:  fs,
		gen: gen,
		b:   b,
		cfg: cfg,
		now: time.Now,
		log: log.With(slog.String("service", "BatchService")),
	}
}

// Run documents every workflow export found in the work dir and writes the
// archives to the out dir. Exports whose archive is newer than the export
// are skipped. Only one run is allowed at a time.
func (s *batchService) Run(ctx context.Context) ([]*entity.BatchResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, common.ErrBatchAlreadyRunning
	}
	defer s.running.Store(false)

	files, err := s.scan()
	if err != nil {
		s.log.Error("Cannot scan work dir", slog.String("work_dir", s.cfg.WorkDir), slog.Any("error", err))

		return nil, fmt.Errorf("cannot scan work dir: %w", err)
	}

	if len(files) == 0 {
		s.log.Info("No workflows found", slog.String("work_dir", s.cfg.WorkDir))

		return []*entity.BatchResult{}, nil
	}

	if err := s.fs.MkdirAll(s.cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create out dir: %w", err)
	}

	in := make(chan job, len(files))
	out := make(chan *entity.BatchResult, len(files))

	for _, j := range s.plan(files) {
		in <- j
	}
	close(in)

	workers := max(1, min(s.cfg.Workers, len(files)))

	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go s.worker(ctx, n, in, out, &wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]*entity.BatchResult, 0, len(files))
	for res := range out {
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Source < results[j].Source
	})

	s.log.Info("Batch done", slog.Int("files", len(files)), slog.Int("processed", len(results)))

	if err := ctx.Err(); err != nil {
		return results, err
	}

	return results, nil
}

func (s *batchService) IsRunning() bool {
	return s.running.Load()
}

func (s *batchService) scan() ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(s.fs, s.cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	var files []os.FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), workflowExt) {
			continue
		}

		files = append(files, entry)

		if len(files) >= s.cfg.MaxFiles {
			break
		}
	}

	return files, nil
}

// plan assigns every export its own archive. Exports whose names reduce to
// the same archive name get a numeric suffix in scan order.
func (s *batchService) plan(files []os.FileInfo) []job {
	jobs := make([]job, 0, len(files))
	used := make(map[string]struct{}, len(files))

	for _, file := range files {
		base := artifact.ZipName(&entity.Documentation{FileName: file.Name()})
		name := base
		for n := 2; ; n++ {
			if _, ok := used[strings.ToLower(name)]; !ok {
				break
			}

			name = numbered(base, n)
		}
		used[strings.ToLower(name)] = struct{}{}

		jobs = append(jobs, job{file: file, output: filepath.Join(s.cfg.OutDir, name)})
	}

	return jobs
}

func numbered(name string, n int) string {
	ext := archiveExt
	if strings.HasSuffix(name, docsArchiveExt) {
		ext = docsArchiveExt
	}

	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}

func (s *batchService) worker(ctx context.Context, n int, in chan job, out chan *entity.BatchResult, wg *sync.WaitGroup) {
	defer wg.Done()

	log := s.log.With(slog.Int("worker_id", n))
	log.Debug("Started")

	for j := range in {
		if ctx.Err() != nil {
			log.Info("Interrupted")

			return
		}

		res := s.process(ctx, j)
		if res.Error != "" {
			log.Error("Cannot document workflow", slog.String("source", res.Source), slog.String("error", res.Error))
		} else if !res.Skipped {
			log.Info("Workflow documented", slog.String("source", res.Source), slog.String("output", res.Output))
		}

		select {
		case <-ctx.Done():
			log.Info("Interrupted")

			return
		case out <- res:
		}
	}

	log.Debug("Done")
}

func (s *batchService) process(ctx context.Context, j job) *entity.BatchResult {
	file, output := j.file, j.output
	source := filepath.Join(s.cfg.WorkDir, file.Name())
	res := &entity.BatchResult{Source: source, Output: output}

	if info, err := s.fs.Stat(output); err == nil && !info.ModTime().Before(file.ModTime()) {
		res.Skipped = true

		return res
	}

	data, err := afero.ReadFile(s.fs, source)
	if err != nil {
		res.Error = fmt.Sprintf("cannot read workflow: %s", err)

		return res
	}

	doc, err := s.gen.Generate(ctx, &entity.Upload{
		FileName:    file.Name(),
		ContentType: workflowMIMEType,
		Size:        int64(len(data)),
		Data:        data,
	})
	if err != nil {
		res.Error = err.Error()

		return res
	}
	res.Title = doc.Title

	archive, err := s.b.Zip(doc, s.now())
	if err != nil {
		res.Error = fmt.Sprintf("cannot build archive: %s", err)

		return res
	}

	if err := afero.WriteFile(s.fs, output, archive, 0o644); err != nil {
		res.Error = fmt.Sprintf("cannot write archive: %s", err)

		return res
	}

	return res
}
