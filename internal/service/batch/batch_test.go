package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/config"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []string
}

func (g *fakeGenerator) Generate(_ context.Context, up *entity.Upload) (*entity.Documentation, error) {
	g.mu.Lock()
	g.calls = append(g.calls, up.FileName)
	g.mu.Unlock()

	if strings.HasPrefix(up.FileName, "bad") {
		return nil, common.ErrInvalidWorkflow
	}

	return &entity.Documentation{
		Title:    strings.TrimSuffix(up.FileName, ".json"),
		FileName: up.FileName,
		Workflow: string(up.Data),
	}, nil
}

type fakeBuilder struct{}

func (fakeBuilder) Zip(doc *entity.Documentation, _ time.Time) ([]byte, error) {
	return []byte("zip:" + doc.Title), nil
}

func newService(fs afero.Fs, gen Generator, cfg *config.BatchConfig) *batchService {
	return NewBatchService(fs, gen, fakeBuilder{}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.BatchConfig {
	return &config.BatchConfig{
		WorkDir:  "/work",
		OutDir:   "/out",
		Workers:  3,
		MaxFiles: 100,
	}
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()

	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
}

func TestRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/nested.json", 0o755))
	writeFiles(t, fs, map[string]string{
		"/work/leads.json":  `{"name":"Leads"}`,
		"/work/Orders.JSON": `{"name":"Orders"}`,
		"/work/bad.json":    `[]`,
		"/work/notes.txt":   "not a workflow",
	})

	gen := &fakeGenerator{}
	results, err := newService(fs, gen, testConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, "/work/Orders.JSON", results[0].Source)
	require.Equal(t, "/out/Orders.docs.zip", results[0].Output)
	require.Equal(t, "Orders.JSON", results[0].Title)
	require.Empty(t, results[0].Error)

	require.Equal(t, "/work/bad.json", results[1].Source)
	require.Contains(t, results[1].Error, common.ErrInvalidWorkflow.Error())

	require.Equal(t, "/work/leads.json", results[2].Source)
	require.Equal(t, "leads", results[2].Title)

	data, err := afero.ReadFile(fs, "/out/leads.docs.zip")
	require.NoError(t, err)
	require.Equal(t, "zip:leads", string(data))

	exists, err := afero.Exists(fs, "/out/bad.docs.zip")
	require.NoError(t, err)
	require.False(t, exists)

	require.ElementsMatch(t, []string{"leads.json", "Orders.JSON", "bad.json"}, gen.calls)
}

func TestRunSkipsUpToDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/work/leads.json":     `{"name":"Leads"}`,
		"/work/orders.json":    `{"name":"Orders"}`,
		"/out/leads.docs.zip":  "old",
		"/out/orders.docs.zip": "old",
	})

	past := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Chtimes("/work/leads.json", past, past))
	require.NoError(t, fs.Chtimes("/out/leads.docs.zip", past.Add(time.Hour), past.Add(time.Hour)))
	require.NoError(t, fs.Chtimes("/work/orders.json", past.Add(time.Hour), past.Add(time.Hour)))
	require.NoError(t, fs.Chtimes("/out/orders.docs.zip", past, past))

	gen := &fakeGenerator{}
	results, err := newService(fs, gen, testConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, results[0].Skipped)
	require.False(t, results[1].Skipped)
	require.Equal(t, []string{"orders.json"}, gen.calls)

	data, err := afero.ReadFile(fs, "/out/orders.docs.zip")
	require.NoError(t, err)
	require.Equal(t, "zip:orders", string(data))
}

func TestRunMaxFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/work/a.json": `{}`,
		"/work/b.json": `{}`,
		"/work/c.json": `{}`,
	})

	cfg := testConfig()
	cfg.MaxFiles = 2

	results, err := newService(fs, &fakeGenerator{}, cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "/work/a.json", results[0].Source)
	require.Equal(t, "/work/b.json", results[1].Source)
}

func TestRunEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))

	results, err := newService(fs, &fakeGenerator{}, testConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, results)

	_, err = newService(afero.NewMemMapFs(), &fakeGenerator{}, testConfig()).Run(context.Background())
	require.Error(t, err)
}

func TestRunAlreadyRunning(t *testing.T) {
	srv := newService(afero.NewMemMapFs(), &fakeGenerator{}, testConfig())
	srv.running.Store(true)

	_, err := srv.Run(context.Background())
	require.ErrorIs(t, err, common.ErrBatchAlreadyRunning)
	require.True(t, srv.IsRunning())
}

func TestRunCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/work/a.json": `{}`,
		"/work/b.json": `{}`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{}
	srv := newService(fs, gen, testConfig())

	results, err := srv.Run(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	require.Empty(t, results)
	require.Empty(t, gen.calls)
	require.False(t, srv.IsRunning())
}

func TestRunDistinctOutputs(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFiles(t, fs, map[string]string{
				"/work/a b.json":  `{"name":"A B"}`,
				"/work/a-b.json":  `{"name":"A-B"}`,
				"/work/a_b?.json": `{"name":"A_B"}`,
			})

			cfg := testConfig()
			cfg.Workers = workers

			gen := &fakeGenerator{}
			results, err := newService(fs, gen, cfg).Run(context.Background())
			require.NoError(t, err)
			require.Len(t, results, 3)

			outputs := make(map[string]string, len(results))
			for _, res := range results {
				require.False(t, res.Skipped, res.Source)
				require.Empty(t, res.Error, res.Source)
				outputs[res.Source] = res.Output
			}

			require.Equal(t, map[string]string{
				"/work/a b.json":  "/out/a-b.docs.zip",
				"/work/a-b.json":  "/out/a-b-2.docs.zip",
				"/work/a_b?.json": "/out/a_b.docs.zip",
			}, outputs)
			require.Len(t, gen.calls, 3)

			data, err := afero.ReadFile(fs, "/out/a-b.docs.zip")
			require.NoError(t, err)
			require.Equal(t, "zip:a b", string(data))

			data, err = afero.ReadFile(fs, "/out/a-b-2.docs.zip")
			require.NoError(t, err)
			require.Equal(t, "zip:a-b", string(data))

			results, err = newService(fs, gen, cfg).Run(context.Background())
			require.NoError(t, err)
			for _, res := range results {
				require.True(t, res.Skipped, res.Source)
			}
		})
	}
}

func TestNumbered(t *testing.T) {
	require.Equal(t, "orders-2.docs.zip", numbered("orders.docs.zip", 2))
	require.Equal(t, "docs-3.zip", numbered("docs.zip", 3))
}
