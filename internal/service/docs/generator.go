package docs

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jgivc/autodocs/internal/adapter/diagram"
	"github.com/jgivc/autodocs/internal/adapter/llmadapter"
	"github.com/jgivc/autodocs/internal/adapter/sanitizer"
	"github.com/jgivc/autodocs/internal/adapter/wfadapter"
	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/jgivc/autodocs/internal/util"
)

const (
	jsonExt      = ".json"
	jsonMIMEType = "application/json"
)

type ClientProvider interface {
	Client(ctx context.Context) (llmadapter.Client, error)
}

type generator struct {
	clients       ClientProvider
	maxUploadSize int64
	now           func() time.Time
	log           *slog.Logger
}

// NewGenerator returns a generator that turns uploaded workflow exports into
// documentation. It stores nothing.
func NewGenerator(clients ClientProvider, maxUploadSize int64, log *slog.Logger) *generator {
	return &generator{
		clients:       clients,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
		log:           log.With(slog.String("service", "Generator")),
	}
}

func (g *generator) Generate(ctx context.Context, up *entity.Upload) (*entity.Documentation, error) {
	log := g.log.With(slog.String("file_name", up.FileName))

	if err := g.checkUpload(up); err != nil {
		log.Warn("Upload rejected", slog.Any("error", err))

		return nil, err
	}

	client, err := g.clients.Client(ctx)
	if err != nil {
		return nil, err
	}

	wf, meta, err := wfadapter.Parse(up.Data)
	if err != nil {
		log.Warn("Cannot parse workflow", slog.Any("error", err))

		return nil, err
	}

	if err := client.Validate(ctx); err != nil {
		log.Warn("API key validation failed", slog.Any("error", err))

		return nil, fmt.Errorf("cannot validate api key: %w", err)
	}

	content, err := summarize(ctx, client, wf)
	if err != nil {
		log.Error("Cannot summarize workflow", slog.Any("error", err))

		return nil, err
	}

	now := g.now()
	source := string(up.Data) + strconv.FormatInt(now.UnixNano(), 10)

	doc := &entity.Documentation{
		ID:        util.GetIDFromString(&source),
		Title:     meta.Title,
		FileName:  up.FileName,
		Content:   content,
		Workflow:  string(up.Data),
		Meta:      *meta,
		Provider:  client.Provider(),
		Model:     client.Model(),
		CreatedAt: now,
	}

	log.Info("Documentation generated", slog.String("id", doc.ID), slog.String("title", doc.Title),
		slog.Int("nodes", len(wf.Nodes)), slog.String("model", doc.Model))

	return doc, nil
}

// summarize asks the model for documentation and cleans the answer up.
func summarize(ctx context.Context, client llmadapter.Client, wf *entity.Workflow) (string, error) {
	data, err := wfadapter.Encode(wf)
	if err != nil {
		return "", fmt.Errorf("cannot encode workflow: %w", err)
	}

	answer, err := client.CompleteWithSystem(ctx, llmadapter.SystemPrompt(), llmadapter.UserPrompt(wf.Name, len(wf.Nodes), string(data)))
	if err != nil {
		return "", fmt.Errorf("cannot complete: %w", err)
	}

	content := sanitizer.PostProcess(strings.TrimSpace(answer))
	if attached, ok := diagram.Attach(content, wf); ok {
		content = attached
	}

	content = sanitizer.Sanitize(content)
	if strings.TrimSpace(content) == "" {
		return "", common.ErrEmptyResponse
	}

	return content, nil
}

func (g *generator) checkUpload(up *entity.Upload) error {
	mediaType, _, _ := mime.ParseMediaType(up.ContentType)
	if strings.ToLower(path.Ext(up.FileName)) != jsonExt && mediaType != jsonMIMEType {
		return fmt.Errorf("%w: provide a .json file exported from n8n", common.ErrInvalidUpload)
	}

	size := max(up.Size, int64(len(up.Data)))
	if size > g.maxUploadSize {
		return fmt.Errorf("%w: file is too large (%d bytes), maximum size is %d bytes", common.ErrInvalidUpload, size, g.maxUploadSize)
	}

	if size == 0 {
		return fmt.Errorf("%w: file is empty", common.ErrInvalidUpload)
	}

	if strings.TrimSpace(string(up.Data)) == "" {
		return fmt.Errorf("%w: file appears to be empty or invalid", common.ErrInvalidUpload)
	}

	return nil
}
