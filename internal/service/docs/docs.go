package docs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/autodocs/internal/entity"
)

type Generator interface {
	Generate(ctx context.Context, up *entity.Upload) (*entity.Documentation, error)
}

type DocumentRepository interface {
	Save(ctx context.Context, doc *entity.Documentation) error
	Get(ctx context.Context, id string) (*entity.Documentation, error)
	Delete(ctx context.Context, id string) error
}

type ArtifactRepository interface {
	ReleaseDocument(ctx context.Context, docID string) ([]string, error)
}

type Previewer interface {
	Preview(doc string) (string, error)
}

type docsService struct {
	gen       Generator
	docs      DocumentRepository
	artifacts ArtifactRepository
	md        Previewer
	log       *slog.Logger
}

func NewDocsService(gen Generator, docs DocumentRepository, artifacts ArtifactRepository, md Previewer, log *slog.Logger) *docsService {
	return &docsService{
		gen:       gen,
		docs:      docs,
		artifacts: artifacts,
		md:        md,
		log:       log.With(slog.String("service", "DocsService")),
	}
}

// Generate produces documentation for the upload and stores it.
func (s *docsService) Generate(ctx context.Context, up *entity.Upload) (*entity.Documentation, error) {
	doc, err := s.gen.Generate(ctx, up)
	if err != nil {
		return nil, err
	}

	if err := s.docs.Save(ctx, doc); err != nil {
		s.log.Error("Cannot save document", slog.String("id", doc.ID), slog.Any("error", err))

		return nil, fmt.Errorf("cannot save document: %w", err)
	}

	return doc, nil
}

func (s *docsService) Get(ctx context.Context, id string) (*entity.Documentation, error) {
	return s.docs.Get(ctx, id)
}

// Preview renders the stored document as an HTML fragment.
func (s *docsService) Preview(ctx context.Context, id string) (string, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return "", err
	}

	html, err := s.md.Preview(doc.Content)
	if err != nil {
		s.log.Error("Cannot render preview", slog.String("id", id), slog.Any("error", err))

		return "", fmt.Errorf("cannot render preview: %w", err)
	}

	return html, nil
}

// Reset forgets the document and releases every artifact built from it.
func (s *docsService) Reset(ctx context.Context, id string) error {
	released, err := s.artifacts.ReleaseDocument(ctx, id)
	if err != nil {
		s.log.Error("Cannot release artifacts", slog.String("id", id), slog.Any("error", err))

		return fmt.Errorf("cannot release artifacts: %w", err)
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		s.log.Error("Cannot delete document", slog.String("id", id), slog.Any("error", err))

		return fmt.Errorf("cannot delete document: %w", err)
	}

	s.log.Info("Document reset", slog.String("id", id), slog.Int("released_artifacts", len(released)))

	return nil
}
