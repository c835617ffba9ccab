package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/autodocs/internal/archive"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/opencontainers/go-digest"
)

const (
	htmlMIMEType = "text/html; charset=utf-8"
	jsonMIMEType = "application/json"

	artifactPath = "/artifact/"
)

type DocumentRepository interface {
	Get(ctx context.Context, id string) (*entity.Documentation, error)
}

type ArtifactRepository interface {
	Replace(ctx context.Context, a *entity.Artifact) (string, error)
	Get(ctx context.Context, id string) (*entity.Artifact, error)
	Release(ctx context.Context, id string) error
}

type Builder interface {
	Zip(doc *entity.Documentation, t time.Time) ([]byte, error)
	Page(doc *entity.Documentation, autoPrint bool) (string, error)
}

type payload struct {
	name     string
	mimeType string
	data     []byte
}

type artifactService struct {
	docs  DocumentRepository
	repo  ArtifactRepository
	b     Builder
	url   string
	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

func NewArtifactService(docs DocumentRepository, repo ArtifactRepository, b Builder, url string, log *slog.Logger) *artifactService {
	return &artifactService{
		docs:  docs,
		repo:  repo,
		b:     b,
		url:   url,
		now:   time.Now,
		newID: uuid.NewString,
		log:   log.With(slog.String("service", "ArtifactService")),
	}
}

// Zip builds the documentation archive for the document.
func (s *artifactService) Zip(ctx context.Context, docID string) (*entity.ArtifactInfo, error) {
	return s.create(ctx, docID, entity.ArtifactZip, func(doc *entity.Documentation, now time.Time) (*payload, error) {
		data, err := s.b.Zip(doc, now)
		if err != nil {
			return nil, err
		}

		return &payload{name: ZipName(doc), mimeType: archive.MIMEType, data: data}, nil
	})
}

// Print builds a page that opens the print dialog once loaded.
func (s *artifactService) Print(ctx context.Context, docID string) (*entity.ArtifactInfo, error) {
	return s.create(ctx, docID, entity.ArtifactPrint, func(doc *entity.Documentation, _ time.Time) (*payload, error) {
		page, err := s.b.Page(doc, true)
		if err != nil {
			return nil, err
		}

		return &payload{name: PrintName(doc), mimeType: htmlMIMEType, data: []byte(page)}, nil
	})
}

// Share builds a standalone page for sharing.
func (s *artifactService) Share(ctx context.Context, docID string) (*entity.ArtifactInfo, error) {
	return s.create(ctx, docID, entity.ArtifactShare, func(doc *entity.Documentation, _ time.Time) (*payload, error) {
		page, err := s.b.Page(doc, false)
		if err != nil {
			return nil, err
		}

		return &payload{name: shareName(doc), mimeType: htmlMIMEType, data: []byte(page)}, nil
	})
}

// Workflow offers the uploaded workflow export for download as is.
func (s *artifactService) Workflow(ctx context.Context, docID string) (*entity.ArtifactInfo, error) {
	return s.create(ctx, docID, entity.ArtifactWorkflow, func(doc *entity.Documentation, _ time.Time) (*payload, error) {
		return &payload{name: workflowName(doc), mimeType: jsonMIMEType, data: []byte(doc.Workflow)}, nil
	})
}

func (s *artifactService) Get(ctx context.Context, id string) (*entity.Artifact, error) {
	return s.repo.Get(ctx, id)
}

func (s *artifactService) Release(ctx context.Context, id string) error {
	if err := s.repo.Release(ctx, id); err != nil {
		s.log.Error("Cannot release artifact", slog.String("id", id), slog.Any("error", err))

		return fmt.Errorf("cannot release artifact: %w", err)
	}

	s.log.Debug("Artifact released", slog.String("id", id))

	return nil
}

func (s *artifactService) create(ctx context.Context, docID string, kind entity.ArtifactKind, build func(*entity.Documentation, time.Time) (*payload, error)) (*entity.ArtifactInfo, error) {
	log := s.log.With(slog.String("doc_id", docID), slog.String("kind", string(kind)))

	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p, err := build(doc, now)
	if err != nil {
		log.Error("Cannot build artifact", slog.Any("error", err))

		return nil, fmt.Errorf("cannot build %s artifact: %w", kind, err)
	}

	a := &entity.Artifact{
		ID:         s.newID(),
		Kind:       kind,
		DocumentID: doc.ID,
		Name:       p.name,
		MIMEType:   p.mimeType,
		Digest:     digest.FromBytes(p.data),
		Data:       p.data,
		CreatedAt:  now,
	}

	prev, err := s.repo.Replace(ctx, a)
	if err != nil {
		log.Error("Cannot save artifact", slog.Any("error", err))

		return nil, fmt.Errorf("cannot save artifact: %w", err)
	}

	log.Info("Artifact created", slog.String("id", a.ID), slog.String("name", a.Name),
		slog.Int("size", len(a.Data)), slog.String("released", prev))

	return &entity.ArtifactInfo{
		ID:     a.ID,
		Kind:   a.Kind,
		Name:   a.Name,
		URL:    s.url + artifactPath + a.ID + "/",
		Digest: a.Digest.String(),
		Size:   len(a.Data),
	}, nil
}
