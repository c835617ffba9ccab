package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	KeyDocument  = "doc" // STRING. doc:{id} -> documentation JSON
	KeySeparator = ":"
)

type documentRepository struct {
	cl  *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewDocumentRepository(cl *redis.Client, ttl time.Duration, log *slog.Logger) *documentRepository {
	return &documentRepository{
		cl:  cl,
		ttl: ttl,
		log: log.With(slog.String("item", "DocumentRepository")),
	}
}

func (r *documentRepository) Save(ctx context.Context, doc *entity.Documentation) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cannot marshal document %s: %w", doc.ID, err)
	}

	if err := r.cl.Set(ctx, getKey(KeyDocument, doc.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cannot save document %s: %w", doc.ID, err)
	}

	r.log.Debug("Document saved", slog.String("id", doc.ID), slog.Int("size", len(data)))

	return nil
}

func (r *documentRepository) Get(ctx context.Context, id string) (*entity.Documentation, error) {
	data, err := r.cl.Get(ctx, getKey(KeyDocument, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrDocumentNotFound
		}

		return nil, fmt.Errorf("cannot get document %s: %w", id, err)
	}

	doc := &entity.Documentation{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("cannot unmarshal document %s: %w", id, err)
	}

	return doc, nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (r *documentRepository) Delete(ctx context.Context, id string) error {
	if err := r.cl.Del(ctx, getKey(KeyDocument, id)).Err(); err != nil {
		return fmt.Errorf("cannot delete document %s: %w", id, err)
	}

	return nil
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
