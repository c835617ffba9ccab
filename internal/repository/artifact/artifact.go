package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
	"github.com/redis/go-redis/v9"
)

const (
	KeyArtifact          = "art" // HASH. art:{id} kind, name, mime, digest, doc, enc, created, data
	KeyDocumentArtifacts = "da"  // HASH. da:{doc_id} kind: artifact_id
	KeySeparator         = ":"

	fieldKind     = "kind"
	fieldName     = "name"
	fieldMIMEType = "mime"
	fieldDigest   = "digest"
	fieldDocument = "doc"
	fieldEncoding = "enc"
	fieldCreated  = "created"
	fieldData     = "data"

	encodingZstd = "zstd"
)

type artifactRepository struct {
	cl  *redis.Client
	ttl time.Duration
	enc *zstd.Encoder
	dec *zstd.Decoder
	log *slog.Logger
}

func NewArtifactRepository(cl *redis.Client, ttl time.Duration, log *slog.Logger) (*artifactRepository, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
	if err != nil {
		return nil, fmt.Errorf("cannot create zstd encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		enc.Close()

		return nil, fmt.Errorf("cannot create zstd decoder: %w", err)
	}

	return &artifactRepository{
		cl:  cl,
		ttl: ttl,
		enc: enc,
		dec: dec,
		log: log.With(slog.String("item", "ArtifactRepository")),
	}, nil
}

// Save stores the artifact and indexes it under its document and kind.
func (r *artifactRepository) Save(ctx context.Context, a *entity.Artifact) error {
	keyArtifact := getKey(KeyArtifact, a.ID)
	keyIndex := getKey(KeyDocumentArtifacts, a.DocumentID)

	pipe := r.cl.TxPipeline()
	pipe.HSet(ctx, keyArtifact, map[string]any{
		fieldKind:     string(a.Kind),
		fieldName:     a.Name,
		fieldMIMEType: a.MIMEType,
		fieldDigest:   a.Digest.String(),
		fieldDocument: a.DocumentID,
		fieldEncoding: encodingZstd,
		fieldCreated:  strconv.FormatInt(a.CreatedAt.UnixNano(), 10),
		fieldData:     r.enc.EncodeAll(a.Data, nil),
	})
	pipe.Expire(ctx, keyArtifact, r.ttl)
	pipe.HSet(ctx, keyIndex, string(a.Kind), a.ID)
	pipe.Expire(ctx, keyIndex, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save artifact %s: %w", a.ID, err)
	}

	r.log.Debug("Artifact saved", slog.String("id", a.ID), slog.String("kind", string(a.Kind)),
		slog.String("doc_id", a.DocumentID), slog.Int("size", len(a.Data)))

	return nil
}

func (r *artifactRepository) Get(ctx context.Context, id string) (*entity.Artifact, error) {
	fields, err := r.cl.HGetAll(ctx, getKey(KeyArtifact, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get artifact %s: %w", id, err)
	}

	if len(fields) < 1 {
		return nil, common.ErrArtifactNotFound
	}

	a := &entity.Artifact{
		ID:         id,
		Kind:       entity.ArtifactKind(fields[fieldKind]),
		DocumentID: fields[fieldDocument],
		Name:       fields[fieldName],
		MIMEType:   fields[fieldMIMEType],
		Data:       []byte(fields[fieldData]),
	}

	if d := fields[fieldDigest]; d != "" {
		if a.Digest, err = digest.Parse(d); err != nil {
			return nil, fmt.Errorf("cannot parse artifact %s digest: %w", id, err)
		}
	}

	if created, err := strconv.ParseInt(fields[fieldCreated], 10, 64); err == nil {
		a.CreatedAt = time.Unix(0, created)
	}

	if fields[fieldEncoding] == encodingZstd {
		if a.Data, err = r.dec.DecodeAll(a.Data, nil); err != nil {
			return nil, fmt.Errorf("cannot decompress artifact %s: %w", id, err)
		}
	}

	return a, nil
}

// Replace saves the artifact and releases the one previously stored for the
// same document and kind. It returns the released id, if any.
func (r *artifactRepository) Replace(ctx context.Context, a *entity.Artifact) (string, error) {
	prev, err := r.cl.HGet(ctx, getKey(KeyDocumentArtifacts, a.DocumentID), string(a.Kind)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("cannot get previous artifact: %w", err)
	}

	if err := r.Save(ctx, a); err != nil {
		return "", err
	}

	if prev == "" || prev == a.ID {
		return "", nil
	}

	if err := r.cl.Del(ctx, getKey(KeyArtifact, prev)).Err(); err != nil {
		return "", fmt.Errorf("cannot release previous artifact %s: %w", prev, err)
	}

	r.log.Debug("Artifact replaced", slog.String("id", a.ID), slog.String("previous_id", prev))

	return prev, nil
}

// Release deletes the artifact. Releasing an unknown or already released
// artifact is a no-op.
func (r *artifactRepository) Release(ctx context.Context, id string) error {
	keyArtifact := getKey(KeyArtifact, id)

	vals, err := r.cl.HMGet(ctx, keyArtifact, fieldDocument, fieldKind).Result()
	if err != nil {
		return fmt.Errorf("cannot get artifact %s: %w", id, err)
	}

	docID, _ := vals[0].(string)
	kind, _ := vals[1].(string)

	if err := r.cl.Del(ctx, keyArtifact).Err(); err != nil {
		return fmt.Errorf("cannot release artifact %s: %w", id, err)
	}

	if docID == "" || kind == "" {
		return nil
	}

	keyIndex := getKey(KeyDocumentArtifacts, docID)
	current, err := r.cl.HGet(ctx, keyIndex, kind).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("cannot get document artifacts: %w", err)
	}

	if current == id {
		if err := r.cl.HDel(ctx, keyIndex, kind).Err(); err != nil {
			return fmt.Errorf("cannot update document artifacts: %w", err)
		}
	}

	return nil
}

// ReleaseDocument releases every artifact built for the document and returns
// their ids.
func (r *artifactRepository) ReleaseDocument(ctx context.Context, docID string) ([]string, error) {
	keyIndex := getKey(KeyDocumentArtifacts, docID)

	index, err := r.cl.HGetAll(ctx, keyIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get document artifacts: %w", err)
	}

	ids := make([]string, 0, len(index))
	pipe := r.cl.Pipeline()
	for _, id := range index {
		ids = append(ids, id)
		pipe.Del(ctx, getKey(KeyArtifact, id))
	}
	pipe.Del(ctx, keyIndex)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("cannot release document artifacts: %w", err)
	}

	sort.Strings(ids)

	return ids, nil
}

func (r *artifactRepository) Close() {
	r.enc.Close()
	r.dec.Close()
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
