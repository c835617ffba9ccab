//go:build integration

package artifact

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/jgivc/autodocs/internal/repository/redistest"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"
)

const docID = "0123456789abcdef0123456789abcdef01234567"

func newArtifact(id string, kind entity.ArtifactKind, data []byte) *entity.Artifact {
	return &entity.Artifact{
		ID:         id,
		Kind:       kind,
		DocumentID: docID,
		Name:       "docs.zip",
		MIMEType:   "application/zip",
		Digest:     digest.FromBytes(data),
		Data:       data,
		CreatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newRepository(t *testing.T) *artifactRepository {
	t.Helper()

	cl := redistest.Client(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := NewArtifactRepository(cl, time.Hour, log)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	return repo
}

func TestSaveGet(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte("PK payload "), 512)
	a := newArtifact("a1", entity.ArtifactZip, data)
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, a.Kind, got.Kind)
	require.Equal(t, a.Name, got.Name)
	require.Equal(t, a.MIMEType, got.MIMEType)
	require.Equal(t, a.Digest, got.Digest)
	require.Equal(t, data, got.Data)
	require.True(t, a.CreatedAt.Equal(got.CreatedAt))

	stored, err := repo.cl.HGet(ctx, getKey(KeyArtifact, "a1"), fieldData).Result()
	require.NoError(t, err)
	require.Less(t, len(stored), len(data))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, common.ErrArtifactNotFound)
}

func TestReplace(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	prev, err := repo.Replace(ctx, newArtifact("a1", entity.ArtifactZip, []byte("one")))
	require.NoError(t, err)
	require.Empty(t, prev)

	require.NoError(t, repo.Save(ctx, newArtifact("p1", entity.ArtifactPrint, []byte("page"))))

	prev, err = repo.Replace(ctx, newArtifact("a2", entity.ArtifactZip, []byte("two")))
	require.NoError(t, err)
	require.Equal(t, "a1", prev)

	_, err = repo.Get(ctx, "a1")
	require.ErrorIs(t, err, common.ErrArtifactNotFound)

	got, err := repo.Get(ctx, "a2")
	require.NoError(t, err)
	require.Equal(t, []byte("two"), got.Data)

	_, err = repo.Get(ctx, "p1")
	require.NoError(t, err)
}

func TestRelease(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newArtifact("a1", entity.ArtifactZip, []byte("one"))))
	require.NoError(t, repo.Release(ctx, "a1"))
	require.NoError(t, repo.Release(ctx, "a1"))
	require.NoError(t, repo.Release(ctx, "unknown"))

	_, err := repo.Get(ctx, "a1")
	require.ErrorIs(t, err, common.ErrArtifactNotFound)

	exists, err := repo.cl.HExists(ctx, getKey(KeyDocumentArtifacts, docID), string(entity.ArtifactZip)).Result()
	require.NoError(t, err)
	require.False(t, exists)
}

func TestReleaseDocument(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newArtifact("a1", entity.ArtifactZip, []byte("zip"))))
	require.NoError(t, repo.Save(ctx, newArtifact("p1", entity.ArtifactPrint, []byte("print"))))
	require.NoError(t, repo.Save(ctx, newArtifact("s1", entity.ArtifactShare, []byte("share"))))

	ids, err := repo.ReleaseDocument(ctx, docID)
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "p1", "s1"}, ids)

	for _, id := range ids {
		_, err := repo.Get(ctx, id)
		require.ErrorIs(t, err, common.ErrArtifactNotFound)
	}

	ids, err = repo.ReleaseDocument(ctx, docID)
	require.NoError(t, err)
	require.Empty(t, ids)
}
