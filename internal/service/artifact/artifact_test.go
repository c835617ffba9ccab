package artifact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jgivc/autodocs/internal/archive"
	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Get(ctx context.Context, id string) (*entity.Documentation, error) {
	args := m.Called(ctx, id)

	var doc *entity.Documentation
	if d, ok := args.Get(0).(*entity.Documentation); ok {
		doc = d
	}

	return doc, args.Error(1)
}

type MockArtifactRepository struct {
	mock.Mock
}

func (m *MockArtifactRepository) Replace(ctx context.Context, a *entity.Artifact) (string, error) {
	args := m.Called(ctx, a)

	return args.String(0), args.Error(1)
}

func (m *MockArtifactRepository) Get(ctx context.Context, id string) (*entity.Artifact, error) {
	args := m.Called(ctx, id)

	var a *entity.Artifact
	if v, ok := args.Get(0).(*entity.Artifact); ok {
		a = v
	}

	return a, args.Error(1)
}

func (m *MockArtifactRepository) Release(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newService(t *testing.T, docs DocumentRepository, repo ArtifactRepository) *artifactService {
	t.Helper()

	srv := NewArtifactService(docs, repo, newBuilder(t, false), "http://localhost:8080", slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	srv.newID = func() string { return "5f0c6f53-3c1e-4b8e-9b3a-0d6f3b0a2c11" }

	return srv
}

func TestZip(t *testing.T) {
	ctx := context.Background()
	doc := testDoc(jsonDoc)

	docs := new(MockDocumentRepository)
	docs.On("Get", ctx, doc.ID).Return(doc, nil)

	repo := new(MockArtifactRepository)
	var saved *entity.Artifact
	repo.On("Replace", ctx, mock.AnythingOfType("*entity.Artifact")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*entity.Artifact) }).
		Return("previous", nil).Once()

	info, err := newService(t, docs, repo).Zip(ctx, doc.ID)
	require.NoError(t, err)

	require.Equal(t, "5f0c6f53-3c1e-4b8e-9b3a-0d6f3b0a2c11", info.ID)
	require.Equal(t, entity.ArtifactZip, info.Kind)
	require.Equal(t, "Order-Sync.docs.zip", info.Name)
	require.Equal(t, "http://localhost:8080/artifact/5f0c6f53-3c1e-4b8e-9b3a-0d6f3b0a2c11/", info.URL)

	require.NotNil(t, saved)
	require.Equal(t, doc.ID, saved.DocumentID)
	require.Equal(t, archive.MIMEType, saved.MIMEType)
	require.Equal(t, digest.FromBytes(saved.Data), saved.Digest)
	require.Equal(t, saved.Digest.String(), info.Digest)
	require.Equal(t, len(saved.Data), info.Size)
	require.NoError(t, saved.Digest.Validate())

	files := readZip(t, saved.Data)
	require.Contains(t, files, EntryReadme)

	repo.AssertExpectations(t)
}

func TestPagesAndWorkflow(t *testing.T) {
	ctx := context.Background()
	doc := testDoc(jsonDoc)

	docs := new(MockDocumentRepository)
	docs.On("Get", ctx, doc.ID).Return(doc, nil)

	repo := new(MockArtifactRepository)
	var saved []*entity.Artifact
	repo.On("Replace", ctx, mock.AnythingOfType("*entity.Artifact")).
		Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*entity.Artifact)) }).
		Return("", nil)

	srv := newService(t, docs, repo)

	info, err := srv.Print(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ArtifactPrint, info.Kind)
	require.Equal(t, "Order-Sync.print.html", info.Name)

	info, err = srv.Share(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ArtifactShare, info.Kind)
	require.Equal(t, "Order-Sync.html", info.Name)

	info, err = srv.Workflow(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ArtifactWorkflow, info.Kind)
	require.Equal(t, "Order Sync.json", info.Name)

	require.Len(t, saved, 3)
	require.Contains(t, string(saved[0].Data), "window.print()")
	require.NotContains(t, string(saved[1].Data), "window.print()")
	require.Equal(t, htmlMIMEType, saved[1].MIMEType)
	require.Equal(t, doc.Workflow, string(saved[2].Data))
	require.Equal(t, jsonMIMEType, saved[2].MIMEType)
}

func TestCreateErrors(t *testing.T) {
	ctx := context.Background()
	doc := testDoc(jsonDoc)

	docs := new(MockDocumentRepository)
	docs.On("Get", ctx, "missing").Return(nil, common.ErrDocumentNotFound)
	docs.On("Get", ctx, doc.ID).Return(doc, nil)

	repo := new(MockArtifactRepository)
	repo.On("Replace", ctx, mock.Anything).Return("", errors.New("connection refused"))

	srv := newService(t, docs, repo)

	_, err := srv.Zip(ctx, "missing")
	require.ErrorIs(t, err, common.ErrDocumentNotFound)
	repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)

	_, err = srv.Share(ctx, doc.ID)
	require.Error(t, err)
}

func TestGetRelease(t *testing.T) {
	ctx := context.Background()
	a := &entity.Artifact{ID: "a1", Name: "docs.zip"}

	repo := new(MockArtifactRepository)
	repo.On("Get", ctx, "a1").Return(a, nil)
	repo.On("Get", ctx, "gone").Return(nil, common.ErrArtifactNotFound)
	repo.On("Release", ctx, "a1").Return(nil)

	srv := newService(t, new(MockDocumentRepository), repo)

	got, err := srv.Get(ctx, "a1")
	require.NoError(t, err)
	require.Same(t, a, got)

	_, err = srv.Get(ctx, "gone")
	require.ErrorIs(t, err, common.ErrArtifactNotFound)

	require.NoError(t, srv.Release(ctx, "a1"))
	repo.AssertExpectations(t)
}
