package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/autodocs/internal/adapter/llmadapter"
	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
)

const (
	uploadFieldName    = "file"
	multipartOverhead  = 1 << 20
	maxSettingsBody    = 64 << 10
	contentTypeJSON    = "application/json"
	contentTypeHTML    = "text/html; charset=utf-8"
	headerETag         = "ETag"
	headerDisposition  = "Content-Disposition"
	headerContentType  = "Content-Type"
	headerCacheControl = "Cache-Control"
)

var (
	idRegexp = regexp.MustCompile(`^[a-f\d]{40}$`)
)

type DocsService interface {
	Generate(ctx context.Context, up *entity.Upload) (*entity.Documentation, error)
	Preview(ctx context.Context, id string) (string, error)
	Reset(ctx context.Context, id string) error
}

type ArtifactService interface {
	Zip(ctx context.Context, docID string) (*entity.ArtifactInfo, error)
	Print(ctx context.Context, docID string) (*entity.ArtifactInfo, error)
	Share(ctx context.Context, docID string) (*entity.ArtifactInfo, error)
	Workflow(ctx context.Context, docID string) (*entity.ArtifactInfo, error)
	Get(ctx context.Context, id string) (*entity.Artifact, error)
	Release(ctx context.Context, id string) error
}

type SettingsService interface {
	Get(ctx context.Context) (entity.Settings, error)
	Save(ctx context.Context, s entity.Settings) error
	Clear(ctx context.Context) error
	Validate(ctx context.Context) error
}

type BatchService interface {
	Run(ctx context.Context) ([]*entity.BatchResult, error)
}

type documentResponse struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	FileName   string      `json:"file_name"`
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	Meta       entity.Meta `json:"meta"`
	CreatedAt  time.Time   `json:"created_at"`
	PreviewURL string      `json:"preview_url"`
}

type settingsResponse struct {
	entity.Settings
	HasKey bool `json:"has_key"`
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewWorkflowHandler accepts a multipart workflow upload and generates its
// documentation.
func NewWorkflowHandler(srv DocsService, siteURL string, maxUploadSize int64, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "WorkflowHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+multipartOverhead)

		file, header, err := r.FormFile(uploadFieldName)
		if err != nil {
			log.Warn("Cannot read upload", slog.Any("error", err))
			http.Error(w, "Provide a workflow file in the \"file\" field", http.StatusBadRequest)

			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
		if err != nil {
			http.Error(w, "Cannot read upload", http.StatusBadRequest)

			return
		}

		doc, err := srv.Generate(r.Context(), &entity.Upload{
			FileName:    header.Filename,
			ContentType: header.Header.Get(headerContentType),
			Size:        max(header.Size, int64(len(data))),
			Data:        data,
		})
		if err != nil {
			writeError(w, log, "Cannot generate documentation", err)

			return
		}

		writeJSON(w, log, http.StatusCreated, &documentResponse{
			ID:         doc.ID,
			Title:      doc.Title,
			FileName:   doc.FileName,
			Provider:   doc.Provider,
			Model:      doc.Model,
			Meta:       doc.Meta,
			CreatedAt:  doc.CreatedAt,
			PreviewURL: siteURL + "/docs/" + doc.ID + "/",
		})
	}
}

func NewPreviewHandler(srv DocsService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "PreviewHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !idRegexp.MatchString(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		content, err := srv.Preview(r.Context(), id)
		if err != nil {
			writeError(w, log, "Cannot get preview", err)

			return
		}

		w.Header().Set(headerContentType, contentTypeHTML)
		w.Write([]byte(content))
	}
}

// NewResetHandler forgets a document and releases its artifacts.
func NewResetHandler(srv DocsService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ResetHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !idRegexp.MatchString(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		if err := srv.Reset(r.Context(), id); err != nil {
			writeError(w, log, "Cannot reset document", err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewBuildArtifactHandler builds an artifact of the given kind for a
// document and returns its handle.
func NewBuildArtifactHandler(kind entity.ArtifactKind, srv ArtifactService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "BuildArtifactHandler"), slog.String("kind", string(kind)))

	var build func(ctx context.Context, docID string) (*entity.ArtifactInfo, error)
	switch kind {
	case entity.ArtifactZip:
		build = srv.Zip
	case entity.ArtifactPrint:
		build = srv.Print
	case entity.ArtifactShare:
		build = srv.Share
	case entity.ArtifactWorkflow:
		build = srv.Workflow
	default:
		panic(fmt.Sprintf("unknown artifact kind: %s", kind))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !idRegexp.MatchString(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		info, err := build(r.Context(), id)
		if err != nil {
			writeError(w, log, "Cannot build artifact", err)

			return
		}

		writeJSON(w, log, http.StatusCreated, info)
	}
}

// NewArtifactHandler serves an artifact. The digest is the ETag.
func NewArtifactHandler(srv ArtifactService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ArtifactHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !isArtifactID(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		a, err := srv.Get(r.Context(), id)
		if err != nil {
			writeError(w, log, "Cannot get artifact", err)

			return
		}

		disposition := "attachment"
		if a.Kind == entity.ArtifactPrint || a.Kind == entity.ArtifactShare {
			disposition = "inline"
		}

		h := w.Header()
		h.Set(headerContentType, a.MIMEType)
		h.Set(headerETag, `"`+a.Digest.String()+`"`)
		h.Set(headerCacheControl, "private, no-cache")
		h.Set(headerDisposition, mime.FormatMediaType(disposition, map[string]string{"filename": a.Name}))

		http.ServeContent(w, r, a.Name, a.CreatedAt, bytes.NewReader(a.Data))
	}
}

// NewReleaseHandler revokes an artifact handle.
func NewReleaseHandler(srv ArtifactService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ReleaseHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !isArtifactID(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		if err := srv.Release(r.Context(), id); err != nil {
			writeError(w, log, "Cannot release artifact", err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewGetSettingsHandler returns the effective settings with the key masked.
func NewGetSettingsHandler(srv SettingsService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "GetSettingsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		s, err := srv.Get(r.Context())
		if err != nil {
			writeError(w, log, "Cannot get settings", err)

			return
		}

		writeJSON(w, log, http.StatusOK, &settingsResponse{Settings: s.Masked(), HasKey: s.APIKey != ""})
	}
}

func NewSaveSettingsHandler(srv SettingsService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "SaveSettingsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		var s entity.Settings

		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		if err := srv.Save(r.Context(), s); err != nil {
			writeError(w, log, "Cannot save settings", err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func NewClearSettingsHandler(srv SettingsService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ClearSettingsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		if err := srv.Clear(r.Context()); err != nil {
			writeError(w, log, "Cannot clear settings", err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewValidateSettingsHandler checks the effective API key. A key the
// provider rejects is reported in the body, not as a failed request.
func NewValidateSettingsHandler(srv SettingsService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ValidateSettingsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		err := srv.Validate(r.Context())
		switch {
		case err == nil:
			writeJSON(w, log, http.StatusOK, &validateResponse{Valid: true})
		case errors.Is(err, common.ErrInvalidAPIKey):
			writeJSON(w, log, http.StatusOK, &validateResponse{Error: err.Error()})
		default:
			writeError(w, log, "Cannot validate api key", err)
		}
	}
}

// NewBatchHandler runs the batch over the work dir.
func NewBatchHandler(srv BatchService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "BatchHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		results, err := srv.Run(context.Background())
		if err != nil {
			switch {
			case errors.Is(err, common.ErrBatchAlreadyRunning):
				http.Error(w, "Batch process has already started", http.StatusConflict)
			default:
				log.Error("Cannot run batch", slog.Any("error", err))
				http.Error(w, "Cannot run batch process", http.StatusInternalServerError)
			}

			return
		}

		writeJSON(w, log, http.StatusOK, results)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		log.Error(msg, slog.Any("error", err))
	}

	switch code {
	case http.StatusInternalServerError:
		http.Error(w, msg, code)
	default:
		http.Error(w, capitalize(err.Error()), code)
	}
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, common.ErrDocumentNotFound), errors.Is(err, common.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidWorkflow), errors.Is(err, common.ErrInvalidUpload),
		errors.Is(err, common.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAPIKeyRequired), errors.Is(err, common.ErrInvalidAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrBatchAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, common.ErrEmptyResponse), llmadapter.IsStatusError(err):
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, code int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Cannot encode response", slog.Any("error", err))
	}
}

// isArtifactID accepts only the canonical lowercase form that handles are
// stored under.
func isArtifactID(id string) bool {
	u, err := uuid.Parse(id)

	return err == nil && u.String() == id
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
