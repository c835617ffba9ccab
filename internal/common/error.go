package common

import "fmt"

var (
	ErrDocumentNotFound    = fmt.Errorf("document not found")
	ErrArtifactNotFound    = fmt.Errorf("artifact not found")
	ErrInvalidWorkflow     = fmt.Errorf("invalid workflow")
	ErrInvalidUpload       = fmt.Errorf("invalid upload")
	ErrAPIKeyRequired      = fmt.Errorf("api key is required")
	ErrInvalidAPIKey       = fmt.Errorf("invalid api key")
	ErrEmptyResponse       = fmt.Errorf("model response missing documentation content")
	ErrUnsupportedProvider = fmt.Errorf("unsupported provider")
	ErrBatchAlreadyRunning = fmt.Errorf("batch process has already started")
)
