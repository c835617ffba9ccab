package entity

import (
	"time"

	"github.com/opencontainers/go-digest"
)

type ArtifactKind string

const (
	ArtifactZip      ArtifactKind = "zip"
	ArtifactPrint    ArtifactKind = "print"
	ArtifactShare    ArtifactKind = "share"
	ArtifactWorkflow ArtifactKind = "workflow"
)

// Artifact is a downloadable object addressed by a revocable handle.
type Artifact struct {
	ID         string
	Kind       ArtifactKind
	DocumentID string
	Name       string
	MIMEType   string
	Digest     digest.Digest
	Data       []byte
	CreatedAt  time.Time
}

// ArtifactInfo is what clients get back after an artifact is built.
type ArtifactInfo struct {
	ID     string       `json:"id"`
	Kind   ArtifactKind `json:"kind"`
	Name   string       `json:"name"`
	URL    string       `json:"url"`
	Digest string       `json:"digest"`
	Size   int          `json:"size"`
}
