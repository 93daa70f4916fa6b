package models

import (
	"fmt"
	"image"
)

// Payload is the platform-provided content handle of a shared item.
// The orchestrator resolves FilePayload, BytesPayload and ImagePayload;
// any other implementation is rejected as unsupported content.
type Payload interface {
	PayloadKind() string
}

// FilePayload references a file on the local filesystem.
type FilePayload struct {
	Path string
}

func (FilePayload) PayloadKind() string { return "file" }

// BytesPayload carries raw bytes handed over by the OS.
type BytesPayload struct {
	Data []byte
}

func (BytesPayload) PayloadKind() string { return "bytes" }

// ImagePayload carries a decoded image (e.g. a screenshot) with no file behind it.
type ImagePayload struct {
	Image image.Image
}

func (ImagePayload) PayloadKind() string { return "image" }

// ShareItem is one attachment of a share batch.
type ShareItem struct {
	Payload       Payload
	SuggestedName string
}

// ShareBatch is created once per session and never modified.
type ShareBatch struct {
	Items []ShareItem
}

// NewShareBatch builds a batch from items.
func NewShareBatch(items ...ShareItem) ShareBatch {
	copied := make([]ShareItem, len(items))
	copy(copied, items)
	return ShareBatch{Items: copied}
}

// TotalCount returns the number of attachments.
func (b ShareBatch) TotalCount() int {
	return len(b.Items)
}

// UploadOutcome is the terminal state of one item.
type UploadOutcome int

const (
	OutcomeSuccess UploadOutcome = iota
	OutcomeFailed
)

func (o UploadOutcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failed"
}

// UploadResult records what happened to one item.
type UploadResult struct {
	Index    int
	Item     ShareItem
	FileName string // resolved name, empty when resolution failed
	Outcome  UploadOutcome
	Err      error // failure reason when Outcome == OutcomeFailed
}

// BatchUploadResult aggregates a batch.
type BatchUploadResult struct {
	Succeeded int
	Failed    int
	Total     int
}

// OK reports whether every item succeeded.
func (r BatchUploadResult) OK() bool {
	return r.Total > 0 && r.Succeeded == r.Total
}

func (r BatchUploadResult) String() string {
	return fmt.Sprintf("%d/%d succeeded, %d failed", r.Succeeded, r.Total, r.Failed)
}

// UploadSummary is persisted for the host application after a fully
// successful batch.
type UploadSummary struct {
	Folder    string
	FolderID  string
	FileCount int
	Timestamp float64 // unix seconds
	Status    string
}
