// Package upload resolves shared items into named byte payloads and uploads
// a batch of them into one DMS folder.
package upload

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/models"
	"github.com/eisenvault/evshare/internal/util/sanitize"
	"github.com/eisenvault/evshare/internal/validation"
)

// Resolved is a payload ready to upload.
type Resolved struct {
	Name string
	Data []byte
}

// Resolver turns ShareItems into Resolved payloads.
type Resolver struct {
	// Now stamps synthesized image names. Defaults to time.Now.
	Now func() time.Time
}

// Resolve resolves the item at index of a batch of total items.
//
// A file payload is read and named after its last path component. A bytes
// payload uses the suggested name, or "unknown_file" without one. An image is
// encoded as JPEG and named IMG_<timestamp>.jpg, with an index suffix when the
// batch holds more than one item. Any other payload fails with
// KindUnsupportedContent.
func (r Resolver) Resolve(item models.ShareItem, index, total int) (*Resolved, error) {
	switch p := item.Payload.(type) {
	case models.FilePayload:
		return r.resolveFile(p)
	case *models.FilePayload:
		return r.resolveFile(*p)
	case models.BytesPayload:
		return r.resolveBytes(p, item.SuggestedName)
	case *models.BytesPayload:
		return r.resolveBytes(*p, item.SuggestedName)
	case models.ImagePayload:
		return r.resolveImage(p, index, total)
	case *models.ImagePayload:
		return r.resolveImage(*p, index, total)
	case nil:
		return nil, api.NewUnsupportedContentError("unsupported content type: empty item")
	default:
		return nil, api.NewUnsupportedContentError(fmt.Sprintf("unsupported content type: %s", p.PayloadKind()))
	}
}

func (r Resolver) resolveFile(p models.FilePayload) (*Resolved, error) {
	info, err := os.Stat(p.Path)
	if err != nil {
		return nil, unreadable(p.Path, err)
	}
	if info.IsDir() {
		return nil, api.NewUnsupportedContentError(fmt.Sprintf("%s is a directory", p.Path))
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, unreadable(p.Path, err)
	}
	return &Resolved{Name: fileName(filepath.Base(p.Path)), Data: data}, nil
}

// unreadable reports a shared file that could not be read.
func unreadable(path string, err error) *api.Error {
	e := api.NewUnsupportedContentError(fmt.Sprintf("cannot read %s", filepath.Base(path)))
	e.Err = err
	return e
}

func (r Resolver) resolveBytes(p models.BytesPayload, suggested string) (*Resolved, error) {
	return &Resolved{Name: fileName(suggested), Data: p.Data}, nil
}

func (r Resolver) resolveImage(p models.ImagePayload, index, total int) (*Resolved, error) {
	if p.Image == nil {
		return nil, api.NewUnsupportedContentError("unsupported content type: empty image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, p.Image, &jpeg.Options{Quality: constants.ImageJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	name := "IMG_" + now().Format(constants.ImageNameLayout)
	if total > 1 {
		name = fmt.Sprintf("%s_%d", name, index+1)
	}
	return &Resolved{Name: name + ".jpg", Data: buf.Bytes()}, nil
}

// fileName cleans name for upload, falling back to the default name.
func fileName(name string) string {
	name = sanitize.FileName(name)
	if validation.ValidateFilename(name) != nil {
		return constants.DefaultFileName
	}
	return name
}
