package navigator

import (
	"context"
	"strings"
	"time"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/events"
	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
	"github.com/eisenvault/evshare/internal/util/sanitize"
	"github.com/eisenvault/evshare/internal/validation"
)

const createOp = "create folder"

// CreateOptions controls folder creation.
type CreateOptions struct {
	// CheckPermission asks the backend whether the parent accepts new
	// children before creating. A denied answer fails without a create call.
	CheckPermission bool

	Logger *logging.Logger
}

// CreateFolder creates a folder named name under parent.
//
// The name is cleaned with sanitize.Name first. A blank name, a nil parent
// or a name the DMS would reject fails with a KindValidation error before
// any request is made.
func CreateFolder(ctx context.Context, backend api.Backend, parent *models.FolderNode, name string, opts CreateOptions) (*models.FolderNode, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	name = sanitize.Name(name)
	if strings.TrimSpace(name) == "" {
		return nil, api.NewValidationError(createOp, "folder name is required")
	}
	if parent == nil {
		return nil, api.NewValidationError(createOp, "no destination selected")
	}
	if err := validation.ValidateFolderName(name); err != nil {
		return nil, api.NewValidationError(createOp, err.Error())
	}

	if opts.CheckPermission {
		perm, err := backend.CheckCreatePermission(ctx, *parent)
		switch {
		case err != nil:
			// The create call reports its own error if the folder really is read-only
			logger.Debug().Err(err).Str("parent", parent.ID).Msg("Permission check failed, creating anyway")
		case perm == api.PermissionDenied:
			return nil, &api.Error{
				Kind:    api.KindClientError,
				Op:      createOp,
				Message: "permission denied: you cannot create folders in " + parent.Name,
			}
		}
	}

	folder, err := backend.CreateFolder(ctx, *parent, name)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("parent", parent.Name).Str("folder", folder.Name).Str("id", folder.ID).Msg("Folder created")
	return folder, nil
}

// CreateFolder creates name inside the folder being browsed, then refreshes
// the listing so the new folder shows up. A refresh failure is logged; the
// folder was still created and is returned.
func (n *Navigator) CreateFolder(ctx context.Context, name string, opts CreateOptions) (*models.FolderNode, error) {
	n.actionMu.Lock()
	defer n.actionMu.Unlock()

	if opts.Logger == nil {
		opts.Logger = n.logger
	}
	parent := n.State().Current()

	folder, err := CreateFolder(ctx, n.backend, parent, name, opts)
	if err != nil {
		return nil, err
	}

	n.bus.Publish(&events.FolderCreatedEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventFolderCreated, Time: time.Now()},
		Parent:    *parent,
		Folder:    *folder,
	})

	if err := n.refreshLocked(ctx); err != nil {
		n.logger.Warn().Err(err).Str("folder", parent.Name).Msg("Listing refresh after folder creation failed")
	}
	return folder, nil
}
