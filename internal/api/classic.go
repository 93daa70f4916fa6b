package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
)

// Classic talks to the Alfresco-style API: sites hold a document library
// container, which holds folder nodes.
type Classic struct {
	client *Client
	logger *logging.Logger
}

// classicListResponse is the {list:{entries:[{entry:{...}}]}} envelope.
type classicListResponse struct {
	List *struct {
		Entries []struct {
			Entry classicEntry `json:"entry"`
		} `json:"entries"`
	} `json:"list"`
}

type classicEntryResponse struct {
	Entry *classicEntry `json:"entry"`
}

type classicEntry struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Title               string   `json:"title"`
	FolderID            string   `json:"folderId"`
	IsFolder            bool     `json:"isFolder"`
	AllowableOperations []string `json:"allowableOperations"`
}

type classicCreateRequest struct {
	Name     string `json:"name"`
	NodeType string `json:"nodeType"`
}

// NewClassic creates a Classic backend for creds.
func NewClassic(creds *models.Credentials, httpClient *nethttp.Client, logger *logging.Logger) *Classic {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	root := trimBase(creds.BaseURL) + constants.ClassicAPIPath
	return &Classic{
		client: NewClient(root, creds.AuthToken, httpClient, nil, logger),
		logger: logger,
	}
}

// Variant implements Backend.
func (c *Classic) Variant() models.InstanceType {
	return models.InstanceClassic
}

// ListRoot lists the sites visible to the user.
func (c *Classic) ListRoot(ctx context.Context) ([]models.FolderNode, error) {
	const op = "list sites"

	entries, err := c.list(ctx, op, c.client.endpoint(nil, "sites"))
	if err != nil {
		return nil, err
	}

	nodes := make([]models.FolderNode, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		nodes = append(nodes, models.FolderNode{
			ID:   e.ID,
			Name: firstNonEmpty(e.Title, e.ID),
			Kind: models.KindSite,
		})
	}
	return nodes, nil
}

// ListChildren lists the document library of a site, or the subfolders of a
// container or folder.
func (c *Classic) ListChildren(ctx context.Context, parent models.FolderNode) ([]models.FolderNode, error) {
	if parent.Kind != models.KindSite {
		return c.listNodeChildren(ctx, parent.ID)
	}

	const op = "list site containers"
	entries, err := c.list(ctx, op, c.client.endpoint(nil, "sites", parent.ID, "containers"))
	if IsKind(err, KindNotFound) {
		c.logger.Debug().Str("site", parent.ID).Msg("No containers endpoint, listing node children")
		return c.listNodeChildren(ctx, parent.ID)
	}
	if err != nil {
		return nil, err
	}

	nodes := make([]models.FolderNode, 0, 1)
	for _, e := range entries {
		if e.FolderID != constants.ClassicDocumentLibrary || e.ID == "" {
			continue
		}
		name := e.FolderID
		if parent.Name != "" {
			name = parent.Name + " - Documents"
		}
		nodes = append(nodes, models.FolderNode{ID: e.ID, Name: name, Kind: models.KindContainer})
	}
	return nodes, nil
}

func (c *Classic) listNodeChildren(ctx context.Context, nodeID string) ([]models.FolderNode, error) {
	const op = "list folder"

	query := url.Values{"include": {constants.ClassicChildrenInclude}}
	entries, err := c.list(ctx, op, c.client.endpoint(query, "nodes", nodeID, "children"))
	if err != nil {
		return nil, err
	}

	nodes := make([]models.FolderNode, 0, len(entries))
	for _, e := range entries {
		if !e.IsFolder || e.ID == "" {
			continue
		}
		nodes = append(nodes, models.FolderNode{
			ID:   e.ID,
			Name: firstNonEmpty(e.Name, e.Title, e.ID),
			Kind: models.KindFolder,
		})
	}
	return nodes, nil
}

func (c *Classic) list(ctx context.Context, op, rawURL string) ([]classicEntry, error) {
	var resp classicListResponse
	if err := c.client.getJSON(ctx, op, rawURL, &resp); err != nil {
		return nil, err
	}
	if resp.List == nil {
		return nil, parseError(op, fmt.Errorf("missing list envelope"))
	}

	entries := make([]classicEntry, len(resp.List.Entries))
	for i, wrapper := range resp.List.Entries {
		entries[i] = wrapper.Entry
	}
	return entries, nil
}

// CreateFolder creates a cm:folder child of parent.
func (c *Classic) CreateFolder(ctx context.Context, parent models.FolderNode, name string) (*models.FolderNode, error) {
	const op = "create folder"

	body := classicCreateRequest{Name: name, NodeType: constants.ClassicFolderNodeType}
	var resp classicEntryResponse
	if err := c.client.sendJSON(ctx, op, nethttp.MethodPost, c.client.endpoint(nil, "nodes", parent.ID, "children"), body, &resp); err != nil {
		return nil, err
	}
	if resp.Entry == nil || resp.Entry.ID == "" {
		return nil, parseError(op, fmt.Errorf("missing entry id"))
	}

	return &models.FolderNode{
		ID:   resp.Entry.ID,
		Name: firstNonEmpty(resp.Entry.Name, name),
		Kind: models.KindFolder,
	}, nil
}

// UploadFile posts data as the filedata part of a multipart request into parent.
func (c *Classic) UploadFile(ctx context.Context, parent models.FolderNode, name string, data []byte) error {
	const op = "upload file"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("filedata", name)
	if err != nil {
		return fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write multipart file part: %w", err)
	}
	fields := [][2]string{
		{"destination", constants.ClassicDestinationPrefix + parent.ID},
		{"upload-directory", ""},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write multipart field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	_, err = c.client.sendMultipart(ctx, op, c.client.endpoint(nil, "nodes", parent.ID, "children"), buf.Bytes(), w.FormDataContentType(), nil)
	return err
}

// CheckCreatePermission reads the node's allowable operations.
func (c *Classic) CheckCreatePermission(ctx context.Context, node models.FolderNode) (Permission, error) {
	const op = "check permission"

	query := url.Values{"include": {"allowableOperations"}}
	var resp classicEntryResponse
	if err := c.client.getJSON(ctx, op, c.client.endpoint(query, "nodes", node.ID), &resp); err != nil {
		return PermissionUnknown, err
	}
	if resp.Entry == nil {
		return PermissionUnknown, parseError(op, fmt.Errorf("missing entry"))
	}

	for _, operation := range resp.Entry.AllowableOperations {
		if operation == constants.ClassicCreateOperation {
			return PermissionAllowed, nil
		}
	}
	return PermissionDenied, nil
}

func trimBase(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
