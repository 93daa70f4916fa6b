package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
)

// Angora talks to the Angora API: departments hold folders, which hold
// folders and files in one mixed listing.
type Angora struct {
	client *Client
	logger *logging.Logger
}

// angoraEnvelope is the {status, data} wrapper around every Angora response.
type angoraEnvelope struct {
	Status json.RawMessage `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// status returns the numeric envelope status, or 0 when absent or not numeric.
func (e angoraEnvelope) status() int {
	raw := strings.Trim(strings.TrimSpace(string(e.Status)), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

type angoraCreateRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

// Classification says whether an Angora listing item can be navigated into.
type Classification int

const (
	Leaf Classification = iota
	Browsable
)

// fileMarkers are keys that only file items carry.
var fileMarkers = []string{"file_type", "mime_type", "extension", "content_type"}

// NewAngora creates an Angora backend for creds.
func NewAngora(creds *models.Credentials, httpClient *nethttp.Client, logger *logging.Logger) *Angora {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	headers := nethttp.Header{}
	headers.Set("x-portal", constants.AngoraPortal)
	headers.Set("x-service-name", constants.AngoraServiceName)
	if creds.CustomerHostname != "" {
		headers.Set("x-customer-hostname", creds.CustomerHostname)
	}

	root := trimBase(creds.BaseURL) + constants.AngoraAPIPath
	return &Angora{
		client: NewClient(root, creds.AuthToken, httpClient, headers, logger),
		logger: logger,
	}
}

// Variant implements Backend.
func (a *Angora) Variant() models.InstanceType {
	return models.InstanceAngora
}

// ListRoot lists departments.
func (a *Angora) ListRoot(ctx context.Context) ([]models.FolderNode, error) {
	const op = "list departments"

	items, err := a.list(ctx, op, a.client.endpoint(url.Values{"slim": {"true"}}, "departments"))
	if err != nil {
		return nil, err
	}

	nodes := make([]models.FolderNode, 0, len(items))
	for _, item := range items {
		id, ok := itemID(item)
		if !ok {
			continue
		}
		nodes = append(nodes, models.FolderNode{ID: id, Name: itemName(item), Kind: models.KindDepartment})
	}
	return nodes, nil
}

// ListChildren lists the browsable children of a department or folder.
// File items are filtered out.
func (a *Angora) ListChildren(ctx context.Context, parent models.FolderNode) ([]models.FolderNode, error) {
	op := "list folder"
	collection := "folders"
	if parent.Kind == models.KindDepartment {
		op = "list department"
		collection = "departments"
	}

	items, err := a.list(ctx, op, a.client.endpoint(nil, collection, parent.ID, "children"))
	if err != nil {
		return nil, err
	}

	nodes := make([]models.FolderNode, 0, len(items))
	skipped := 0
	for _, item := range items {
		id, ok := itemID(item)
		if !ok || Classify(item) != Browsable {
			skipped++
			continue
		}
		kind := models.KindFolder
		if truthy(item["is_department"]) {
			kind = models.KindDepartment
		}
		nodes = append(nodes, models.FolderNode{ID: id, Name: itemName(item), Kind: kind})
	}

	a.logger.Debug().Str("parent", parent.ID).Int("folders", len(nodes)).Int("skipped", skipped).Msg("Angora listing")
	return nodes, nil
}

// list fetches an envelope whose data is an array of items.
func (a *Angora) list(ctx context.Context, op, rawURL string) ([]map[string]interface{}, error) {
	data, err := a.fetch(ctx, op, rawURL)
	if err != nil {
		return nil, err
	}

	var items []map[string]interface{}
	if err := decodeUseNumber(data, &items); err != nil {
		return nil, parseError(op, fmt.Errorf("data is not a list: %w", err))
	}
	return items, nil
}

func (a *Angora) fetch(ctx context.Context, op, rawURL string) (json.RawMessage, error) {
	req, err := a.client.newRequest(ctx, nethttp.MethodGet, rawURL, nil, "")
	if err != nil {
		return nil, transportError(op, err)
	}
	body, err := a.client.do(op, req)
	if err != nil {
		return nil, err
	}
	return unwrapEnvelope(op, body)
}

// unwrapEnvelope checks the envelope status and returns its data.
func unwrapEnvelope(op string, body []byte) (json.RawMessage, error) {
	var env angoraEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, parseError(op, err)
	}
	if status := env.status(); status >= 400 {
		return nil, statusError(op, status, body)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, parseError(op, fmt.Errorf("missing data"))
	}
	return env.Data, nil
}

// CreateFolder creates a folder under parent.
func (a *Angora) CreateFolder(ctx context.Context, parent models.FolderNode, name string) (*models.FolderNode, error) {
	const op = "create folder"

	payload, err := json.Marshal(angoraCreateRequest{Name: name, ParentID: parent.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := a.client.newRequest(ctx, nethttp.MethodPost, a.client.endpoint(nil, "folders"), payload, "application/json")
	if err != nil {
		return nil, transportError(op, err)
	}
	body, err := a.client.do(op, req)
	if err != nil {
		return nil, err
	}

	folder := &models.FolderNode{Name: name, Kind: models.KindFolder}

	// Some deployments answer with a bare status; the folder shows up on the next listing
	data, err := unwrapEnvelope(op, body)
	if err != nil {
		if IsKind(err, KindParse) {
			return folder, nil
		}
		return nil, err
	}
	var item map[string]interface{}
	if decodeUseNumber(data, &item) == nil {
		if id, ok := itemID(item); ok {
			folder.ID = id
		}
		if n := itemName(item); n != constants.AngoraUnnamed {
			folder.Name = n
		}
	}
	return folder, nil
}

// UploadFile posts data as a single-chunk resumable upload into parent.
func (a *Angora) UploadFile(ctx context.Context, parent models.FolderNode, name string, data []byte) error {
	const op = "upload file"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write multipart file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	headers := map[string]string{
		"x-file-id":       uuid.NewString(),
		"x-file-name":     name,
		"x-start-byte":    "0",
		"x-file-size":     strconv.Itoa(len(data)),
		"x-resumable":     "true",
		"x-relative-path": "",
		"x-parent-id":     parent.ID,
	}

	body, err := a.client.sendMultipart(ctx, op, a.client.endpoint(nil, "uploads"), buf.Bytes(), w.FormDataContentType(), headers)
	if err != nil {
		return err
	}

	// A 2xx can still carry a failing envelope status
	var env angoraEnvelope
	if json.Unmarshal(body, &env) == nil {
		if status := env.status(); status >= 400 {
			return statusError(op, status, body)
		}
	}
	return nil
}

// CheckCreatePermission always answers PermissionUnknown: Angora has no
// permission endpoint, so no request is made.
func (a *Angora) CheckCreatePermission(ctx context.Context, node models.FolderNode) (Permission, error) {
	return PermissionUnknown, nil
}

// Classify decides whether an Angora listing item is a container. Explicit
// department/folder flags win; otherwise an item without any file-type
// marker is browsable unless it says it cannot have children.
func Classify(item map[string]interface{}) Classification {
	if truthy(item["is_department"]) || truthy(item["is_folder"]) {
		return Browsable
	}
	for _, key := range fileMarkers {
		if present(item[key]) {
			return Leaf
		}
	}
	if v, ok := item["can_have_children"]; ok && v != nil && !truthy(v) {
		return Leaf
	}
	return Browsable
}

// itemID returns the item's id as a string; ids arrive as strings or numbers.
func itemID(item map[string]interface{}) (string, bool) {
	switch v := item["id"].(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func itemName(item map[string]interface{}) string {
	for _, key := range []string{"raw_file_name", "name"} {
		if s, ok := item[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return constants.AngoraUnnamed
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	case json.Number:
		return b.String() != "0"
	default:
		return false
	}
}

func present(v interface{}) bool {
	switch s := v.(type) {
	case nil:
		return false
	case string:
		return s != ""
	default:
		return true
	}
}

func decodeUseNumber(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
