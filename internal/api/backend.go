package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
)

// Permission is the outcome of a create-permission pre-check.
type Permission int

const (
	// PermissionUnknown means the backend cannot answer; callers proceed and
	// rely on the create call's own error.
	PermissionUnknown Permission = iota
	PermissionAllowed
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionAllowed:
		return "allowed"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Backend is the DMS API surface used by the navigator and the upload
// orchestrator. Classic and Angora implement it.
type Backend interface {
	// Variant returns the instance type this backend speaks.
	Variant() models.InstanceType

	// ListRoot lists the top level: sites (Classic) or departments (Angora).
	ListRoot(ctx context.Context) ([]models.FolderNode, error)

	// ListChildren lists the browsable children of parent. The node kind
	// selects the endpoint; only parent.ID is sent.
	ListChildren(ctx context.Context, parent models.FolderNode) ([]models.FolderNode, error)

	// CreateFolder creates a folder named name under parent.
	CreateFolder(ctx context.Context, parent models.FolderNode, name string) (*models.FolderNode, error)

	// UploadFile uploads data as a file named name into parent.
	UploadFile(ctx context.Context, parent models.FolderNode, name string, data []byte) error

	// CheckCreatePermission reports whether the user may create children of node.
	CheckCreatePermission(ctx context.Context, node models.FolderNode) (Permission, error)
}

// NewBackend returns the backend for creds.InstanceType.
func NewBackend(creds *models.Credentials, httpClient *nethttp.Client, logger *logging.Logger) (Backend, error) {
	if creds == nil {
		return nil, NewValidationError("connect", "no credentials")
	}
	if err := validateBaseURL(creds.BaseURL); err != nil {
		return nil, err
	}

	switch creds.InstanceType {
	case models.InstanceClassic:
		return NewClassic(creds, httpClient, logger), nil
	case models.InstanceAngora:
		return NewAngora(creds, httpClient, logger), nil
	default:
		return nil, NewValidationError("connect", fmt.Sprintf("unsupported instance type %s", creds.InstanceType))
	}
}

func validateBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return NewValidationError("connect", "DMS base URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("connect", fmt.Sprintf("invalid DMS base URL %q", raw))
	}
	return nil
}
