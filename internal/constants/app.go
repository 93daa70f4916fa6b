package constants

import (
	"time"
)

// HTTP transport settings.
// No overall client timeout is set; these bound connection setup only.
const (
	// HTTPDialTimeout - TCP connect timeout
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - TCP keep-alive period
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPIdleConnTimeout - how long idle pooled connections are kept
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - TLS handshake timeout
	HTTPTLSHandshakeTimeout = 10 * time.Second

	// HTTPExpectContinueTimeout - wait for 100-continue before sending body
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPMaxIdleConnsPerHost - one batch upload opens one connection per file
	HTTPMaxIdleConnsPerHost = 16

	// ProxyWarmupTimeout - bound on the optional proxy warmup request
	ProxyWarmupTimeout = 15 * time.Second

	// DefaultProxyPort is used when a proxy host is configured without a port
	DefaultProxyPort = 8080
)

// Classic (Alfresco-style) backend
const (
	// ClassicAPIPath is appended to the stored base URL
	ClassicAPIPath = "/api/-default-/public/alfresco/versions/1"

	// ClassicChildrenInclude is the include list sent with node-children listings
	ClassicChildrenInclude = "path,properties,allowableOperations"

	// ClassicDocumentLibrary is the container folderId that marks a site's document library
	ClassicDocumentLibrary = "documentLibrary"

	// ClassicFolderNodeType is the node type for folder creation
	ClassicFolderNodeType = "cm:folder"

	// ClassicDestinationPrefix builds the multipart "destination" field from a node id
	ClassicDestinationPrefix = "workspace://SpacesStore/"

	// ClassicCreateOperation is the allowable operation that grants child creation
	ClassicCreateOperation = "create"
)

// Angora backend
const (
	// AngoraAPIPath is appended to the stored base URL
	AngoraAPIPath = "/api"

	// AngoraPortal is sent as x-portal on every Angora request
	AngoraPortal = "web"

	// AngoraServiceName is sent as x-service-name on every Angora request
	AngoraServiceName = "service-file"

	// AngoraUnnamed is the display name for items with neither raw_file_name nor name
	AngoraUnnamed = "Unnamed"
)

// Share and upload defaults
const (
	// RootBreadcrumb is shown when the navigator sits at the site/department list
	RootBreadcrumb = "Select destination..."

	// DefaultFileName is used for raw byte payloads shared without a name
	DefaultFileName = "unknown_file"

	// ImageNameLayout formats the timestamp in synthesized image names
	ImageNameLayout = "20060102_150405"

	// ImageJPEGQuality is the encoder quality for image payloads
	ImageJPEGQuality = 85

	// UploadStatusCompleted is the status written to the upload summary record
	UploadStatusCompleted = "completed"
)

// Event bus configuration
const (
	// EventBusDefaultBuffer - default per-subscriber buffer size
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - cap on per-subscriber buffer size
	EventBusMaxBuffer = 4096
)

// Progress bar configuration
const (
	// ProgressBarWidth - width of the batch progress bar in characters
	ProgressBarWidth = 40

	// ProgressThrottle - minimum interval between progress bar redraws
	ProgressThrottle = 100 * time.Millisecond
)
