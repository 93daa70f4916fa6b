package models

// NodeKind is the position of a node in the DMS hierarchy.
type NodeKind int

const (
	KindSite NodeKind = iota
	KindContainer
	KindFolder
	KindDepartment
)

func (k NodeKind) String() string {
	switch k {
	case KindSite:
		return "site"
	case KindContainer:
		return "container"
	case KindFolder:
		return "folder"
	case KindDepartment:
		return "department"
	default:
		return "unknown"
	}
}

// ParseNodeKind parses the names produced by NodeKind.String.
// Unknown names map to KindFolder, the most common upload target.
func ParseNodeKind(s string) NodeKind {
	switch s {
	case "site":
		return KindSite
	case "container":
		return KindContainer
	case "department":
		return KindDepartment
	default:
		return KindFolder
	}
}

// FolderNode is one entry of a listing. ID is backend-assigned and only
// unique within a single listing response; Name is a display label.
type FolderNode struct {
	ID   string
	Name string
	Kind NodeKind
}
