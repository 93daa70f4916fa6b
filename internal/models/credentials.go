package models

import (
	"fmt"
	"strings"
)

// InstanceType identifies which backend API flavor a DMS instance speaks.
type InstanceType int

const (
	// InstanceClassic is the Alfresco-style API (sites, containers, nodes)
	InstanceClassic InstanceType = iota
	// InstanceAngora is the Angora API (departments, folders, uploads)
	InstanceAngora
)

// String returns the lower-case name stored in the credential store.
func (t InstanceType) String() string {
	switch t {
	case InstanceClassic:
		return "classic"
	case InstanceAngora:
		return "angora"
	default:
		return "unknown"
	}
}

// ParseInstanceType parses a stored instance type case-insensitively.
func ParseInstanceType(s string) (InstanceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "classic":
		return InstanceClassic, nil
	case "angora":
		return InstanceAngora, nil
	default:
		return 0, fmt.Errorf("unknown instance type %q (expected classic or angora)", s)
	}
}

// Credentials are written by the host application after login and read,
// never modified, by a share session.
type Credentials struct {
	BaseURL          string
	AuthToken        string
	InstanceType     InstanceType
	CustomerHostname string // optional, Angora only
}
