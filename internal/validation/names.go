// Package validation checks names before they are sent to the DMS.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/eisenvault/evshare/internal/util/sanitize"
)

// MaxNameLength is the longest node name both backends accept.
const MaxNameLength = 255

// ValidateFolderName validates an already-sanitized folder name.
//
// Returns an error if the name:
//   - Is empty
//   - Is "." or ".."
//   - Contains null bytes
//   - Contains a reserved character (<>:"|?* or a path separator)
//   - Is longer than MaxNameLength characters
func ValidateFolderName(name string) error {
	if name == "" {
		return fmt.Errorf("folder name cannot be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("folder name cannot be %q", name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("folder name contains null byte")
	}
	if sanitize.HasReserved(name) {
		return fmt.Errorf("folder name cannot contain any of %s", sanitize.ReservedChars)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("folder name is longer than %d characters", MaxNameLength)
	}
	return nil
}

// ValidateFilename validates an upload file name (not a path).
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is "." or ".."
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %s", filename)
	}

	if strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}

	// Names like "foo..bar.txt" are fine; only the literal dot entries are not
	if filename == "." || filename == ".." {
		return fmt.Errorf("filename cannot be %q", filename)
	}

	return nil
}
