package validation

import (
	"strings"
	"testing"
)

func TestValidateFolderName(t *testing.T) {
	testCases := []struct {
		name        string
		folder      string
		expectValid bool
	}{
		{"simple", "Invoices", true},
		{"with spaces", "Q3 Reports", true},
		{"with dots", "v1.2.3", true},
		{"unicode", "Verträge", true},
		{"empty", "", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"colon", "a:b", false},
		{"question", "what?", false},
		{"star", "*", false},
		{"pipe", "a|b", false},
		{"quote", `"x"`, false},
		{"angle", "<x>", false},
		{"null byte", "a\x00b", false},
		{"max length", strings.Repeat("a", MaxNameLength), true},
		{"too long", strings.Repeat("a", MaxNameLength+1), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFolderName(tc.folder)
			if tc.expectValid && err != nil {
				t.Errorf("expected %q to be valid, got %v", tc.folder, err)
			}
			if !tc.expectValid && err == nil {
				t.Errorf("expected %q to be invalid", tc.folder)
			}
		})
	}
}

// TestValidateFilename tests validation of resolved upload names
func TestValidateFilename(t *testing.T) {
	testCases := []struct {
		filename    string
		expectValid bool
	}{
		{"file.txt", true},
		{"my-file_v2.txt", true},
		{"foo..bar.txt", true},
		{".hidden", true},
		{"", false},
		{".", false},
		{"..", false},
		{"dir/file.txt", false},
		{`dir\file.txt`, false},
		{"file\x00.txt", false},
	}

	for _, tc := range testCases {
		err := ValidateFilename(tc.filename)
		if tc.expectValid && err != nil {
			t.Errorf("expected %q to be valid, got %v", tc.filename, err)
		}
		if !tc.expectValid && err == nil {
			t.Errorf("expected %q to be invalid", tc.filename)
		}
	}
}
