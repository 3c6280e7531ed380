package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest resume the upload gateway accepts.
const MaxUploadBytes = 10 * 1024 * 1024

// ValidateUploadFile checks type and size locally. A reject here means the
// server was never contacted.
func ValidateUploadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" && ext != ".docx" {
		return &ValidationError{Message: fmt.Sprintf("unsupported file type %q: only PDF and DOCX are accepted", ext)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("cannot read file: %v", err)}
	}
	if info.Size() > MaxUploadBytes {
		return &ValidationError{Message: "file exceeds 10MB limit"}
	}
	return nil
}

// ValidateDownloadFormat restricts format to exactly docx and pdf. Any
// other value is rejected before any network call.
func ValidateDownloadFormat(format string) error {
	if format != "docx" && format != "pdf" {
		return &ValidationError{Message: fmt.Sprintf("invalid download format %q: must be docx or pdf", format)}
	}
	return nil
}
