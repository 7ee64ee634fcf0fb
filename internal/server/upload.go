package server

import (
	"fmt"
	"strings"
)

const DefaultMaxUploadBytes = 10 * 1024 * 1024

// UploadError codes.
const (
	EmptyFile       = "empty-file"
	InvalidFileType = "invalid-file-type"
	FileTooLarge    = "file-too-large"
)

type UploadError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *UploadError) Error() string { return e.Message }

// ValidateUpload checks an uploaded file before it is parsed. A file of
// exactly maxBytes is accepted.
func ValidateUpload(name string, size, maxBytes int64) *UploadError {
	if size == 0 {
		return &UploadError{Type: EmptyFile, Message: "The file appears to be empty"}
	}
	if !strings.HasSuffix(strings.ToLower(name), ".gpx") {
		return &UploadError{Type: InvalidFileType, Message: "Please upload a GPX file (.gpx)"}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if size > maxBytes {
		return tooLarge(maxBytes)
	}
	return nil
}

func tooLarge(maxBytes int64) *UploadError {
	return &UploadError{Type: FileTooLarge, Message: fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024))}
}
