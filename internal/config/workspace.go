package config

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// On-disk layout inside each workspace.
const (
	DataDirName      = ".novaport_data"
	DatabaseFileName = "conport.db"
	VectorDirName    = "vectordb"
	VectorDBFileName = "vectors.db"
	ExportDirName    = "conport_export"
)

// WorkspacePaths resolves the on-disk locations for one workspace.
type WorkspacePaths struct {
	Root      string // the workspace directory itself
	DataDir   string // <root>/.novaport_data
	Database  string // <data>/conport.db
	VectorDir string // <data>/vectordb
	VectorDB  string // <data>/vectordb/vectors.db
}

// PathsFor derives the storage layout for a workspace ID. The ID is an
// opaque string, conventionally an absolute filesystem path.
func PathsFor(workspaceID string) WorkspacePaths {
	dataDir := filepath.Join(workspaceID, DataDirName)
	vectorDir := filepath.Join(dataDir, VectorDirName)
	return WorkspacePaths{
		Root:      workspaceID,
		DataDir:   dataDir,
		Database:  filepath.Join(dataDir, DatabaseFileName),
		VectorDir: vectorDir,
		VectorDB:  filepath.Join(vectorDir, VectorDBFileName),
	}
}

// EncodeWorkspaceID renders a workspace ID for use in a URL path
// component (unpadded URL-safe base64 of the UTF-8 bytes).
func EncodeWorkspaceID(workspaceID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(workspaceID))
}

// DecodeWorkspaceID reverses EncodeWorkspaceID, accepting padded input
// too. Malformed encodings and non-UTF-8 payloads are rejected.
func DecodeWorkspaceID(encoded string) (string, error) {
	if encoded == "" {
		return "", fmt.Errorf("workspace id is empty")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", fmt.Errorf("workspace id is not valid url-safe base64: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("workspace id does not decode to UTF-8")
	}
	return string(raw), nil
}
