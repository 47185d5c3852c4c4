package filestore

import (
	"path/filepath"
	"strings"
	"time"
)

// ContentType classifies a stored file by its source kind.
type ContentType string

const (
	ContentHTML ContentType = "html"
	ContentCSS  ContentType = "css"
	ContentJS   ContentType = "js"
	ContentTS   ContentType = "ts"
	ContentJSX  ContentType = "jsx"
	ContentTSX  ContentType = "tsx"
	ContentJSON ContentType = "json"
	ContentText ContentType = "text"
)

// File is one app file with its metadata. Keyed by Path within an app.
type File struct {
	Path         string
	Content      string
	ContentType  ContentType
	SizeBytes    int
	IsEntryPoint bool
	UpdatedAt    time.Time
}

// DetectContentType maps a file extension to its content type.
// Unknown extensions fall back to text.
func DetectContentType(path string) ContentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ContentHTML
	case ".css":
		return ContentCSS
	case ".js", ".mjs", ".cjs":
		return ContentJS
	case ".ts":
		return ContentTS
	case ".jsx":
		return ContentJSX
	case ".tsx":
		return ContentTSX
	case ".json":
		return ContentJSON
	default:
		return ContentText
	}
}

// isEntryPoint reports whether a path is an app entry point.
func isEntryPoint(path string) bool {
	switch path {
	case "index.html", "src/main.tsx", "src/main.jsx", "src/index.js":
		return true
	}
	return false
}
