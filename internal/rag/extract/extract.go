package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbchat/kbchat/internal/domain/docModel"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// The pipeline keys its status transitions off these two conditions, so they
// must stay distinguishable from a plain extraction failure.
var (
	ErrSourceNotFound    = errors.New("source file not found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

var logger = logger_i.NewLogger("Extractor")

// Extract reads the document at path and returns its text as ordered
// segments, one per page where the format has pages. The extension decides
// the parser; an unknown extension is ErrUnsupportedFormat before any bytes
// are read, and a missing file is ErrSourceNotFound before any parser runs.
func Extract(path string) ([]docModel.Segment, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx", ".odt", ".rtf":
		return extractWithCat(path)
	case ".txt":
		return extractPlainText(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Supported reports whether the extension maps to a parser, without touching
// the filesystem. Handlers use it to reject uploads early.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".odt", ".rtf", ".txt":
		return true
	}
	return false
}
