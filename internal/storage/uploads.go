package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kbchat/kbchat/pkg/logger_i"
)

// UploadStore owns the single uploads directory. Filenames are the join key
// between the FileRecord, the blob and the vector index, so every path in
// here is derived from the bare filename.
type UploadStore struct {
	dir    string
	logger *logger_i.Logger
}

func NewUploadStore(root string, dirName string) (*UploadStore, error) {
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &UploadStore{
		dir:    dir,
		logger: logger_i.NewLogger("UploadStore"),
	}, nil
}

func (u *UploadStore) PathFor(filename string) string {
	return filepath.Join(u.dir, filepath.Base(filename))
}

func (u *UploadStore) Save(filename string, content io.Reader) (string, error) {
	path := u.PathFor(filename)
	destination, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating upload blob: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, content); err != nil {
		//don't leave a truncated blob behind
		os.Remove(path)
		return "", fmt.Errorf("writing upload blob: %w", err)
	}
	u.logger.Debug("Saved upload", "path", path)
	return path, nil
}

func (u *UploadStore) Exists(filename string) bool {
	_, err := os.Stat(u.PathFor(filename))
	return err == nil
}

// Remove deletes the blob if present. A missing blob is not an error so that
// repeated deletes stay idempotent.
func (u *UploadStore) Remove(filename string) error {
	err := os.Remove(u.PathFor(filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing upload blob: %w", err)
	}
	return nil
}
