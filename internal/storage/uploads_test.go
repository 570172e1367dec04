package storage

import (
	"os"
	"strings"
	"testing"
)

func TestUploadStore_SaveExistsRemove(t *testing.T) {
	uploads, err := NewUploadStore(t.TempDir(), "uploads")
	if err != nil {
		t.Fatalf("NewUploadStore failed: %v", err)
	}

	path, err := uploads.Save("notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Fatalf("Blob content mismatch: %q, err %v", data, err)
	}
	if !uploads.Exists("notes.txt") {
		t.Error("Exists returned false for a saved blob")
	}

	if err := uploads.Remove("notes.txt"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if uploads.Exists("notes.txt") {
		t.Error("Blob still present after Remove")
	}

	// a second remove is a no-op, not an error
	if err := uploads.Remove("notes.txt"); err != nil {
		t.Errorf("Remove of missing blob errored: %v", err)
	}
}

func TestUploadStore_PathTraversalStripped(t *testing.T) {
	uploads, err := NewUploadStore(t.TempDir(), "uploads")
	if err != nil {
		t.Fatalf("NewUploadStore failed: %v", err)
	}

	path := uploads.PathFor("../../etc/passwd")
	if strings.Contains(path, "..") {
		t.Errorf("PathFor leaked traversal segments: %s", path)
	}
}
