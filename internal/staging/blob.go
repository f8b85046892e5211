// Package staging turns a raw upload into an immutable StagedRecord and
// manages the durable artifacts the reconciliation workflow reviews.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
)

// BlobStore persists raw upload bytes durably. Location strings are opaque
// to callers; only the store that issued one can read it back.
type BlobStore interface {
	Save(data []byte, name string) (location string, err error)
	Read(location string) ([]byte, error)
	Delete(location string) error
}

// FSBlobStore keeps uploads under one directory, prefixing each file with a
// capture timestamp and a short uuid so repeated uploads of the same
// filename never collide.
type FSBlobStore struct {
	dir string
}

// NewFSBlobStore creates the directory if needed.
func NewFSBlobStore(dir string) (*FSBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fault.Wrap(fault.KindFileError, err, "create uploads directory %s", dir)
	}
	return &FSBlobStore{dir: dir}, nil
}

func (s *FSBlobStore) Save(data []byte, name string) (string, error) {
	base := sanitizeFilename(name)
	stamped := fmt.Sprintf("%s_%s_%s",
		time.Now().UTC().Format("2006_01_02_15_04_05"),
		uuid.New().String()[:8],
		base,
	)
	path := filepath.Join(s.dir, stamped)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fault.Wrap(fault.KindFileError, err, "save upload %s", name)
	}
	return path, nil
}

func (s *FSBlobStore) Read(location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fault.Wrap(fault.KindFileError, err, "read upload %s", location)
	}
	return data, nil
}

func (s *FSBlobStore) Delete(location string) error {
	if err := os.Remove(location); err != nil {
		return fault.Wrap(fault.KindFileError, err, "delete upload %s", location)
	}
	return nil
}

// sanitizeFilename keeps the base name and replaces path separators and
// whitespace so the stored name is a single safe path segment.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "upload"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	return replacer.Replace(base)
}
