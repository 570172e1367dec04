package store

import (
	"context"
	"sync"

	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// InMemoryFileStore is the fallback when redis is offline, and the store used
// by unit tests that don't care about persistence.
type InMemoryFileStore struct {
	mu      sync.RWMutex
	records map[string]fileModel.FileRecord
	logger  *logger_i.Logger
}

func InitInMemoryFileStore() *InMemoryFileStore {
	return &InMemoryFileStore{
		records: make(map[string]fileModel.FileRecord),
		logger:  logger_i.NewLogger("InMem FileStore"),
	}
}

func (s *InMemoryFileStore) SaveFile(ctx context.Context, record fileModel.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Uid] = record
	return nil
}

func (s *InMemoryFileStore) GetFile(ctx context.Context, uid string) (fileModel.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, found := s.records[uid]
	return record, found
}

// FindByName resolves a record by filename and scope. Filenames key the blob
// and the index entries, so uploads use this to replace an existing record
// instead of minting a duplicate.
func (s *InMemoryFileStore) FindByName(ctx context.Context, filename string, scope fileModel.Scope) (fileModel.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.Filename == filename && record.Scope == scope {
			return record, true
		}
	}
	return fileModel.FileRecord{}, false
}

func (s *InMemoryFileStore) ListFiles(ctx context.Context, userUid string) ([]fileModel.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]fileModel.FileRecord, 0, len(s.records))
	for _, record := range s.records {
		if userUid == "" || record.UserUid == userUid {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *InMemoryFileStore) UpdateStatus(ctx context.Context, uid string, status fileModel.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.records[uid]
	if !found {
		s.logger.Warn("Status update for unknown file", "uid", uid)
		return nil
	}
	record.Status = status
	s.records[uid] = record
	return nil
}

func (s *InMemoryFileStore) DeleteFile(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, uid)
	return nil
}
