package store

import (
	"context"
	"encoding/json"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/data/redisStore"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

const (
	fileKeyPrefix  = "file:"
	allFilesSetKey = "files:all"
	userSetPrefix  = "files:user:"
)

type RedisFileStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisFileStore(ctx context.Context) *RedisFileStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisFileStore)
	if inner == nil {
		return nil
	}
	return &RedisFileStore{
		store:  inner,
		logger: logger_i.NewLogger("FileStore"),
	}
}

func (s *RedisFileStore) SaveFile(ctx context.Context, record fileModel.FileRecord) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file uid", record.Uid)
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, fileKeyPrefix+record.Uid, data, 0); err != nil {
		return err
	}
	if err := s.store.SetAdd(ctx, allFilesSetKey, record.Uid); err != nil {
		return err
	}
	if record.UserUid != "" {
		if err := s.store.SetAdd(ctx, userSetPrefix+record.UserUid, record.Uid); err != nil {
			return err
		}
	}
	log.Debug("Saved file record")
	return nil
}

func (s *RedisFileStore) GetFile(ctx context.Context, uid string) (fileModel.FileRecord, bool) {
	var record fileModel.FileRecord
	val, err := s.store.Get(ctx, fileKeyPrefix+uid)
	if s.store.IsNil(err) || err != nil {
		return record, false
	}
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		s.logger.Error("Corrupt file record", "uid", uid, "error", err)
		return record, false
	}
	return record, true
}

// FindByName resolves a record by filename and scope. Filenames key the blob
// and the index entries, so uploads use this to replace an existing record
// instead of minting a duplicate.
func (s *RedisFileStore) FindByName(ctx context.Context, filename string, scope fileModel.Scope) (fileModel.FileRecord, bool) {
	uids, err := s.store.SetMembers(ctx, allFilesSetKey)
	if err != nil {
		return fileModel.FileRecord{}, false
	}
	for _, uid := range uids {
		if record, found := s.GetFile(ctx, uid); found && record.Filename == filename && record.Scope == scope {
			return record, true
		}
	}
	return fileModel.FileRecord{}, false
}

func (s *RedisFileStore) ListFiles(ctx context.Context, userUid string) ([]fileModel.FileRecord, error) {
	setKey := allFilesSetKey
	if userUid != "" {
		setKey = userSetPrefix + userUid
	}
	uids, err := s.store.SetMembers(ctx, setKey)
	if err != nil {
		return nil, err
	}

	records := make([]fileModel.FileRecord, 0, len(uids))
	for _, uid := range uids {
		if record, found := s.GetFile(ctx, uid); found {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *RedisFileStore) UpdateStatus(ctx context.Context, uid string, status fileModel.Status) error {
	record, found := s.GetFile(ctx, uid)
	if !found {
		s.logger.Warn("Status update for unknown file", "uid", uid)
		return nil
	}
	record.Status = status
	return s.SaveFile(ctx, record)
}

func (s *RedisFileStore) DeleteFile(ctx context.Context, uid string) error {
	record, found := s.GetFile(ctx, uid)
	if !found {
		return nil //already gone, deletion is idempotent
	}
	if err := s.store.Del(ctx, fileKeyPrefix+uid); err != nil {
		return err
	}
	if err := s.store.SetRemove(ctx, allFilesSetKey, uid); err != nil {
		return err
	}
	if record.UserUid != "" {
		return s.store.SetRemove(ctx, userSetPrefix+record.UserUid, uid)
	}
	return nil
}

func TestFileStore(store *redisStore.Store) *RedisFileStore {
	return &RedisFileStore{
		store:  store,
		logger: logger_i.NewLogger("test file store"),
	}
}
