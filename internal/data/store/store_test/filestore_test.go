package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/data/redisStore"
	"github.com/kbchat/kbchat/internal/data/store"
	"github.com/kbchat/kbchat/internal/domain/chatModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/redis/go-redis/v9"
)

func newTestFileStore(t *testing.T) (*store.RedisFileStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.TestFileStore(redisStore.NewTestStore(client)), mr
}

func TestRedisFileStore_Lifecycle(t *testing.T) {
	fileStore, _ := newTestFileStore(t)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	record := fileModel.FileRecord{
		Uid:      "file-abc-123",
		Filename: "handbook.pdf",
		UserUid:  "user-1",
		Scope:    fileModel.ScopePublic,
		Status:   fileModel.StatusNotProcessed,
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := fileStore.SaveFile(ctx, record); err != nil {
			t.Fatalf("SaveFile failed: %v", err)
		}

		got, found := fileStore.GetFile(ctx, record.Uid)
		if !found {
			t.Fatal("Record was saved but not found")
		}
		if got.Filename != record.Filename || got.Scope != record.Scope {
			t.Errorf("Data mismatch! Got %+v, want %+v", got, record)
		}
	})

	t.Run("Status Update", func(t *testing.T) {
		if err := fileStore.UpdateStatus(ctx, record.Uid, fileModel.StatusProcessed); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}
		got, _ := fileStore.GetFile(ctx, record.Uid)
		if got.Status != fileModel.StatusProcessed {
			t.Errorf("Status got %s, want %s", got.Status, fileModel.StatusProcessed)
		}
	})

	t.Run("List By User", func(t *testing.T) {
		records, err := fileStore.ListFiles(ctx, "user-1")
		if err != nil {
			t.Fatalf("ListFiles failed: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("Expected 1 record for user-1, got %d", len(records))
		}
		if records, _ = fileStore.ListFiles(ctx, "ghost-user"); len(records) != 0 {
			t.Errorf("Expected no records for unknown user, got %d", len(records))
		}
	})

	t.Run("Delete Is Idempotent", func(t *testing.T) {
		if err := fileStore.DeleteFile(ctx, record.Uid); err != nil {
			t.Fatalf("DeleteFile failed: %v", err)
		}
		if _, found := fileStore.GetFile(ctx, record.Uid); found {
			t.Error("Record still present after delete")
		}
		// second delete must be a quiet no-op
		if err := fileStore.DeleteFile(ctx, record.Uid); err != nil {
			t.Errorf("Second DeleteFile errored: %v", err)
		}
	})

	t.Run("Get Non-Existent Record", func(t *testing.T) {
		if _, found := fileStore.GetFile(ctx, "ghost-id"); found {
			t.Error("Expected found=false for non-existent key")
		}
	})
}

func TestRedisFileStore_FindByName(t *testing.T) {
	fileStore, _ := newTestFileStore(t)
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "find-trace")

	if err := fileStore.SaveFile(ctx, fileModel.FileRecord{
		Uid: "pub-1", Filename: "policy.txt", Scope: fileModel.ScopePublic,
		Status: fileModel.StatusProcessed,
	}); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	t.Run("Match By Filename And Scope", func(t *testing.T) {
		got, found := fileStore.FindByName(ctx, "policy.txt", fileModel.ScopePublic)
		if !found {
			t.Fatal("Existing record not found by name")
		}
		if got.Uid != "pub-1" {
			t.Errorf("Uid got %s, want pub-1", got.Uid)
		}
	})

	t.Run("Scope Is Part Of The Key", func(t *testing.T) {
		if _, found := fileStore.FindByName(ctx, "policy.txt", fileModel.ScopePrivate); found {
			t.Error("Public record matched a private lookup")
		}
	})

	t.Run("Unknown Filename", func(t *testing.T) {
		if _, found := fileStore.FindByName(ctx, "ghost.txt", fileModel.ScopePublic); found {
			t.Error("Expected found=false for unknown filename")
		}
	})

	// a re-upload reuses the uid, so saving again must replace, not duplicate
	t.Run("Reused Uid Replaces The Record", func(t *testing.T) {
		existing, _ := fileStore.FindByName(ctx, "policy.txt", fileModel.ScopePublic)
		if err := fileStore.SaveFile(ctx, fileModel.FileRecord{
			Uid: existing.Uid, Filename: "policy.txt", Scope: fileModel.ScopePublic,
			Status: fileModel.StatusNotProcessed,
		}); err != nil {
			t.Fatalf("SaveFile failed: %v", err)
		}
		records, err := fileStore.ListFiles(ctx, "")
		if err != nil {
			t.Fatalf("ListFiles failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 record after re-upload, got %d", len(records))
		}
		if records[0].Status != fileModel.StatusNotProcessed {
			t.Errorf("Replacement status got %s, want %s", records[0].Status, fileModel.StatusNotProcessed)
		}
	})
}

func TestRedisConversationStore_AppendAndList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	convStore := store.TestConversationStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "conv-trace")

	turns := []chatModel.ConversationTurn{
		{Uid: "t1", Scope: fileModel.ScopePublic, Question: "q1", Answer: "a1"},
		{Uid: "t2", Scope: fileModel.ScopePublic, Question: "q2", Answer: "a2",
			Sources: []chatModel.SourceRef{{Source: "policy.txt", Snippet: "Refunds"}}},
		{Uid: "t3", Scope: fileModel.ScopePrivate, Question: "q3", Answer: "a3"},
	}
	for _, turn := range turns {
		if err := convStore.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}

	public, err := convStore.ListTurns(ctx, fileModel.ScopePublic)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(public) != 2 {
		t.Fatalf("Expected 2 public turns, got %d", len(public))
	}
	// append order is preserved
	if public[0].Uid != "t1" || public[1].Uid != "t2" {
		t.Errorf("Turn order not preserved: %s, %s", public[0].Uid, public[1].Uid)
	}
	if len(public[1].Sources) != 1 || public[1].Sources[0].Source != "policy.txt" {
		t.Errorf("Sources not round-tripped: %+v", public[1].Sources)
	}

	private, _ := convStore.ListTurns(ctx, fileModel.ScopePrivate)
	if len(private) != 1 {
		t.Errorf("Expected 1 private turn, got %d", len(private))
	}
}
