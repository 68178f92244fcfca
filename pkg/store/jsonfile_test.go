package store

import (
	"os"
	"path/filepath"
	"testing"

	"feedbackrelay/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st := New(filepath.Join(t.TempDir(), "messages.json"))
	if err := st.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return st
}

func TestStore_AppendCreatesThreadAndPersists(t *testing.T) {
	st := newTestStore(t)

	st.AppendMessage(7, models.StoredMessage{SentTime: 100, Type: "text", Content: "hello"})
	st.AppendMessage(7, models.StoredMessage{SentTime: 200, Type: "text", Content: "again"})
	st.AppendMessage(9, models.StoredMessage{SentTime: 300, Type: "text", Content: "other"})

	f, err := ReadFileFresh(st.Path())
	if err != nil {
		t.Fatalf("ReadFileFresh failed: %v", err)
	}
	if len(f.MessageToAdmin) != 2 {
		t.Fatalf("expected 2 threads on disk, got %d", len(f.MessageToAdmin))
	}
	if f.MessageToAdmin[0].ID != "1" || f.MessageToAdmin[0].UserID != 7 {
		t.Fatalf("unexpected first thread: %+v", f.MessageToAdmin[0])
	}
	if len(f.MessageToAdmin[0].Messages) != 2 {
		t.Fatalf("expected 2 messages in first thread, got %d", len(f.MessageToAdmin[0].Messages))
	}
	if f.MessageToAdmin[1].ID != "2" || f.MessageToAdmin[1].UserID != 9 {
		t.Fatalf("unexpected second thread: %+v", f.MessageToAdmin[1])
	}
}

func TestStore_ReloadRoundTrip(t *testing.T) {
	st := newTestStore(t)
	st.AppendMessage(3, models.StoredMessage{SentTime: 42, Type: "text", Content: "persisted"})

	st2 := New(st.Path())
	if err := st2.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	msgs := st2.Messages(3)
	if len(msgs) != 1 || msgs[0].Content != "persisted" || msgs[0].SentTime != 42 {
		t.Fatalf("unexpected messages after reload: %+v", msgs)
	}
}

func TestStore_LoadMissingFileStartsEmpty(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope.json"))
	if err := st.Load(); err != nil {
		t.Fatalf("Load over missing file should not fail: %v", err)
	}
	if !st.Ready() {
		t.Fatal("store should be ready after Load")
	}
	threads, messages := st.Counts()
	if threads != 0 || messages != 0 {
		t.Fatalf("expected empty store, got %d threads %d messages", threads, messages)
	}
}

func TestStore_LoadCorruptFileStartsEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "messages.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}
	st := New(p)
	if err := st.Load(); err != nil {
		t.Fatalf("Load over corrupt file should not fail: %v", err)
	}
	threads, _ := st.Counts()
	if threads != 0 {
		t.Fatalf("expected empty store over corrupt file, got %d threads", threads)
	}
}

func TestStore_DeleteMessage(t *testing.T) {
	st := newTestStore(t)
	st.AppendMessage(7, models.StoredMessage{SentTime: 100, Type: "text", Content: "a"})
	st.AppendMessage(7, models.StoredMessage{SentTime: 200, Type: "text", Content: "b"})

	if !st.DeleteMessage(7, 100) {
		t.Fatal("expected delete to find the thread")
	}
	msgs := st.Messages(7)
	if len(msgs) != 1 || msgs[0].SentTime != 200 {
		t.Fatalf("unexpected remaining messages: %+v", msgs)
	}

	// unknown sent_time in an existing thread is still a hit on the thread
	if !st.DeleteMessage(7, 99999) {
		t.Fatal("expected delete to report thread found")
	}
	if got := st.Messages(7); len(got) != 1 {
		t.Fatalf("delete of unknown sent_time must not remove anything, got %+v", got)
	}

	// removing the last message prunes the thread
	if !st.DeleteMessage(7, 200) {
		t.Fatal("expected delete to find the thread")
	}
	threads, _ := st.Counts()
	if threads != 0 {
		t.Fatalf("expected thread pruned, got %d threads", threads)
	}

	if st.DeleteMessage(42, 1) {
		t.Fatal("delete for a user with no thread must return false")
	}
}

func TestStore_UserIDsEnumerationOrder(t *testing.T) {
	st := newTestStore(t)
	st.AppendMessage(9, models.StoredMessage{SentTime: 1, Content: "x"})
	st.AppendMessage(2, models.StoredMessage{SentTime: 2, Content: "y"})
	st.AppendMessage(5, models.StoredMessage{SentTime: 3, Content: "z"})

	got := st.UserIDs()
	want := []string{"9", "2", "5"}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}
}

func TestStore_Sweep(t *testing.T) {
	st := newTestStore(t)
	st.AppendMessage(7, models.StoredMessage{SentTime: 100, Content: "old"})
	st.AppendMessage(7, models.StoredMessage{SentTime: 300, Content: "new"})
	st.AppendMessage(9, models.StoredMessage{SentTime: 150, Content: "old only"})

	removed := st.Sweep(250)
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	threads, messages := st.Counts()
	if threads != 1 || messages != 1 {
		t.Fatalf("expected 1 thread 1 message after sweep, got %d/%d", threads, messages)
	}
	if msgs := st.Messages(7); len(msgs) != 1 || msgs[0].SentTime != 300 {
		t.Fatalf("unexpected surviving messages: %+v", msgs)
	}

	// a sweep that removes nothing must not rewrite the file
	fi1, err := os.Stat(st.Path())
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if got := st.Sweep(250); got != 0 {
		t.Fatalf("expected no-op sweep, got %d", got)
	}
	fi2, err := os.Stat(st.Path())
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if fi1.ModTime() != fi2.ModTime() {
		t.Fatal("no-op sweep must not rewrite the backing file")
	}
}

func TestReadFileFresh_MissingFile(t *testing.T) {
	if _, err := ReadFileFresh(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing backing file")
	}
}
