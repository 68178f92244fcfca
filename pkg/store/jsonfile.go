package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/models"
	"feedbackrelay/pkg/telemetry"
)

// Store is the durable keeper of all thread/message data. The entire state
// lives in one JSON file; every mutation rewrites the whole document. That
// is a scalability ceiling, not a correctness bug, at the expected scale of
// a storefront support channel.
type Store struct {
	mu   sync.Mutex
	path string
	data models.StoreFile
	open bool
}

// New returns a Store bound to the given file path. Call Load before use.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Ready reports whether the store has been loaded.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Load reads the backing file. A missing or unparsable file is logged and
// the store starts empty; the relay never refuses to start over bad data.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("store_file_absent", "path", s.path)
			return nil
		}
		logger.Warn("store_load_failed", "path", s.path, "error", err)
		return nil
	}
	var f models.StoreFile
	if err := json.Unmarshal(b, &f); err != nil {
		logger.Warn("store_parse_failed", "path", s.path, "error", err)
		return nil
	}
	s.data = f
	logger.Info("store_loaded", "path", s.path, "threads", len(f.MessageToAdmin))
	return nil
}

// save rewrites the full document. Callers hold s.mu. The write goes
// through a temp file and rename so a crash mid-write cannot truncate the
// backing file. Failures are logged and counted only; in-memory state
// stands uncorrected.
func (s *Store) save() {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		telemetry.SaveFailed()
		logger.Error("store_marshal_failed", "path", s.path, "error", err)
		return
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".messages-*.tmp")
	if err != nil {
		telemetry.SaveFailed()
		logger.Error("store_save_failed", "path", s.path, "error", err)
		return
	}
	name := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		_ = os.Remove(name)
		telemetry.SaveFailed()
		logger.Error("store_save_failed", "path", s.path, "error", err)
		return
	}
	_ = tmp.Sync()
	tmp.Close()
	if err := os.Rename(name, s.path); err != nil {
		_ = os.Remove(name)
		telemetry.SaveFailed()
		logger.Error("store_save_failed", "path", s.path, "error", err)
		return
	}
}

// AppendMessage appends a message to the thread for userID, creating the
// thread when absent. The new thread id is one more than the current
// thread count, as a string. Always persists.
func (s *Store) AppendMessage(userID int, m models.StoredMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.threadIndex(userID)
	if idx < 0 {
		t := models.Thread{
			ID:       strconv.Itoa(len(s.data.MessageToAdmin) + 1),
			UserID:   userID,
			Messages: []models.StoredMessage{m},
		}
		s.data.MessageToAdmin = append(s.data.MessageToAdmin, t)
	} else {
		s.data.MessageToAdmin[idx].Messages = append(s.data.MessageToAdmin[idx].Messages, m)
	}
	telemetry.MessageStored()
	s.save()
}

// DeleteMessage removes the first message in the thread for userID whose
// sent_time equals sentTime. A thread left empty is dropped entirely.
// Returns false when no thread exists for userID; persistence happens in
// either remaining case, mirroring the filter-then-save behavior clients
// depend on.
func (s *Store) DeleteMessage(userID int, sentTime int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.threadIndex(userID)
	if idx < 0 {
		return false
	}
	msgs := s.data.MessageToAdmin[idx].Messages
	for i, m := range msgs {
		if m.SentTime == sentTime {
			msgs = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	if len(msgs) == 0 {
		s.data.MessageToAdmin = append(s.data.MessageToAdmin[:idx], s.data.MessageToAdmin[idx+1:]...)
	} else {
		s.data.MessageToAdmin[idx].Messages = msgs
	}
	s.save()
	return true
}

// Messages returns a copy of the thread's messages for userID, oldest
// first. A missing thread yields an empty slice.
func (s *Store) Messages(userID int) []models.StoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.threadIndex(userID)
	if idx < 0 {
		return nil
	}
	out := make([]models.StoredMessage, len(s.data.MessageToAdmin[idx].Messages))
	copy(out, s.data.MessageToAdmin[idx].Messages)
	return out
}

// UserIDs returns the distinct user ids that have at least one thread, as
// decimal strings, in store enumeration order. Used to hydrate the admin
// roster on join.
func (s *Store) UserIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data.MessageToAdmin))
	for _, t := range s.data.MessageToAdmin {
		out = append(out, strconv.Itoa(t.UserID))
	}
	return out
}

// Counts returns the number of threads and total messages.
func (s *Store) Counts() (threads, messages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threads = len(s.data.MessageToAdmin)
	for _, t := range s.data.MessageToAdmin {
		messages += len(t.Messages)
	}
	return threads, messages
}

// Sweep removes every message with sent_time strictly older than cutoff
// (Unix milliseconds) and prunes threads left empty. One full-document
// write covers the whole sweep. Returns the number of removed messages.
func (s *Store) Sweep(cutoff int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	kept := s.data.MessageToAdmin[:0]
	for _, t := range s.data.MessageToAdmin {
		msgs := t.Messages[:0]
		for _, m := range t.Messages {
			if m.SentTime < cutoff {
				removed++
				continue
			}
			msgs = append(msgs, m)
		}
		if len(msgs) == 0 {
			continue
		}
		t.Messages = msgs
		kept = append(kept, t)
	}
	if removed == 0 {
		return 0
	}
	s.data.MessageToAdmin = kept
	s.save()
	return removed
}

// SnapshotJSON serializes the current in-memory store. Diagnostic use;
// the HTTP surface reads the file directly instead.
func (s *Store) SnapshotJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.data)
}

// threadIndex returns the slice index of the thread for userID, or -1.
// Callers hold s.mu.
func (s *Store) threadIndex(userID int) int {
	for i, t := range s.data.MessageToAdmin {
		if t.UserID == userID {
			return i
		}
	}
	return -1
}

// ReadFileFresh re-reads and parses the backing file, bypassing in-memory
// state. The /api/messages endpoint serves exactly what is on disk.
func ReadFileFresh(path string) (*models.StoreFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backing file: %w", err)
	}
	var f models.StoreFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse backing file: %w", err)
	}
	return &f, nil
}
