// Package storage persists conversations and estimation records as JSON
// files under a data directory, with an append-only JSONL event log.
//
// Layout under the base directory:
//
//	conversations/<id>.json   one file per conversation
//	uploads/<id>/             images attached when a dialog is created
//	estimations/<id>/         images attached to an assessment request
//	conversations.log         JSONL event stream (created, appended, estimated)
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// Sentinel errors for lookups.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEstimationNotFound   = errors.New("estimation not found")
)

// Subdirectory and log file names under the base data directory.
const (
	conversationsDir = "conversations"
	uploadsDir       = "uploads"
	estimationsDir   = "estimations"
	eventLogName     = "conversations.log"
)

// Message is one turn in a conversation.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Conversation is the full persisted state of one tutoring dialog.
type Conversation struct {
	ID             string    `json:"id"`
	CreatedAt      string    `json:"created_at"`
	PromptTemplate string    `json:"prompt_template"`
	Task           string    `json:"task"`
	TaskImage      string    `json:"task_image,omitempty"`
	SolutionImage  string    `json:"solution_image,omitempty"`
	Messages       []Message `json:"messages"`
}

// Metadata is the listing view of a conversation: everything except the
// message bodies.
type Metadata struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	Task         string `json:"task"`
	MessageCount int    `json:"message_count"`
}

// EstimationRecord captures one assessment request and its result.
type EstimationRecord struct {
	Timestamp        string `json:"timestamp"`
	PromptTemplate   string `json:"prompt_template"`
	Prompt           string `json:"prompt"`
	Task             string `json:"task"`
	TaskImage        string `json:"task_image,omitempty"`
	StudentWork      string `json:"student_work"`
	StudentWorkImage string `json:"student_work_image,omitempty"`
	Response         string `json:"response"`
	Score            string `json:"score,omitempty"`
}

// Store reads and writes conversation state under a base directory.
// All file writes are serialized through a mutex; the event log has its
// own lock so logging never blocks conversation writes.
type Store struct {
	baseDir string

	mu    sync.Mutex
	logMu sync.Mutex
}

// New creates the data directory layout and returns a Store.
func New(baseDir string) (*Store, error) {
	for _, dir := range []string{
		filepath.Join(baseDir, conversationsDir),
		filepath.Join(baseDir, uploadsDir),
		filepath.Join(baseDir, estimationsDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

// UploadDir returns the upload directory for a conversation, creating it.
func (s *Store) UploadDir(conversationID string) (string, error) {
	dir := filepath.Join(s.baseDir, uploadsDir, conversationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	return dir, nil
}

// EstimationDir returns the upload directory for an estimation, creating it.
func (s *Store) EstimationDir(estimationID string) (string, error) {
	dir := filepath.Join(s.baseDir, estimationsDir, estimationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating estimation directory: %w", err)
	}
	return dir, nil
}

func (s *Store) conversationPath(id string) string {
	return filepath.Join(s.baseDir, conversationsDir, id+".json")
}

// CreateConversation persists a new conversation and logs the event.
// If c.ID is empty a new ID is generated. CreatedAt is always set here.
func (s *Store) CreateConversation(c *Conversation) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	c.CreatedAt = eventTimestamp(time.Now())
	if c.Messages == nil {
		c.Messages = []Message{}
	}

	if err := s.SaveConversation(c); err != nil {
		return err
	}

	s.appendEvent(map[string]any{
		"event":           "conversation_created",
		"conversation_id": c.ID,
		"timestamp":       c.CreatedAt,
		"task":            c.Task,
		"task_image":      c.TaskImage,
		"solution_image":  c.SolutionImage,
	})

	return nil
}

// LoadConversation reads a conversation by ID.
func (s *Store) LoadConversation(id string) (*Conversation, error) {
	data, err := os.ReadFile(s.conversationPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
		}
		return nil, fmt.Errorf("reading conversation %s: %w", id, err)
	}

	var c Conversation
	if err := sonic.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding conversation %s: %w", id, err)
	}
	return &c, nil
}

// AppendMessage adds one turn to a conversation and logs the event.
// Returns the stored message with its timestamp filled in.
func (s *Store) AppendMessage(id, role, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.LoadConversation(id)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: eventTimestamp(time.Now()),
	}
	c.Messages = append(c.Messages, msg)

	if err := s.writeConversation(c); err != nil {
		return Message{}, err
	}

	s.appendEvent(map[string]any{
		"event":           "message_appended",
		"conversation_id": id,
		"role":            role,
		"content":         content,
		"timestamp":       msg.Timestamp,
	})
	return msg, nil
}

// ListMessages returns the turns of a conversation in order.
func (s *Store) ListMessages(id string) ([]Message, error) {
	c, err := s.LoadConversation(id)
	if err != nil {
		return nil, err
	}
	return c.Messages, nil
}

// ListConversationMetadata returns a summary of every stored conversation,
// newest first. Unreadable files are skipped.
func (s *Store) ListConversationMetadata() ([]Metadata, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, conversationsDir))
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	metas := make([]Metadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		c, err := s.LoadConversation(id)
		if err != nil {
			continue
		}
		metas = append(metas, Metadata{
			ID:           c.ID,
			CreatedAt:    c.CreatedAt,
			Task:         c.Task,
			MessageCount: len(c.Messages),
		})
	}

	// Newest first. Timestamps are ISO 8601, so string order is time order.
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt > metas[j].CreatedAt
	})
	return metas, nil
}

// LoadEstimation finds an assessment record in the event log by ID.
func (s *Store) LoadEstimation(estimationID string) (*EstimationRecord, error) {
	s.logMu.Lock()
	data, err := os.ReadFile(filepath.Join(s.baseDir, eventLogName))
	s.logMu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEstimationNotFound, estimationID)
		}
		return nil, fmt.Errorf("reading event log: %w", err)
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		var entry struct {
			Event        string `json:"event"`
			EstimationID string `json:"estimation_id"`
			EstimationRecord
		}
		if err := sonic.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Event == "estimation" && entry.EstimationID == estimationID {
			rec := entry.EstimationRecord
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEstimationNotFound, estimationID)
}

// LogEstimation appends an assessment record to the event log.
func (s *Store) LogEstimation(estimationID string, rec EstimationRecord) {
	s.appendEvent(map[string]any{
		"event":              "estimation",
		"estimation_id":      estimationID,
		"timestamp":          rec.Timestamp,
		"prompt_template":    rec.PromptTemplate,
		"prompt":             rec.Prompt,
		"task":               rec.Task,
		"task_image":         rec.TaskImage,
		"student_work":       rec.StudentWork,
		"student_work_image": rec.StudentWorkImage,
		"response":           rec.Response,
		"score":              rec.Score,
	})
}

// SaveConversation writes the full conversation state under the store mutex.
func (s *Store) SaveConversation(c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeConversation(c)
}

// writeConversation writes the conversation file. Callers must hold s.mu.
func (s *Store) writeConversation(c *Conversation) error {
	data, err := sonic.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding conversation %s: %w", c.ID, err)
	}
	if err := os.WriteFile(s.conversationPath(c.ID), data, 0o644); err != nil {
		return fmt.Errorf("writing conversation %s: %w", c.ID, err)
	}
	return nil
}

// appendEvent adds one JSONL line to the event log. Log failures are
// swallowed: losing an audit line never fails the request that caused it.
func (s *Store) appendEvent(entry map[string]any) {
	line, err := sonic.Marshal(entry)
	if err != nil {
		return
	}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.baseDir, eventLogName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(append(line, '\n'))
}

// eventTimestamp formats timestamps the way they appear in stored records.
func eventTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}
