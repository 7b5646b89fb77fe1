package outbox

import (
	"encoding/json"
	"time"

	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/google/uuid"
)

// Status tracks a message through the poller. Only the repository moves a row between states.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message carries a committed journal entry to the archive and the ledger events topic
type Message struct {
	ID            int64           `json:"id"`
	EntryID       uuid.UUID       `json:"entry_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewMessage(entry *ledger.JournalEntry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	return &Message{
		EntryID:   entry.ID,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// JournalEntry decodes the entry carried in the payload
func (m *Message) JournalEntry() (*ledger.JournalEntry, error) {
	var entry ledger.JournalEntry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
