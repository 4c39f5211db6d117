package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/fetchmesh/core"
)

// Entry describes one failed fetch attempt.
type Entry struct {
	ID          string    `json:"id"`
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	OriginalURL string    `json:"original_url"`
	ClientID    string    `json:"client_id,omitempty"`
	Error       string    `json:"error"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Store persists journal entries.
type Store interface {
	Append(entry Entry) error
	Entries() ([]Entry, error)
}

var (
	_ core.Extension      = (*Extension)(nil)
	_ core.FetchDidFailer = (*Extension)(nil)
)

// Extension appends an Entry to its store for every failed fetch. A store
// error is returned from the hook and therefore replaces the fetch error.
type Extension struct {
	store Store
	now   func() time.Time
}

// NewExtension creates a journal extension writing to store.
func NewExtension(store Store) *Extension {
	return &Extension{store: store, now: time.Now}
}

// Name implements core.Extension.
func (e *Extension) Name() string { return "journal" }

// FetchDidFail implements core.FetchDidFailer.
func (e *Extension) FetchDidFail(_ context.Context, p core.FetchDidFailParams) error {
	entry := Entry{
		ID:          uuid.NewString(),
		Method:      p.Request.Method,
		URL:         p.Request.URL.String(),
		OriginalURL: p.OriginalRequest.URL.String(),
		RecordedAt:  e.now(),
	}
	if p.Error != nil {
		entry.Error = p.Error.Error()
	}
	if ev, ok := p.Event.(*core.FetchEvent); ok && ev != nil {
		entry.ClientID = ev.ClientID
	}

	if err := e.store.Append(entry); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}
