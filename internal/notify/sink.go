package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/rosterwatch/internal/roster"
)

// Batch is one delivery: every new activity of a single member from one poll,
// or a free-form announcement when Member is empty.
type Batch struct {
	ID         string            `json:"id"`
	Group      string            `json:"group"`
	Member     string            `json:"member,omitempty"`
	Activities []roster.Activity `json:"activities,omitempty"`
	Content    string            `json:"content"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewBatch builds the batch for a member's new activities. Content is the
// member's formatted lines.
func NewBatch(group string, m *roster.Member, acts []roster.Activity) Batch {
	return Batch{
		ID:         uuid.NewString(),
		Group:      group,
		Member:     m.Name(),
		Activities: acts,
		Content:    m.Format(acts),
		CreatedAt:  time.Now().UTC(),
	}
}

// NewAnnouncement builds a batch carrying a plain message.
func NewAnnouncement(group, text string) Batch {
	return Batch{
		ID:        uuid.NewString(),
		Group:     group,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink delivers batches. Send returns only after the batch is accepted by the
// channel or delivery has definitely failed.
type Sink interface {
	Send(ctx context.Context, b Batch) error
	Name() string
}

// Closer is implemented by sinks that hold a connection.
type Closer interface {
	Close() error
}
