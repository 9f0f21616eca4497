package roster

import (
	"context"
	"slices"
	"strings"
	"time"
)

// Activity is a single entry from a member's activity feed.
type Activity struct {
	Date    time.Time `json:"date"`
	Text    string    `json:"text"`
	Details string    `json:"details,omitempty"`
}

// Member tracks one group member between polls.
type Member struct {
	name       string
	lastEvent  *time.Time
	errorCount int
	lastErr    error
}

// NewMember creates a member with no watermark. The name is normalized.
func NewMember(name string) *Member {
	return &Member{name: NormalizeName(name)}
}

func (m *Member) Name() string { return m.name }

// LastEvent returns the watermark: the date of the newest activity already
// emitted, or nil when nothing has been observed yet.
func (m *Member) LastEvent() *time.Time {
	if m.lastEvent == nil {
		return nil
	}
	t := *m.lastEvent
	return &t
}

func (m *Member) ErrorCount() int { return m.errorCount }

// LastError is the failure recorded by the most recent unsuccessful fetch.
// It is cleared by a successful fetch.
func (m *Member) LastError() error { return m.lastErr }

// Trackable reports whether the member is still polled. Once errorCount
// reaches limit the member is skipped for as long as it stays on the roster.
func (m *Member) Trackable(limit int) bool {
	return m.errorCount < limit
}

// FetchActivity pulls the member's recent activity window and returns the
// entries newer than the watermark, oldest first. Every failure is absorbed:
// the error count goes up, LastError records why, and nil is returned.
func (m *Member) FetchActivity(ctx context.Context, src ActivitySource, count int) []Activity {
	items, err := src.RecentActivity(ctx, m.name, count)
	if err != nil {
		m.errorCount++
		m.lastErr = err
		return nil
	}
	m.errorCount = 0
	m.lastErr = nil

	fresh := make([]Activity, 0, len(items))
	for _, a := range items {
		if m.lastEvent == nil || a.Date.After(*m.lastEvent) {
			fresh = append(fresh, a)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	slices.SortStableFunc(fresh, func(a, b Activity) int {
		return a.Date.Compare(b.Date)
	})
	newest := fresh[len(fresh)-1].Date
	m.lastEvent = &newest
	return fresh
}

// Format renders activities as "<name>: <text>" lines.
func (m *Member) Format(acts []Activity) string {
	var b strings.Builder
	for i, a := range acts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.name)
		b.WriteString(": ")
		b.WriteString(a.Text)
	}
	return b.String()
}
