package roster

import "context"

// RosterSource yields the authoritative member list of a group.
type RosterSource interface {
	Members(ctx context.Context, group string) ([]string, error)
}

// ActivitySource yields a member's most recent activities, newest first.
type ActivitySource interface {
	RecentActivity(ctx context.Context, name string, count int) ([]Activity, error)
}
