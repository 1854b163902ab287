//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../mocks/mock_eventlog_client.go -package=mocks
package eventlog

import "context"

// Filter selects events from the log. Zero-value fields are ignored.
// Refs match chat ids, i.e. a create event's own id or a message's root tag.
type Filter struct {
	IDs   []string
	Kinds []int
	Refs  []string
}

// Client is the append-only log boundary. Implementations may return events
// in any order and may deliver duplicates; consumers replay defensively.
type Client interface {
	Publish(ctx context.Context, e Event) error
	Query(ctx context.Context, f Filter) ([]Event, error)
}
