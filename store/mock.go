package store

import (
	"context"
	"sync"
	"time"

	"github.com/INLOpen/nexusfetch/core"
)

// MockClient is a scriptable in-memory Client used by tests throughout the
// module. Handler receives the query text and decides the response; Delay
// simulates store latency.
type MockClient struct {
	Handler    func(query string) (*core.RowSet, error)
	Delay      time.Duration
	TimeoutVal time.Duration

	mu      sync.Mutex
	queries []string
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) ExecuteQuery(ctx context.Context, query string) (*core.RowSet, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, &core.StoreError{Query: query, Err: ctx.Err()}
		}
	}
	if m.Handler == nil {
		return &core.RowSet{}, nil
	}
	rs, err := m.Handler(query)
	if err != nil {
		if core.IsStoreError(err) {
			return nil, err
		}
		return nil, &core.StoreError{Query: query, Err: err}
	}
	return rs, nil
}

func (m *MockClient) Timeout() time.Duration {
	if m.TimeoutVal > 0 {
		return m.TimeoutVal
	}
	return 60 * time.Second
}

// Queries returns a copy of all query texts seen so far.
func (m *MockClient) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}

// Reset clears the recorded queries.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = nil
}
