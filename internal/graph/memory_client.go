package graph

import (
	"context"
	"sync"
)

// AccessMode tells whether a statement ran as a read or a write.
type AccessMode string

const (
	AccessRead  AccessMode = "read"
	AccessWrite AccessMode = "write"
)

// MemoryClient is an in-memory Client used to unit test repositories without
// a running database. Canned results are routed by statement text; each
// statement replays its results in order and then returns empty results.
type MemoryClient struct {
	mu           sync.Mutex
	calls        []ExecutedQuery
	results      map[string][]Result
	failures     map[string]error
	err          error
	connectivity error
}

// ExecutedQuery captures a cypher statement and parameters executed against the graph.
type ExecutedQuery struct {
	Mode   AccessMode
	Query  string
	Params map[string]any
}

// NewMemoryClient instantiates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		results:  make(map[string][]Result),
		failures: make(map[string]error),
	}
}

// On queues results returned by subsequent executions of cypher.
func (m *MemoryClient) On(cypher string, results ...Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[cypher] = append(m.results[cypher], results...)
	return m
}

// FailOn makes every execution of cypher return err.
func (m *MemoryClient) FailOn(cypher string, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[cypher] = err
	return m
}

// WithError configures the client to return the provided error for every statement.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(AccessWrite, cypher, params)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(AccessRead, cypher, params)
}

func (m *MemoryClient) execute(mode AccessMode, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	if err, ok := m.failures[cypher]; ok {
		return Result{}, err
	}

	m.calls = append(m.calls, ExecutedQuery{
		Mode:   mode,
		Query:  cypher,
		Params: cloneMap(params),
	})

	queued := m.results[cypher]
	if len(queued) == 0 {
		return Result{}, nil
	}
	m.results[cypher] = queued[1:]
	return queued[0], nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// Calls returns a snapshot of every executed statement in order.
func (m *MemoryClient) Calls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.calls...)
}

// WriteCalls returns a snapshot of executed write statements.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	return m.callsWithMode(AccessWrite)
}

// ReadCalls returns a snapshot of executed read statements.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	return m.callsWithMode(AccessRead)
}

func (m *MemoryClient) callsWithMode(mode AccessMode) []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ExecutedQuery
	for _, call := range m.calls {
		if call.Mode == mode {
			out = append(out, call)
		}
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
