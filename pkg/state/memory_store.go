package state

import (
	"context"
	"sort"
	"strings"
	"sync"

	langopts "github.com/goliatone/go-langopts"
)

// MemoryStore is an in-memory Store for tests, examples and the CLI. It
// keys records by Ref.Identifier.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	workspace string
	scope     langopts.Scope
	values    langopts.Values
	meta      Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (langopts.Values, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return record.values.Clone(), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, values langopts.Values, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	s.records[key] = memoryRecord{
		workspace: strings.TrimSpace(ref.Workspace),
		scope:     ref.Scope,
		values:    values.Clone(),
		meta:      cloneMeta(meta),
	}
	s.mu.Unlock()
	return cloneMeta(meta), nil
}

// Scopes returns the stored scopes of workspace, weakest first and
// languages sorted.
func (s *MemoryStore) Scopes(_ context.Context, workspace string) ([]langopts.Scope, error) {
	workspace = strings.TrimSpace(workspace)
	if workspace == "" {
		return nil, ErrWorkspaceEmpty
	}
	s.mu.RLock()
	var scopes []langopts.Scope
	for _, record := range s.records {
		if record.workspace == workspace {
			scopes = append(scopes, record.scope)
		}
	}
	s.mu.RUnlock()

	sort.Slice(scopes, func(i, j int) bool {
		if scopes[i].Priority() != scopes[j].Priority() {
			return scopes[i].Priority() < scopes[j].Priority()
		}
		return scopes[i].Language < scopes[j].Language
	})
	return scopes, nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
