package recordstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store used for tests and the offline demo mode.
type Memory struct {
	mu       sync.RWMutex
	entities map[string]map[int]RawRecord
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entities: make(map[string]map[int]RawRecord)}
}

// List returns copies of all records for the entity ordered by id.
func (m *Memory) List(_ context.Context, entity string) ([]RawRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	table := m.entities[entity]
	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	records := make([]RawRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, cloneRecord(table[id]))
	}
	return records, nil
}

// Get returns a copy of one record or ErrNotFound.
func (m *Memory) Get(_ context.Context, entity string, id int) (RawRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.entities[entity][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(record), nil
}

// Create stores a new record under the given id.
func (m *Memory) Create(_ context.Context, entity string, id int, payload RawRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.entities[entity]
	if !ok {
		table = make(map[int]RawRecord)
		m.entities[entity] = table
	}
	if _, exists := table[id]; exists {
		return fmt.Errorf("create %s %d: id already taken", entity, id)
	}
	record := cloneRecord(payload)
	record["Id"] = id
	table[id] = record
	return nil
}

// Update replaces the payload of an existing record.
func (m *Memory) Update(_ context.Context, entity string, id int, payload RawRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.entities[entity]
	existing, ok := table[id]
	if !ok {
		return ErrNotFound
	}
	for key, value := range payload {
		existing[key] = value
	}
	existing["Id"] = id
	return nil
}

// Delete removes a record and reports whether it existed.
func (m *Memory) Delete(_ context.Context, entity string, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.entities[entity]
	if _, ok := table[id]; !ok {
		return false, nil
	}
	delete(table, id)
	return true, nil
}

// MaxID returns the highest id in use for the entity, 0 when empty.
func (m *Memory) MaxID(_ context.Context, entity string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	max := 0
	for id := range m.entities[entity] {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func cloneRecord(record RawRecord) RawRecord {
	clone := make(RawRecord, len(record))
	for key, value := range record {
		clone[key] = value
	}
	return clone
}
