// Package idmap tracks which destination number each source entity received.
//
// Numbering is local to a repository, so every mapping is keyed by kind, repository and source
// number. Provisional numbers are pre-assigned before submission so text can be rewritten up
// front; confirmed numbers replace them once the destination reports the real value.
package idmap

import (
	"errors"
	"fmt"
	"sync"
)

// Kind is the entity type a mapping belongs to.
type Kind string

const (
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pull_request"
	KindMilestone   Kind = "milestone"
)

// ErrAlreadyMapped is returned when a confirmed mapping would be replaced.
var ErrAlreadyMapped = errors.New("source entity already mapped")

// Table is a read-only snapshot from source number to destination number.
type Table map[int]int

// Lookup returns the destination number for id.
func (t Table) Lookup(id int) (int, bool) {
	v, ok := t[id]
	return v, ok
}

type key struct {
	kind Kind
	repo string
}

type entry struct {
	dest      int
	confirmed bool
}

// Mapper stores mappings for one migration run.
type Mapper struct {
	mu      sync.RWMutex
	entries map[key]map[int]entry
}

func NewMapper() *Mapper {
	return &Mapper{entries: make(map[key]map[int]entry)}
}

func (m *Mapper) bucket(kind Kind, repo string) map[int]entry {
	k := key{kind: kind, repo: repo}
	b, ok := m.entries[k]
	if !ok {
		b = make(map[int]entry)
		m.entries[k] = b
	}
	return b
}

// Record stores a confirmed mapping. Recording the same pair twice is a no-op; recording a
// different destination for a confirmed source returns ErrAlreadyMapped.
func (m *Mapper) Record(kind Kind, repo string, sourceID, destID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.bucket(kind, repo)
	if e, ok := b[sourceID]; ok && e.confirmed {
		if e.dest == destID {
			return nil
		}
		return fmt.Errorf("%w: %s %s #%d -> #%d (have #%d)", ErrAlreadyMapped, kind, repo, sourceID, destID, e.dest)
	}
	b[sourceID] = entry{dest: destID, confirmed: true}
	return nil
}

// Resolve returns the destination number for a source number. Confirmed mappings win over
// provisional ones.
func (m *Mapper) Resolve(kind Kind, repo string, sourceID int) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key{kind: kind, repo: repo}][sourceID]
	if !ok {
		return 0, false
	}
	return e.dest, true
}

// Confirmed reports whether the source entity has been created on the destination.
func (m *Mapper) Confirmed(kind Kind, repo string, sourceID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key{kind: kind, repo: repo}][sourceID]
	return ok && e.confirmed
}

// Provision pre-assigns destination numbers 1..N in the order of sourceIDs. Source numbers that
// are already confirmed keep their confirmed value. The returned table includes both.
func (m *Mapper) Provision(kind Kind, repo string, sourceIDs []int) Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.bucket(kind, repo)
	table := make(Table, len(sourceIDs))
	for i, id := range sourceIDs {
		if e, ok := b[id]; ok && e.confirmed {
			table[id] = e.dest
			continue
		}
		b[id] = entry{dest: i + 1}
		table[id] = i + 1
	}
	return table
}

// Table returns the confirmed mappings of a kind in a repository.
func (m *Mapper) Table(kind Kind, repo string) Table {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table := make(Table)
	for id, e := range m.entries[key{kind: kind, repo: repo}] {
		if e.confirmed {
			table[id] = e.dest
		}
	}
	return table
}

// Len returns the number of confirmed mappings of a kind in a repository.
func (m *Mapper) Len(kind Kind, repo string) int {
	return len(m.Table(kind, repo))
}
