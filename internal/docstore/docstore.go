// Package docstore implements the in-memory document store served over MCP.
//
// The store is seeded at construction and holds a fixed set of documents
// for the lifetime of the process. Documents are never deleted; the only
// mutation is Edit, a single in-place substring replacement.
package docstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNotFound indicates the requested document id does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrNoMatch indicates the text to replace does not occur in the
	// document content.
	ErrNoMatch = errors.New("no matching text")
)

// Store is an in-memory mapping of document id to text content.
// List order follows seed insertion order.
//
// All methods are safe for concurrent use, although a single conversation
// drives the store strictly sequentially.
type Store struct {
	mu   sync.RWMutex
	ids  []string
	docs map[string]string
}

// defaultDocuments seeds the reference document set.
var defaultDocuments = []struct {
	id      string
	content string
}{
	{"deposition.md", "This deposition covers the testimony of Angela Smith, P.E."},
	{"report.pdf", "The report details the state of a 20m condenser tower."},
	{"financials.docx", "These financials outline the project's budget and expenditures."},
	{"outlook.pdf", "This document presents the projected future performance of the system."},
	{"plan.md", "The plan outlines the steps for the project's implementation."},
	{"spec.txt", "These specifications define the technical requirements for the equipment."},
}

// New creates a Store seeded with the default reference documents.
func New() *Store {
	s := &Store{docs: make(map[string]string, len(defaultDocuments))}
	for _, d := range defaultDocuments {
		s.ids = append(s.ids, d.id)
		s.docs[d.id] = d.content
	}
	return s
}

// NewWithDocuments creates a Store seeded from docs. Listing order follows
// the order of ids; every id must have an entry in docs.
func NewWithDocuments(ids []string, docs map[string]string) (*Store, error) {
	s := &Store{
		ids:  make([]string, 0, len(ids)),
		docs: make(map[string]string, len(ids)),
	}
	for _, id := range ids {
		content, ok := docs[id]
		if !ok {
			return nil, fmt.Errorf("seed document %q has no content", id)
		}
		s.ids = append(s.ids, id)
		s.docs[id] = content
	}
	return s, nil
}

// List returns all document ids in seed order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Read returns the content of the document with the given id.
func (s *Store) Read(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("doc with id %q: %w", id, ErrNotFound)
	}
	return content, nil
}

// Edit replaces the first occurrence of old in the document's content with
// new. The operation is not idempotent: once old is replaced, a second
// identical call fails with ErrNoMatch.
func (s *Store) Edit(id, old, new string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("doc with id %q: %w", id, ErrNotFound)
	}
	if !strings.Contains(content, old) {
		return fmt.Errorf("text %q not found in doc %q: %w", old, id, ErrNoMatch)
	}
	s.docs[id] = strings.Replace(content, old, new, 1)
	return nil
}
