package records

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	notes  map[int64]*Note
	cards  map[int64]int64
	nextID int64
	// FailUpdate, when set, is consulted before each UpdateNote and may
	// return an error to simulate a failing backend.
	FailUpdate func(note *Note) error
	updates    int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notes:  make(map[int64]*Note),
		cards:  make(map[int64]int64),
		nextID: 1,
	}
}

// AddNote stores a note with the given fields and creates cardCount cards for
// it (at least one). It returns the note id and card ids.
func (m *MemoryStore) AddNote(fields []string, cardCount int) (int64, []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cardCount < 1 {
		cardCount = 1
	}
	now := time.Now().UTC()
	noteID := m.nextID
	m.nextID++
	m.notes[noteID] = &Note{ID: noteID, Fields: append([]string(nil), fields...), CreatedAt: now, UpdatedAt: now}
	cardIDs := make([]int64, 0, cardCount)
	for i := 0; i < cardCount; i++ {
		cardID := m.nextID
		m.nextID++
		m.cards[cardID] = noteID
		cardIDs = append(cardIDs, cardID)
	}
	return noteID, cardIDs
}

// CardIDs returns every card id in ascending order.
func (m *MemoryStore) CardIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.cards))
	for id := range m.cards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Updates reports how many UpdateNote calls succeeded.
func (m *MemoryStore) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

func (m *MemoryStore) NoteIDForCard(_ context.Context, cardID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	noteID, ok := m.cards[cardID]
	if !ok {
		return 0, fmt.Errorf("card %d: %w", cardID, ErrNotFound)
	}
	return noteID, nil
}

func (m *MemoryStore) Note(_ context.Context, noteID int64) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[noteID]
	if !ok {
		return nil, fmt.Errorf("note %d: %w", noteID, ErrNotFound)
	}
	return note.Clone(), nil
}

func (m *MemoryStore) UpdateNote(_ context.Context, note *Note) error {
	if note == nil {
		return fmt.Errorf("update note: nil note")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[note.ID]; !ok {
		return fmt.Errorf("note %d: %w", note.ID, ErrNotFound)
	}
	if m.FailUpdate != nil {
		if err := m.FailUpdate(note); err != nil {
			return err
		}
	}
	stored := note.Clone()
	stored.UpdatedAt = time.Now().UTC()
	m.notes[note.ID] = stored
	m.updates++
	return nil
}
