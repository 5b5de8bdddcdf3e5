package fraud

// Store exposes the knowledge base for HTTP handlers.
type Store interface {
	List() []Category
	FindByID(id string) (Category, bool)
	Advice() []Advice
}

// MemoryStore implements Store with in-memory slices. It is immutable after
// construction.
type MemoryStore struct {
	items  []Category
	advice []Advice
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied content.
func NewMemoryStore(items []Category, advice []Advice) *MemoryStore {
	return &MemoryStore{
		items:  append([]Category(nil), items...),
		advice: append([]Advice(nil), advice...),
	}
}

// List returns the categories in document order.
func (s *MemoryStore) List() []Category {
	return append([]Category(nil), s.items...)
}

// FindByID looks up a category by identifier.
func (s *MemoryStore) FindByID(id string) (Category, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Category{}, false
}

// Advice returns the post-incident checklist.
func (s *MemoryStore) Advice() []Advice {
	return append([]Advice(nil), s.advice...)
}
