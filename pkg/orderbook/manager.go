package orderbook

// Manager holds one book per tradable asset, created lazily.
type Manager struct {
	books  map[string]*Book
	policy SelfTradePolicy
}

func NewManager(policy SelfTradePolicy) *Manager {
	return &Manager{
		books:  make(map[string]*Book),
		policy: policy,
	}
}

func (m *Manager) Book(asset string) *Book {
	book, ok := m.books[asset]
	if !ok {
		book = New(asset, m.policy)
		m.books[asset] = book
	}
	return book
}

// Peek returns the book only if one exists for the asset.
func (m *Manager) Peek(asset string) (*Book, bool) {
	book, ok := m.books[asset]
	return book, ok
}
