package model

import (
	"sync"

	"github.com/google/uuid"
)

// IDManager assigns extrinsic identifiers to objects.
type IDManager interface {
	// GetOrCreateID returns the identifier of obj, creating one if needed.
	GetOrCreateID(obj *Object) string
	// SetID assigns id to obj.
	SetID(obj *Object, id string)
	// FindID returns the identifier of obj without creating one.
	FindID(obj *Object) (string, bool)
	// ClearID forgets the identifier of obj and returns it.
	ClearID(obj *Object) (string, bool)
}

// UUIDManager is an IDManager that creates random UUIDs. It is safe for
// concurrent use and may be shared between documents.
type UUIDManager struct {
	mu  sync.Mutex
	ids map[*Object]string
}

var _ IDManager = (*UUIDManager)(nil)

func NewUUIDManager() *UUIDManager {
	return &UUIDManager{ids: make(map[*Object]string)}
}

func (m *UUIDManager) GetOrCreateID(obj *Object) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[obj]; ok {
		return id
	}
	id := uuid.NewString()
	m.ids[obj] = id
	return id
}

func (m *UUIDManager) SetID(obj *Object, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[obj] = id
}

func (m *UUIDManager) FindID(obj *Object) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[obj]
	return id, ok
}

func (m *UUIDManager) ClearID(obj *Object) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[obj]
	delete(m.ids, obj)
	return id, ok
}

// Len returns the number of objects currently holding an identifier.
func (m *UUIDManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}
