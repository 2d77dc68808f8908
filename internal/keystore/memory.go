package keystore

import (
	"context"
	"sort"
	"sync"
)

type ownerRecord struct {
	ownerID string
	blob    []byte
}

type shareKey struct {
	fileID      string
	recipientID string
}

// Memory is a Store backed by maps. Values are copied in and out.
type Memory struct {
	mu      sync.RWMutex
	public  map[string][]byte
	private map[string][]byte
	owners  map[string]ownerRecord
	shares  map[shareKey][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		public:  make(map[string][]byte),
		private: make(map[string][]byte),
		owners:  make(map[string]ownerRecord),
		shares:  make(map[shareKey][]byte),
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func (m *Memory) put(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	return nil
}

func (m *Memory) get(ctx context.Context, fn func() ([]byte, bool)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := fn()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(blob), nil
}

func (m *Memory) PutPublicKey(ctx context.Context, identityID string, blob []byte) error {
	return m.put(ctx, func() { m.public[identityID] = clone(blob) })
}

func (m *Memory) GetPublicKey(ctx context.Context, identityID string) ([]byte, error) {
	return m.get(ctx, func() ([]byte, bool) {
		b, ok := m.public[identityID]
		return b, ok
	})
}

func (m *Memory) PutPrivateKey(ctx context.Context, identityID string, blob []byte) error {
	return m.put(ctx, func() { m.private[identityID] = clone(blob) })
}

func (m *Memory) GetPrivateKey(ctx context.Context, identityID string) ([]byte, error) {
	return m.get(ctx, func() ([]byte, bool) {
		b, ok := m.private[identityID]
		return b, ok
	})
}

func (m *Memory) PutOwnerEnvelope(ctx context.Context, fileID, ownerID string, blob []byte) error {
	return m.put(ctx, func() { m.owners[fileID] = ownerRecord{ownerID: ownerID, blob: clone(blob)} })
}

func (m *Memory) GetOwnerEnvelope(ctx context.Context, fileID, ownerID string) ([]byte, error) {
	return m.get(ctx, func() ([]byte, bool) {
		rec, ok := m.owners[fileID]
		if !ok || rec.ownerID != ownerID {
			return nil, false
		}
		return rec.blob, true
	})
}

func (m *Memory) PutSharedEnvelope(ctx context.Context, fileID, recipientID string, blob []byte) error {
	return m.put(ctx, func() { m.shares[shareKey{fileID, recipientID}] = clone(blob) })
}

func (m *Memory) GetSharedEnvelope(ctx context.Context, fileID, recipientID string) ([]byte, error) {
	return m.get(ctx, func() ([]byte, bool) {
		b, ok := m.shares[shareKey{fileID, recipientID}]
		return b, ok
	})
}

func (m *Memory) DeleteSharedEnvelope(ctx context.Context, fileID, recipientID string) (bool, error) {
	var existed bool
	err := m.put(ctx, func() {
		k := shareKey{fileID, recipientID}
		_, existed = m.shares[k]
		delete(m.shares, k)
	})
	return existed, err
}

func (m *Memory) ListRecipients(ctx context.Context, fileID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for k := range m.shares {
		if k.fileID == fileID {
			out = append(out, k.recipientID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
