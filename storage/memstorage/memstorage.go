/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package memstorage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/model/rostermodel"
	"github.com/ortuman/privacyd/storage/repository"
)

// ErrMocked will be returned by any Storage method
// when mocked error is activated.
var ErrMocked = errors.New("memstorage: mocked error")

// Storage represents an in-memory storage container.
type Storage struct {
	mockErr      uint32
	mu           sync.RWMutex
	privacyLists map[string][]privacymodel.List
	rosterItems  map[string][]rostermodel.Item
}

// New returns a new in-memory storage instance.
func New() *Storage {
	return &Storage{
		privacyLists: make(map[string][]privacymodel.List),
		rosterItems:  make(map[string][]rostermodel.Item),
	}
}

// Privacy returns in-memory privacy list repository.
func (m *Storage) Privacy() repository.Privacy { return m }

// Roster returns in-memory roster repository.
func (m *Storage) Roster() repository.Roster { return m }

// Close shuts down in-memory storage instance.
func (m *Storage) Close(_ context.Context) error { return nil }

// EnableMockedError enables in-memory mocked error.
func (m *Storage) EnableMockedError() {
	atomic.StoreUint32(&m.mockErr, 1)
}

// DisableMockedError disables in-memory mocked error.
func (m *Storage) DisableMockedError() {
	atomic.StoreUint32(&m.mockErr, 0)
}

func (m *Storage) inWriteLock(f func() error) error {
	if atomic.LoadUint32(&m.mockErr) == 1 {
		return ErrMocked
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return f()
}

func (m *Storage) inReadLock(f func() error) error {
	if atomic.LoadUint32(&m.mockErr) == 1 {
		return ErrMocked
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return f()
}
