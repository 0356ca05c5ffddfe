/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0016

import (
	"sync"

	"github.com/ortuman/privacyd/model/privacymodel"
)

// noDefaultList is the sentinel record caching a negative default list lookup.
var noDefaultList = &privacymodel.List{}

// listCache holds the effective list bindings of every connected session.
// Active lists are keyed by full JID and live as long as the session;
// default lists are keyed by bare JID and loaded lazily from storage.
// List values are immutable once installed: every mutation swaps in a
// freshly derived value.
type listCache struct {
	mu             sync.RWMutex
	active         map[string]*privacymodel.List
	defaults       map[string]*privacymodel.List
	blockListUsers map[string]struct{}
}

func newListCache() *listCache {
	return &listCache{
		active:         make(map[string]*privacymodel.List),
		defaults:       make(map[string]*privacymodel.List),
		blockListUsers: make(map[string]struct{}),
	}
}

func (c *listCache) activeList(fullJID string) *privacymodel.List {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active[fullJID]
}

func (c *listCache) setActiveList(fullJID string, list *privacymodel.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if list != nil {
		c.active[fullJID] = list
	} else {
		delete(c.active, fullJID)
	}
}

// defaultList returns the cached default list binding along with a flag
// telling whether any binding, including a negative one, was present.
func (c *listCache) defaultList(bareJID string) (*privacymodel.List, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch l := c.defaults[bareJID]; l {
	case nil:
		return nil, false
	case noDefaultList:
		return nil, true
	default:
		return l, true
	}
}

func (c *listCache) setDefaultList(bareJID string, list *privacymodel.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if list != nil {
		c.defaults[bareJID] = list
	} else {
		c.defaults[bareJID] = noDefaultList
	}
}

// listWithName returns the cached active or default binding matching a
// given list name, saving a storage round trip on fetches.
func (c *listCache) listWithName(fullJID, bareJID, name string) *privacymodel.List {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if l := c.active[fullJID]; l != nil && l.Name == name {
		return l
	}
	if l := c.defaults[bareJID]; l != nil && l != noDefaultList && l.Name == name {
		return l
	}
	return nil
}

func (c *listCache) registerBlockListUser(fullJID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockListUsers[fullJID] = struct{}{}
}

func (c *listCache) isBlockListUser(fullJID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blockListUsers[fullJID]
	return ok
}

// evictSession removes every session scoped entry bound to a full JID.
func (c *listCache) evictSession(fullJID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, fullJID)
	delete(c.blockListUsers, fullJID)
}

// evictDefault removes a bare JID default binding, forcing a storage
// reload on next access.
func (c *listCache) evictDefault(bareJID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.defaults, bareJID)
}
