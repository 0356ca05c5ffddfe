/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package memstorage

import (
	"context"

	"github.com/ortuman/privacyd/model/rostermodel"
)

// UpsertRosterItem inserts a new roster item entity into storage,
// or updates it in case it's been previously inserted.
func (m *Storage) UpsertRosterItem(_ context.Context, ri *rostermodel.Item) error {
	return m.inWriteLock(func() error {
		ris := m.rosterItems[ri.Username]
		for i, r := range ris {
			if r.JID == ri.JID {
				ris[i] = *ri
				return nil
			}
		}
		m.rosterItems[ri.Username] = append(ris, *ri)
		return nil
	})
}

// FetchRosterItems retrieves from storage all roster item entities
// associated to a given user.
func (m *Storage) FetchRosterItems(_ context.Context, username string) ([]rostermodel.Item, error) {
	var ret []rostermodel.Item
	err := m.inReadLock(func() error {
		ret = append(ret, m.rosterItems[username]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// FetchRosterItem retrieves from storage a roster item entity.
func (m *Storage) FetchRosterItem(_ context.Context, username, jid string) (*rostermodel.Item, error) {
	var ret *rostermodel.Item
	err := m.inReadLock(func() error {
		for _, ri := range m.rosterItems[username] {
			if ri.JID == jid {
				r := ri
				ret = &r
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
