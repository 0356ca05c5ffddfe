/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package memstorage

import (
	"context"

	"github.com/ortuman/privacyd/model/privacymodel"
)

// FetchPrivacyLists retrieves from storage all privacy lists owned by a given user.
func (m *Storage) FetchPrivacyLists(_ context.Context, username string) ([]privacymodel.List, error) {
	var ret []privacymodel.List
	err := m.inReadLock(func() error {
		for _, l := range m.privacyLists[username] {
			ret = append(ret, *copyList(&l))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// FetchPrivacyList retrieves from storage a privacy list entity.
func (m *Storage) FetchPrivacyList(_ context.Context, username, name string) (*privacymodel.List, error) {
	var ret *privacymodel.List
	err := m.inReadLock(func() error {
		for _, l := range m.privacyLists[username] {
			if l.Name == name {
				ret = copyList(&l)
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

// FetchDefaultPrivacyList retrieves from storage a user default privacy list.
func (m *Storage) FetchDefaultPrivacyList(_ context.Context, username string) (*privacymodel.List, error) {
	var ret *privacymodel.List
	err := m.inReadLock(func() error {
		for _, l := range m.privacyLists[username] {
			if l.Default {
				ret = copyList(&l)
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

// UpsertPrivacyList inserts a new privacy list entity into storage,
// or updates it in case it's been previously inserted.
// A list with no items removes any previously stored entity.
func (m *Storage) UpsertPrivacyList(_ context.Context, username string, list *privacymodel.List) error {
	return m.inWriteLock(func() error {
		lists := m.privacyLists[username]
		if list.Default {
			for i := range lists {
				if lists[i].Name != list.Name {
					lists[i].Default = false
				}
			}
		}
		for i, l := range lists {
			if l.Name != list.Name {
				continue
			}
			if list.IsEmpty() {
				m.privacyLists[username] = append(lists[:i], lists[i+1:]...)
			} else {
				lists[i] = *copyList(list)
			}
			return nil
		}
		if !list.IsEmpty() {
			m.privacyLists[username] = append(lists, *copyList(list))
		}
		return nil
	})
}

func copyList(l *privacymodel.List) *privacymodel.List {
	cp := *l
	cp.Items = make([]privacymodel.Item, len(l.Items))
	copy(cp.Items, l.Items)
	return &cp
}
