/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package privacymodel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ortuman/privacyd/xmpp"
)

// List represents a privacy list storage entity.
// Items are kept sorted by ascending order value. A list with no items
// is interpreted by the storage layer as a removal.
type List struct {
	Name      string
	Items     []Item
	Default   bool
	Transient bool
}

// NewListFromElement parses a <list/> XML element returning a derived
// privacy list instance. Parsing fails if any child is not a valid item.
func NewListFromElement(elem xmpp.XElement) (*List, error) {
	if elem.Name() != "list" {
		return nil, fmt.Errorf("invalid list element name: %s", elem.Name())
	}
	name := elem.Attributes().Get("name")
	if len(name) == 0 {
		return nil, errors.New("list 'name' attribute is required")
	}
	l := &List{Name: name}
	for _, child := range elem.Elements().All() {
		it, err := NewItem(child)
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, *it)
	}
	l.sortItems()
	return l, nil
}

// Element returns a privacy list XML element representation.
func (l *List) Element() xmpp.XElement {
	listEl := xmpp.NewElementName("list")
	listEl.SetAttribute("name", l.Name)
	for i := range l.Items {
		listEl.AppendElement(l.Items[i].Element())
	}
	return listEl
}

// IsEmpty tells whether the list holds no items.
func (l *List) IsEmpty() bool {
	return len(l.Items) == 0
}

// WithItems derives a new list value holding a given set of items.
// The receiver is never modified: list bindings are replaced, not mutated.
func (l *List) WithItems(items []Item) *List {
	nl := &List{
		Name:      l.Name,
		Items:     items,
		Default:   l.Default,
		Transient: l.Transient,
	}
	nl.sortItems()
	return nl
}

// WithDefault derives a new list value carrying a given default flag.
func (l *List) WithDefault(def bool) *List {
	nl := &List{
		Name:      l.Name,
		Items:     make([]Item, len(l.Items)),
		Default:   def,
		Transient: l.Transient,
	}
	copy(nl.Items, l.Items)
	return nl
}

func (l *List) sortItems() {
	sort.SliceStable(l.Items, func(i, j int) bool {
		return l.Items[i].Order < l.Items[j].Order
	})
}
