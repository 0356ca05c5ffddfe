/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package privacymodel

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ortuman/privacyd/model/rostermodel"
	"github.com/ortuman/privacyd/xmpp"
)

// privacy item actions
const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// privacy item predicate types
const (
	TypeJID          = "jid"
	TypeGroup        = "group"
	TypeSubscription = "subscription"
)

// Item represents a privacy list rule storage entity.
// A zero Type value matches any entity.
type Item struct {
	Order       int
	Action      string
	Type        string
	Value       string
	IQ          bool
	Message     bool
	PresenceIn  bool
	PresenceOut bool
	ProbeOnly   bool
}

// NewItem parses an XML element returning a derived privacy item instance.
func NewItem(elem xmpp.XElement) (*Item, error) {
	if elem.Name() != "item" {
		return nil, fmt.Errorf("invalid item element name: %s", elem.Name())
	}
	it := &Item{}

	orderStr := elem.Attributes().Get("order")
	if len(orderStr) == 0 {
		return nil, errors.New("item 'order' attribute is required")
	}
	order, err := strconv.Atoi(orderStr)
	if err != nil || order < 0 {
		return nil, fmt.Errorf("invalid item 'order' attribute: %s", orderStr)
	}
	it.Order = order

	switch action := elem.Attributes().Get("action"); action {
	case ActionAllow, ActionDeny:
		it.Action = action
	default:
		return nil, fmt.Errorf("unrecognized item 'action' value: %s", action)
	}

	if itemType := elem.Attributes().Get("type"); len(itemType) > 0 {
		value := elem.Attributes().Get("value")
		if len(value) == 0 {
			return nil, errors.New("item 'value' attribute is required when 'type' is present")
		}
		switch itemType {
		case TypeJID, TypeGroup:
			break
		case TypeSubscription:
			switch value {
			case rostermodel.SubscriptionNone, rostermodel.SubscriptionTo,
				rostermodel.SubscriptionFrom, rostermodel.SubscriptionBoth:
				break
			default:
				return nil, fmt.Errorf("unrecognized item subscription value: %s", value)
			}
		default:
			return nil, fmt.Errorf("unrecognized item 'type' value: %s", itemType)
		}
		it.Type = itemType
		it.Value = value
	}

	for _, child := range elem.Elements().All() {
		switch child.Name() {
		case "iq":
			it.IQ = true
		case "message":
			it.Message = true
		case "presence-in":
			it.PresenceIn = true
		case "presence-out":
			it.PresenceOut = true
			if child.Attributes().Get("probe") == "true" {
				it.ProbeOnly = true
			}
		default:
			return nil, fmt.Errorf("unrecognized item child element: %s", child.Name())
		}
	}
	return it, nil
}

// Element returns a privacy item XML element representation.
func (it *Item) Element() xmpp.XElement {
	item := xmpp.NewElementName("item")
	item.SetAttribute("order", strconv.Itoa(it.Order))
	item.SetAttribute("action", it.Action)
	if len(it.Type) > 0 {
		item.SetAttribute("type", it.Type)
		item.SetAttribute("value", it.Value)
	}
	if it.IQ {
		item.AppendElement(xmpp.NewElementName("iq"))
	}
	if it.Message {
		item.AppendElement(xmpp.NewElementName("message"))
	}
	if it.PresenceIn {
		item.AppendElement(xmpp.NewElementName("presence-in"))
	}
	if it.PresenceOut {
		pOut := xmpp.NewElementName("presence-out")
		if it.ProbeOnly {
			pOut.SetAttribute("probe", "true")
		}
		item.AppendElement(pOut)
	}
	return item
}

// MatchesAllStanzas tells whether the item applies to every stanza kind.
func (it *Item) MatchesAllStanzas() bool {
	return !it.IQ && !it.Message && !it.PresenceIn && !it.PresenceOut
}

// IsDeny tells whether the item action is 'deny'.
func (it *Item) IsDeny() bool {
	return it.Action == ActionDeny
}

// IsBlockingShape tells whether the item is the projection of a block
// list entry: a jid deny rule applying to every stanza kind.
func (it *Item) IsBlockingShape() bool {
	return it.Type == TypeJID && it.IsDeny() && it.MatchesAllStanzas()
}

// IsInvisibilityShape tells whether the item is the projection of an
// invisibility toggle: a catch-all deny restricted to outbound presence.
func (it *Item) IsInvisibilityShape() bool {
	return len(it.Type) == 0 && it.IsDeny() && it.PresenceOut &&
		!it.IQ && !it.Message && !it.PresenceIn
}

// IsInvisibilityProbeShape tells whether the item is an invisibility
// projection restricted to presence probes.
func (it *Item) IsInvisibilityProbeShape() bool {
	return it.IsInvisibilityShape() && it.ProbeOnly
}

// DeniesPresenceIn tells whether the item denies inbound presence visibility.
func (it *Item) DeniesPresenceIn() bool {
	return it.IsDeny() && (it.MatchesAllStanzas() || it.PresenceIn)
}

// DeniesPresenceOut tells whether the item denies outbound presence visibility.
func (it *Item) DeniesPresenceOut() bool {
	return it.IsDeny() && (it.MatchesAllStanzas() || (it.PresenceOut && !it.ProbeOnly))
}
