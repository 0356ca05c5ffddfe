/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0016

import (
	"context"
	"fmt"

	"github.com/ortuman/privacyd/log"
	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/model/rostermodel"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
)

// Direction tells whether a stanza is entering or leaving the owner's account.
type Direction int

const (
	// DirectionIncoming applies the owner's list to a stanza addressed to him.
	DirectionIncoming Direction = iota

	// DirectionOutgoing applies the owner's list to a stanza he originated.
	DirectionOutgoing
)

func (d Direction) String() string {
	if d == DirectionIncoming {
		return "in"
	}
	return "out"
}

// DeniedError is returned when a privacy rule denies a stanza, carrying
// the JID whose list produced the verdict.
type DeniedError struct {
	Owner     *jid.JID
	Direction Direction
}

// Error satisfies error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("xep0016: stanza denied by %s privacy list (%s)", e.Owner.String(), e.Direction)
}

// CheckIncoming evaluates the recipient's effective list against a stanza.
func (x *Privacy) CheckIncoming(ctx context.Context, stanza xmpp.Stanza) error {
	return x.checkDirection(ctx, stanza, DirectionIncoming)
}

// CheckOutgoing evaluates the sender's effective list against a stanza.
func (x *Privacy) CheckOutgoing(ctx context.Context, stanza xmpp.Stanza) error {
	return x.checkDirection(ctx, stanza, DirectionOutgoing)
}

// CheckDelivery evaluates both endpoint lists: the recipient's first and,
// if it allowed the stanza, the sender's.
func (x *Privacy) CheckDelivery(ctx context.Context, stanza xmpp.Stanza) error {
	if err := x.checkDirection(ctx, stanza, DirectionIncoming); err != nil {
		return err
	}
	return x.checkDirection(ctx, stanza, DirectionOutgoing)
}

func (x *Privacy) checkDirection(ctx context.Context, stanza xmpp.Stanza, dir Direction) error {
	var owner, other *jid.JID
	switch dir {
	case DirectionIncoming:
		owner, other = stanza.ToJID(), stanza.FromJID()
	default:
		owner, other = stanza.FromJID(), stanza.ToJID()
	}
	if owner == nil || other == nil {
		return nil
	}
	if owner.IsServer() || !x.router.IsLocalHost(owner.Domain()) {
		return nil
	}
	list := x.effectiveList(ctx, owner)
	if list == nil {
		return nil
	}
	if x.evaluateList(ctx, list, stanza, dir, owner, other) {
		return &DeniedError{Owner: owner, Direction: dir}
	}
	return nil
}

// effectiveList resolves the list governing a session: the active binding
// when one is installed, the account default otherwise. Storage failures
// degrade to no list at all.
func (x *Privacy) effectiveList(ctx context.Context, owner *jid.JID) *privacymodel.List {
	if owner.IsFullWithUser() {
		if al := x.cache.activeList(owner.String()); al != nil {
			return al
		}
	}
	dl, err := x.DefaultList(ctx, owner)
	if err != nil {
		log.Error(err)
		return nil
	}
	return dl
}

// evaluateList runs the match engine over a list returning true when the
// stanza must be denied. Items apply in ascending order; the first one
// whose gate and predicate both hold decides.
func (x *Privacy) evaluateList(ctx context.Context, list *privacymodel.List, stanza xmpp.Stanza, dir Direction, owner, other *jid.JID) bool {
	// stanzas between resources of the same account are never filtered
	if owner.ToBareJID().Matches(other.ToBareJID(), jid.MatchesBare) {
		return false
	}
	var ri *rostermodel.Item
	var riFetched bool

	rosterItem := func() *rostermodel.Item {
		if riFetched {
			return ri
		}
		riFetched = true
		item, err := x.rosterRep.FetchRosterItem(ctx, owner.Node(), other.ToBareJID().String())
		if err != nil {
			// an unreachable roster behaves as an empty one
			log.Error(err)
			return nil
		}
		ri = item
		return ri
	}

	for i := range list.Items {
		it := &list.Items[i]

		if !stanzaKindMatches(it, stanza, dir) {
			continue
		}
		// a deliberate directed presence bypasses catch-all filters
		if len(it.Type) == 0 && !it.ProbeOnly && isDirectedPresenceState(stanza, dir) {
			continue
		}
		var matched bool
		switch it.Type {
		case privacymodel.TypeJID:
			matched = jidMatchesValue(other, it.Value)
		case privacymodel.TypeSubscription:
			matched = subscriptionMatchesValue(rosterItem(), it.Value)
		case privacymodel.TypeGroup:
			if item := rosterItem(); item != nil {
				matched = item.InGroup(it.Value)
			}
		default:
			matched = true
		}
		if matched {
			return it.IsDeny()
		}
	}
	return false
}

func stanzaKindMatches(it *privacymodel.Item, stanza xmpp.Stanza, dir Direction) bool {
	if it.MatchesAllStanzas() {
		return true
	}
	switch s := stanza.(type) {
	case *xmpp.IQ:
		return it.IQ
	case *xmpp.Message:
		return it.Message
	case *xmpp.Presence:
		switch dir {
		case DirectionIncoming:
			return it.PresenceIn && (s.IsAvailable() || s.IsUnavailable())
		default:
			if !it.PresenceOut {
				return false
			}
			if it.ProbeOnly {
				return s.IsProbe()
			}
			return s.IsAvailable() || s.IsUnavailable()
		}
	}
	return false
}

func isDirectedPresenceState(stanza xmpp.Stanza, dir Direction) bool {
	if dir != DirectionOutgoing {
		return false
	}
	p, ok := stanza.(*xmpp.Presence)
	if !ok || len(p.To()) == 0 {
		return false
	}
	return p.IsAvailable() || p.IsUnavailable()
}

// jidMatchesValue checks a JID against a rule value, most specific form
// first: full JID, bare JID, domain/resource and bare domain. The order
// is observable whenever values overlap.
func jidMatchesValue(j *jid.JID, value string) bool {
	if j.String() == value {
		return true
	}
	if j.ToBareJID().String() == value {
		return true
	}
	if j.IsFull() && j.Domain()+"/"+j.Resource() == value {
		return true
	}
	return j.Domain() == value
}

// subscriptionMatchesValue compares a rule subscription value against a
// roster item state, masking any pending bits. Contacts absent from the
// roster hold a 'none' subscription.
func subscriptionMatchesValue(ri *rostermodel.Item, value string) bool {
	sub := rostermodel.SubscriptionNone
	if ri != nil {
		switch ri.Subscription {
		case rostermodel.SubscriptionTo, rostermodel.SubscriptionFrom, rostermodel.SubscriptionBoth:
			sub = ri.Subscription
		}
	}
	return sub == value
}
