/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0016

import (
	"context"

	"github.com/ortuman/privacyd/log"
	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/model/rostermodel"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
)

// RegeneratePresences synthesizes unavailable presences for every contact
// a newly effective list hides, so visibility immediately reflects the
// rules. Inbound denials hide the contact from the session owner, outbound
// denials hide the owner from the contact.
func (x *Privacy) RegeneratePresences(ctx context.Context, sessionJID *jid.JID, list *privacymodel.List) {
	var ris []rostermodel.Item
	var risFetched bool

	roster := func() []rostermodel.Item {
		if risFetched {
			return ris
		}
		risFetched = true
		items, err := x.rosterRep.FetchRosterItems(ctx, sessionJID.Node())
		if err != nil {
			// an unreachable roster behaves as an empty one
			log.Error(err)
			return nil
		}
		ris = items
		return ris
	}
	inJIDs := make(map[string]struct{})
	outJIDs := make(map[string]struct{})

	for i := range list.Items {
		it := &list.Items[i]
		if it.DeniesPresenceIn() {
			collectCounterparties(it, roster, rosterItemIsTo, inJIDs)
		}
		if it.DeniesPresenceOut() {
			collectCounterparties(it, roster, rosterItemIsFrom, outJIDs)
		}
	}
	for cp := range inJIDs {
		cpJID, err := jid.NewWithString(cp, true)
		if err != nil {
			continue
		}
		_ = x.router.MustRoute(ctx, xmpp.NewPresence(cpJID, sessionJID, xmpp.UnavailableType))
	}
	for cp := range outJIDs {
		cpJID, err := jid.NewWithString(cp, true)
		if err != nil {
			continue
		}
		_ = x.router.MustRoute(ctx, xmpp.NewPresence(sessionJID, cpJID, xmpp.UnavailableType))
	}
}

func collectCounterparties(it *privacymodel.Item, roster func() []rostermodel.Item, filter func(*rostermodel.Item) bool, into map[string]struct{}) {
	if it.Type == privacymodel.TypeJID {
		into[it.Value] = struct{}{}
		return
	}
	for _, ri := range roster() {
		if !filter(&ri) {
			continue
		}
		var matched bool
		switch it.Type {
		case privacymodel.TypeGroup:
			matched = ri.InGroup(it.Value)
		case privacymodel.TypeSubscription:
			matched = subscriptionMatchesValue(&ri, it.Value)
		default:
			matched = true
		}
		if matched {
			into[ri.ContactJID().ToBareJID().String()] = struct{}{}
		}
	}
}

func rosterItemIsTo(ri *rostermodel.Item) bool   { return ri.IsToItem() }
func rosterItemIsFrom(ri *rostermodel.Item) bool { return ri.IsFromItem() }
