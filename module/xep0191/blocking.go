/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0191

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ortuman/privacyd/log"
	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/module/xep0016"
	"github.com/ortuman/privacyd/router"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
)

const blockingCommandNamespace = "urn:xmpp:blocking"

// BlockedErrorNamespace qualifies the marker element attached when a
// sender's own rules deny an outbound message.
const BlockedErrorNamespace = "urn:xmpp:blocking:errors"

// blockListName names the privacy list auto-created on first block command.
const blockListName = "block"

// BlockingCommand represents a blocking command (XEP-0191) server stream
// module. Block list entries are a flat projection of blocking shaped
// privacy items over the account default list.
type BlockingCommand struct {
	router *router.Router
	priv   *xep0016.Privacy
}

// New returns a blocking command IQ handler module.
func New(router *router.Router, priv *xep0016.Privacy) *BlockingCommand {
	return &BlockingCommand{router: router, priv: priv}
}

// AssociatedNamespaces returns namespaces associated
// with blocking command module.
func (x *BlockingCommand) AssociatedNamespaces() []string {
	return []string{blockingCommandNamespace}
}

// MatchesIQ returns whether or not an IQ should be
// processed by the blocking command module.
func (x *BlockingCommand) MatchesIQ(iq *xmpp.IQ) bool {
	e := iq.Elements()
	blockList := e.ChildNamespace("blocklist", blockingCommandNamespace)
	block := e.ChildNamespace("block", blockingCommandNamespace)
	unblock := e.ChildNamespace("unblock", blockingCommandNamespace)
	return (iq.IsGet() && blockList != nil) || (iq.IsSet() && (block != nil || unblock != nil))
}

// ProcessIQ processes a blocking command IQ taking according actions
// over the associated stream.
func (x *BlockingCommand) ProcessIQ(ctx context.Context, iq *xmpp.IQ) {
	if toJID := iq.ToJID(); !toJID.IsServer() && toJID.Node() != iq.FromJID().Node() {
		x.sendReply(ctx, iq.ForbiddenError())
		return
	}
	if iq.IsGet() {
		x.sendBlockList(ctx, iq)
	} else if iq.IsSet() {
		e := iq.Elements()
		if block := e.ChildNamespace("block", blockingCommandNamespace); block != nil {
			x.block(ctx, iq, block)
		} else if unblock := e.ChildNamespace("unblock", blockingCommandNamespace); unblock != nil {
			x.unblock(ctx, iq, unblock)
		}
	}
}

func (x *BlockingCommand) sendBlockList(ctx context.Context, iq *xmpp.IQ) {
	fromJID := iq.FromJID()

	dl, err := x.priv.DefaultList(ctx, fromJID)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	blockList := xmpp.NewElementNamespace("blocklist", blockingCommandNamespace)
	if dl != nil {
		for i := range dl.Items {
			if !dl.Items[i].IsBlockingShape() {
				continue
			}
			itElem := xmpp.NewElementName("item")
			itElem.SetAttribute("jid", dl.Items[i].Value)
			blockList.AppendElement(itElem)
		}
	}
	reply := iq.ResultIQ()
	reply.AppendElement(blockList)
	x.sendReply(ctx, reply)

	x.priv.RegisterBlockListUser(fromJID)
}

func (x *BlockingCommand) block(ctx context.Context, iq *xmpp.IQ, block xmpp.XElement) {
	items := block.Elements().Children("item")
	if len(items) == 0 {
		x.sendReply(ctx, xmpp.NewErrorStanzaFromStanza(iq, xmpp.ErrBadRequestCancel, nil))
		return
	}
	jds, err := extractItemJIDs(items)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.JidMalformedError())
		return
	}
	fromJID := iq.FromJID()

	dl, err := x.priv.DefaultList(ctx, fromJID)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	if dl == nil {
		dl = &privacymodel.List{Name: blockListName}
	}
	var blocked []*jid.JID
	for _, j := range jds {
		if !isJIDInList(dl, j) {
			blocked = append(blocked, j)
		}
	}
	if len(blocked) > 0 {
		dl = dl.WithItems(prependBlockingItems(dl, blocked))
		x.priv.UpdateDefaultList(ctx, fromJID, dl)
	}
	x.sendReply(ctx, iq.ResultIQ())
	x.priv.PushListChange(ctx, fromJID, dl.Name, block)
	x.broadcastPresences(ctx, fromJID.Node(), blocked, xmpp.UnavailableType)
}

func (x *BlockingCommand) unblock(ctx context.Context, iq *xmpp.IQ, unblock xmpp.XElement) {
	jds, err := extractItemJIDs(unblock.Elements().Children("item"))
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.JidMalformedError())
		return
	}
	fromJID := iq.FromJID()

	dl, err := x.priv.DefaultList(ctx, fromJID)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	if len(jds) > 0 && !hasBlockingItems(dl) {
		x.sendReply(ctx, iq.BadRequestError())
		return
	}
	if dl == nil {
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	var unblocked []*jid.JID
	var kept []privacymodel.Item

	for i := range dl.Items {
		it := dl.Items[i]
		if !it.IsBlockingShape() || !shouldUnblock(&it, jds) {
			kept = append(kept, it)
			continue
		}
		j, _ := jid.NewWithString(it.Value, true)
		unblocked = append(unblocked, j)
	}
	if len(unblocked) > 0 {
		x.priv.UpdateDefaultList(ctx, fromJID, dl.WithItems(kept))
	}
	x.sendReply(ctx, iq.ResultIQ())
	x.priv.PushListChange(ctx, fromJID, dl.Name, unblock)
	x.broadcastPresences(ctx, fromJID.Node(), unblocked, xmpp.AvailableType)
}

// broadcastPresences synthesizes a presence from every bound session of an
// account towards each affected counterparty, so blocked contacts see the
// account going offline and unblocked ones see it coming back.
func (x *BlockingCommand) broadcastPresences(ctx context.Context, username string, jds []*jid.JID, presenceType string) {
	stms := x.router.UserStreams(username)
	for _, stm := range stms {
		for _, j := range jds {
			p := xmpp.NewPresence(stm.JID(), j, presenceType)
			p.SetID(uuid.New().String())
			if presence := stm.Presence(); presence != nil && presenceType == xmpp.AvailableType {
				p.AppendElements(presence.Elements().All())
			}
			_ = x.router.MustRoute(ctx, p)
		}
	}
}

func (x *BlockingCommand) sendReply(ctx context.Context, stanza xmpp.Stanza) {
	_ = x.router.MustRoute(ctx, stanza)
}

func shouldUnblock(it *privacymodel.Item, jds []*jid.JID) bool {
	if len(jds) == 0 {
		return true
	}
	for _, j := range jds {
		if it.Value == j.String() {
			return true
		}
	}
	return false
}

func isJIDInList(l *privacymodel.List, j *jid.JID) bool {
	str := j.String()
	for i := range l.Items {
		if l.Items[i].IsBlockingShape() && l.Items[i].Value == str {
			return true
		}
	}
	return false
}

func hasBlockingItems(l *privacymodel.List) bool {
	if l == nil {
		return false
	}
	for i := range l.Items {
		if l.Items[i].IsBlockingShape() {
			return true
		}
	}
	return false
}

// prependBlockingItems derives a new item sequence holding a blocking
// shaped rule per given JID ahead of every existing rule. Existing items
// get renumbered whenever there is no room below the lowest order.
func prependBlockingItems(dl *privacymodel.List, jds []*jid.JID) []privacymodel.Item {
	n := len(jds)
	items := make([]privacymodel.Item, 0, len(dl.Items)+n)

	lowest := 0
	if len(dl.Items) > 0 {
		lowest = dl.Items[0].Order
	}
	if lowest >= n {
		for i, j := range jds {
			items = append(items, blockingItem(lowest-n+i, j))
		}
		items = append(items, dl.Items...)
		return items
	}
	for i, j := range jds {
		items = append(items, blockingItem(i, j))
	}
	for _, it := range dl.Items {
		it.Order += n
		items = append(items, it)
	}
	return items
}

func blockingItem(order int, j *jid.JID) privacymodel.Item {
	return privacymodel.Item{
		Order:  order,
		Action: privacymodel.ActionDeny,
		Type:   privacymodel.TypeJID,
		Value:  j.String(),
	}
}

func extractItemJIDs(items []xmpp.XElement) ([]*jid.JID, error) {
	var ret []*jid.JID
	for _, item := range items {
		jidStr := item.Attributes().Get("jid")
		if len(jidStr) == 0 {
			return nil, errors.New("xep0191: item 'jid' attribute is required")
		}
		j, err := jid.NewWithString(jidStr, false)
		if err != nil {
			return nil, err
		}
		ret = append(ret, j)
	}
	return ret, nil
}
