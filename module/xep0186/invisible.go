/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0186

import (
	"context"

	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/module/xep0016"
	"github.com/ortuman/privacyd/router"
	"github.com/ortuman/privacyd/xmpp"
)

const (
	invisibleCommandNamespace  = "urn:xmpp:invisible:0"
	invisibleCommandNamespace1 = "urn:xmpp:invisible:1"
)

// invisibleListName names the transient list auto-created when a session
// turns invisible without a named active list.
const invisibleListName = "invisible"

// Invisible represents an invisible command (XEP-0186) server stream
// module. Invisibility is a session scoped profile expressed by injecting
// an outbound presence deny rule into the session active list.
type Invisible struct {
	router *router.Router
	priv   *xep0016.Privacy
}

// New returns an invisible command IQ handler module.
func New(router *router.Router, priv *xep0016.Privacy) *Invisible {
	return &Invisible{router: router, priv: priv}
}

// AssociatedNamespaces returns namespaces associated
// with invisible command module.
func (x *Invisible) AssociatedNamespaces() []string {
	return []string{invisibleCommandNamespace, invisibleCommandNamespace1}
}

// MatchesIQ returns whether or not an IQ should be
// processed by the invisible command module.
func (x *Invisible) MatchesIQ(iq *xmpp.IQ) bool {
	return iq.IsSet() && matchingChild(iq) != nil
}

// ProcessIQ processes an invisible command IQ taking according actions
// over the associated stream.
func (x *Invisible) ProcessIQ(ctx context.Context, iq *xmpp.IQ) {
	if toJID := iq.ToJID(); !toJID.IsServer() && toJID.Node() != iq.FromJID().Node() {
		x.sendReply(ctx, iq.ForbiddenError())
		return
	}
	cmd := matchingChild(iq)
	switch cmd.Name() {
	case "invisible":
		probe := cmd.Namespace() == invisibleCommandNamespace1 &&
			cmd.Attributes().Get("probe") == "true"
		x.setInvisible(ctx, iq, probe)
	case "visible":
		x.setVisible(ctx, iq)
	}
}

func (x *Invisible) setInvisible(ctx context.Context, iq *xmpp.IQ, probe bool) {
	fromJID := iq.FromJID()

	al := x.priv.ActiveList(fromJID)
	if al != nil {
		// a session already carrying an active list is only affected when
		// that list holds an invisibility rule
		if idx := invisibilityItemIndex(al); idx >= 0 && al.Items[idx].ProbeOnly != probe {
			items := make([]privacymodel.Item, len(al.Items))
			copy(items, al.Items)
			items[idx].ProbeOnly = probe

			nl := al.WithItems(items)
			x.priv.SetActiveList(fromJID, nl)
			x.priv.UpdateList(ctx, fromJID, nl)
		}
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	nl := &privacymodel.List{
		Name:      invisibleListName,
		Transient: true,
		Items: []privacymodel.Item{{
			Order:       1,
			Action:      privacymodel.ActionDeny,
			PresenceOut: true,
			ProbeOnly:   probe,
		}},
	}
	x.priv.SetActiveList(fromJID, nl)
	x.sendReply(ctx, iq.ResultIQ())

	// a session already visible must drop off its subscribers' radar
	if stm := x.router.Stream(fromJID); stm != nil {
		if presence := stm.Presence(); presence != nil && presence.IsAvailable() {
			x.priv.RegeneratePresences(ctx, fromJID, nl)
		}
	}
}

func (x *Invisible) setVisible(ctx context.Context, iq *xmpp.IQ) {
	fromJID := iq.FromJID()

	al := x.priv.ActiveList(fromJID)
	if al == nil {
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	var kept []privacymodel.Item
	for i := range al.Items {
		if !al.Items[i].IsInvisibilityShape() {
			kept = append(kept, al.Items[i])
		}
	}
	if len(kept) == len(al.Items) {
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	if len(kept) == 0 || al.Transient {
		x.priv.SetActiveList(fromJID, nil)
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	nl := al.WithItems(kept)
	x.priv.SetActiveList(fromJID, nl)
	x.priv.UpdateList(ctx, fromJID, nl)
	x.sendReply(ctx, iq.ResultIQ())
	x.priv.PushListChange(ctx, fromJID, nl.Name, nil)
}

func (x *Invisible) sendReply(ctx context.Context, stanza xmpp.Stanza) {
	_ = x.router.MustRoute(ctx, stanza)
}

func matchingChild(iq *xmpp.IQ) xmpp.XElement {
	e := iq.Elements()
	for _, ns := range []string{invisibleCommandNamespace, invisibleCommandNamespace1} {
		if cmd := e.ChildNamespace("invisible", ns); cmd != nil {
			return cmd
		}
		if cmd := e.ChildNamespace("visible", ns); cmd != nil {
			return cmd
		}
	}
	return nil
}

func invisibilityItemIndex(l *privacymodel.List) int {
	for i := range l.Items {
		if l.Items[i].IsInvisibilityShape() {
			return i
		}
	}
	return -1
}
