/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pipeline

import (
	"context"

	"github.com/ortuman/privacyd/module"
	"github.com/ortuman/privacyd/module/xep0016"
	"github.com/ortuman/privacyd/module/xep0191"
	"github.com/ortuman/privacyd/router"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
)

// Pipeline glues the privacy core to the host routing hook points:
// client ingress, pre-write egress and delivery. It must be registered
// on the router ahead of any other delivery handling.
type Pipeline struct {
	router     *router.Router
	priv       *xep0016.Privacy
	iqHandlers []module.IQHandler
}

// New returns an initialized pipeline instance, hooking it as the
// router delivery interceptor.
func New(router *router.Router, priv *xep0016.Privacy, iqHandlers ...module.IQHandler) *Pipeline {
	p := &Pipeline{
		router:     router,
		priv:       priv,
		iqHandlers: iqHandlers,
	}
	router.SetDeliverInterceptor(p)
	return p
}

// InterceptDeliver satisfies router.DeliverInterceptor, denying delivery
// whenever either endpoint effective list does.
func (p *Pipeline) InterceptDeliver(ctx context.Context, stanza xmpp.Stanza) error {
	return p.priv.CheckDelivery(ctx, stanza)
}

// ProcessIncomingElement handles a stanza read from a client connection.
// Admin IQs addressed to the account itself get dispatched to the
// matching handler module; anything else addressed somewhere gets gated
// by the recipient's effective list. Returns true when the stanza was
// consumed, whether dispatched or dropped.
func (p *Pipeline) ProcessIncomingElement(ctx context.Context, stanza xmpp.Stanza) bool {
	if iq, ok := stanza.(*xmpp.IQ); ok && isSelfAddressed(iq) {
		for _, h := range p.iqHandlers {
			if !h.MatchesIQ(iq) {
				continue
			}
			h.ProcessIQ(ctx, iq)
			return true
		}
	}
	if len(stanza.To()) == 0 {
		return false
	}
	if err := p.priv.CheckIncoming(ctx, stanza); err != nil {
		// denied stanzas die at the ingress hook, silently
		return true
	}
	return false
}

// ProcessOutgoingElement gates a stanza about to be written on behalf of
// a client connection by the sender's effective list. Returns true when
// the write must be suppressed; denial replies follow the usual rules.
func (p *Pipeline) ProcessOutgoingElement(ctx context.Context, stanza xmpp.Stanza) bool {
	if len(stanza.From()) == 0 {
		return false
	}
	err := p.priv.CheckOutgoing(ctx, stanza)
	if err == nil {
		return false
	}
	if denied, ok := err.(*xep0016.DeniedError); ok {
		p.denialReply(ctx, stanza, denied)
	}
	return true
}

// Deliver routes a stanza between two endpoints, both lists consulted.
// A denial is terminal here: the appropriate error reply, if any, is
// emitted and no further delivery handling happens.
func (p *Pipeline) Deliver(ctx context.Context, stanza xmpp.Stanza) error {
	err := p.router.Route(ctx, stanza)
	if denied, ok := err.(*xep0016.DeniedError); ok {
		p.denialReply(ctx, stanza, denied)
		return nil
	}
	return err
}

// UnregisterStream evicts every privacy binding scoped to a closing session.
func (p *Pipeline) UnregisterStream(j *jid.JID) {
	p.priv.UnregisterSession(j)
}

func (p *Pipeline) denialReply(ctx context.Context, stanza xmpp.Stanza, denied *xep0016.DeniedError) {
	switch s := stanza.(type) {
	case *xmpp.Presence:
		break // silent drop

	case *xmpp.Message:
		if s.IsGroupChat() {
			return
		}
		if denied.Direction == xep0016.DirectionOutgoing {
			// the sender's own rules deny the recipient
			blocked := xmpp.NewElementNamespace("blocked", xep0191.BlockedErrorNamespace)
			_ = p.router.MustRoute(ctx, xmpp.NewErrorStanzaFromStanza(s, xmpp.ErrNotAcceptableBlocked, []xmpp.XElement{blocked}))
			return
		}
		_ = p.router.MustRoute(ctx, s.ServiceUnavailableError())

	case *xmpp.IQ:
		if s.IsGet() || s.IsSet() {
			_ = p.router.MustRoute(ctx, s.ServiceUnavailableError())
		}
	}
}

func isSelfAddressed(iq *xmpp.IQ) bool {
	toJID := iq.ToJID()
	if toJID == nil || len(toJID.String()) == 0 || toJID.IsServer() {
		return true
	}
	return toJID.ToBareJID().Matches(iq.FromJID().ToBareJID(), jid.MatchesBare)
}
