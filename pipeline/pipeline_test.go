/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pipeline

import (
	"context"
	"testing"

	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/module/xep0016"
	"github.com/ortuman/privacyd/module/xep0186"
	"github.com/ortuman/privacyd/module/xep0191"
	"github.com/ortuman/privacyd/router"
	"github.com/ortuman/privacyd/storage/memstorage"
	"github.com/ortuman/privacyd/stream"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
	"github.com/pborman/uuid"
	"github.com/stretchr/testify/require"
)

func setupTest(domain string) (*Pipeline, *router.Router, *memstorage.Storage, *xep0016.Privacy) {
	r, _ := router.New(&router.Config{Hosts: []string{domain}})
	s := memstorage.New()
	priv := xep0016.New(r, s.Privacy(), s.Roster())
	p := New(r, priv, priv, xep0191.New(r, priv), xep0186.New(r, priv))
	return p, r, s, priv
}

func bindSession(r *router.Router, jidStr string) *stream.MockC2S {
	j, _ := jid.NewWithString(jidStr, true)
	stm := stream.NewMockC2S(uuid.New(), j)
	r.Bind(stm)
	return stm
}

func chatMessage(from, to *jid.JID) *xmpp.Message {
	m := xmpp.NewMessageType(uuid.New(), xmpp.ChatType)
	m.SetFromJID(from)
	m.SetToJID(to)
	return m
}

func denyJIDList(value string) *privacymodel.List {
	return &privacymodel.List{
		Name:    "urges",
		Default: true,
		Items: []privacymodel.Item{
			{Order: 1, Action: privacymodel.ActionDeny, Type: privacymodel.TypeJID, Value: value},
		},
	}
}

func TestPipeline_DeliverDeniedInbound(t *testing.T) {
	p, r, s, _ := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")
	romeo := bindSession(r, "romeo@example.org/garden")

	_ = s.UpsertPrivacyList(context.Background(), "juliet", denyJIDList("romeo@example.org"))

	msg := chatMessage(romeo.JID(), juliet.JID())
	require.Nil(t, p.Deliver(context.Background(), msg))

	// denied messages bounce back as service-unavailable
	elem := romeo.ReceiveElement()
	require.Equal(t, "message", elem.Name())
	require.Equal(t, xmpp.ErrorType, elem.Type())
	require.Equal(t, xmpp.ErrServiceUnavailable.Error(), elem.Error().Elements().All()[0].Name())

	// the recipient never sees it: a marker routed afterwards arrives first
	marker := chatMessage(juliet.JID(), juliet.JID())
	_ = r.MustRoute(context.Background(), marker)
	got := juliet.ReceiveElement()
	require.Equal(t, marker.ID(), got.ID())
}

func TestPipeline_DeliverDeniedOutbound(t *testing.T) {
	p, r, s, _ := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")
	_ = bindSession(r, "nurse@example.org/kitchen")

	_ = s.UpsertPrivacyList(context.Background(), "juliet", denyJIDList("nurse@example.org"))

	nurseJID, _ := jid.NewWithString("nurse@example.org", true)
	msg := chatMessage(juliet.JID(), nurseJID)
	require.Nil(t, p.Deliver(context.Background(), msg))

	// the sender's own rules produce not-acceptable with a blocked marker
	elem := juliet.ReceiveElement()
	require.Equal(t, xmpp.ErrorType, elem.Type())
	errEl := elem.Error()
	require.Equal(t, xmpp.ErrNotAcceptable.Error(), errEl.Elements().All()[0].Name())
	require.Equal(t, "cancel", errEl.Attributes().Get("type"))
	require.NotNil(t, errEl.Elements().ChildNamespace("blocked", "urn:xmpp:blocking:errors"))
}

func TestPipeline_DeliverDeniedPresenceAndIQ(t *testing.T) {
	p, r, s, _ := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")
	romeo := bindSession(r, "romeo@example.org/garden")

	_ = s.UpsertPrivacyList(context.Background(), "juliet", denyJIDList("romeo@example.org"))

	// presence denials stay silent
	pr := xmpp.NewPresence(romeo.JID(), juliet.JID().ToBareJID(), xmpp.AvailableType)
	require.Nil(t, p.Deliver(context.Background(), pr))

	// iq denials bounce as service-unavailable
	iq := xmpp.NewIQType(uuid.New(), xmpp.GetType)
	iq.SetFromJID(romeo.JID())
	iq.SetToJID(juliet.JID())
	iq.AppendElement(xmpp.NewElementNamespace("query", "jabber:iq:version"))
	require.Nil(t, p.Deliver(context.Background(), iq))

	elem := romeo.ReceiveElement()
	require.Equal(t, "iq", elem.Name())
	require.Equal(t, xmpp.ErrorType, elem.Type())
	require.Equal(t, xmpp.ErrServiceUnavailable.Error(), elem.Error().Elements().All()[0].Name())
}

func TestPipeline_DeliverAllowed(t *testing.T) {
	p, r, _, _ := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")
	romeo := bindSession(r, "romeo@example.org/garden")

	msg := chatMessage(romeo.JID(), juliet.JID())
	require.Nil(t, p.Deliver(context.Background(), msg))

	elem := juliet.ReceiveElement()
	require.Equal(t, msg.ID(), elem.ID())
}

func TestPipeline_IncomingAdminDispatch(t *testing.T) {
	p, r, _, _ := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")
	j := juliet.JID()

	iq := xmpp.NewIQType(uuid.New(), xmpp.GetType)
	iq.SetFromJID(j)
	iq.SetToJID(j.ToBareJID())
	iq.AppendElement(xmpp.NewElementNamespace("query", "jabber:iq:privacy"))

	require.True(t, p.ProcessIncomingElement(context.Background(), iq))

	elem := juliet.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())
	require.Equal(t, iq.ID(), elem.ID())

	// blocking command dispatch
	iq2 := xmpp.NewIQType(uuid.New(), xmpp.GetType)
	iq2.SetFromJID(j)
	iq2.SetToJID(j.ToBareJID())
	iq2.AppendElement(xmpp.NewElementNamespace("blocklist", "urn:xmpp:blocking"))

	require.True(t, p.ProcessIncomingElement(context.Background(), iq2))
	elem = juliet.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())

	// invisible command dispatch
	iq3 := xmpp.NewIQType(uuid.New(), xmpp.SetType)
	iq3.SetFromJID(j)
	iq3.SetToJID(j.ToBareJID())
	iq3.AppendElement(xmpp.NewElementNamespace("invisible", "urn:xmpp:invisible:0"))

	require.True(t, p.ProcessIncomingElement(context.Background(), iq3))
	elem = juliet.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())
}

func TestPipeline_IncomingDrop(t *testing.T) {
	p, r, s, _ := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")
	romeo := bindSession(r, "romeo@example.org/garden")

	_ = s.UpsertPrivacyList(context.Background(), "juliet", denyJIDList("romeo@example.org"))

	// denied at ingress: consumed with no error reply
	msg := chatMessage(romeo.JID(), juliet.JID())
	require.True(t, p.ProcessIncomingElement(context.Background(), msg))

	marker := chatMessage(juliet.JID(), romeo.JID().ToBareJID())
	_ = r.MustRoute(context.Background(), marker)
	got := romeo.ReceiveElement()
	require.Equal(t, marker.ID(), got.ID())

	// allowed stanzas pass through for regular routing
	ok := chatMessage(juliet.JID(), romeo.JID())
	require.False(t, p.ProcessIncomingElement(context.Background(), ok))
}

func TestPipeline_OutgoingSuppression(t *testing.T) {
	p, r, s, _ := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")

	_ = s.UpsertPrivacyList(context.Background(), "juliet", denyJIDList("nurse@example.org"))

	nurseJID, _ := jid.NewWithString("nurse@example.org", true)
	msg := chatMessage(juliet.JID(), nurseJID)
	require.True(t, p.ProcessOutgoingElement(context.Background(), msg))

	elem := juliet.ReceiveElement()
	require.Equal(t, xmpp.ErrorType, elem.Type())
	require.NotNil(t, elem.Error().Elements().ChildNamespace("blocked", "urn:xmpp:blocking:errors"))

	other := chatMessage(juliet.JID(), juliet.JID().ToBareJID())
	require.False(t, p.ProcessOutgoingElement(context.Background(), other))
}

func TestPipeline_UnregisterStream(t *testing.T) {
	p, r, _, priv := setupTest("example.org")

	juliet := bindSession(r, "juliet@example.org/balcony")
	j := juliet.JID()

	priv.SetActiveList(j, &privacymodel.List{Name: "urges", Items: []privacymodel.Item{
		{Order: 1, Action: privacymodel.ActionDeny},
	}})
	require.NotNil(t, priv.ActiveList(j))

	p.UnregisterStream(j)
	require.Nil(t, priv.ActiveList(j))
}
