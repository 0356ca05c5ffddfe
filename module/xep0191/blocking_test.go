/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0191

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/module/xep0016"
	"github.com/ortuman/privacyd/router"
	"github.com/ortuman/privacyd/storage/memstorage"
	"github.com/ortuman/privacyd/stream"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
	"github.com/stretchr/testify/require"
)

func setupTest(domain string) (*router.Router, *memstorage.Storage, *xep0016.Privacy) {
	r, _ := router.New(&router.Config{Hosts: []string{domain}})
	s := memstorage.New()
	return r, s, xep0016.New(r, s.Privacy(), s.Roster())
}

func bindSession(r *router.Router, jidStr string) *stream.MockC2S {
	j, _ := jid.NewWithString(jidStr, true)
	stm := stream.NewMockC2S(uuid.New().String(), j)
	r.Bind(stm)
	return stm
}

func newBlockingIQ(from *jid.JID, iqType, childName string) (*xmpp.IQ, *xmpp.Element) {
	iq := xmpp.NewIQType(uuid.New().String(), iqType)
	iq.SetFromJID(from)
	iq.SetToJID(from.ToBareJID())
	child := xmpp.NewElementNamespace(childName, blockingCommandNamespace)
	iq.AppendElement(child)
	return iq, child
}

func itemElement(jidStr string) *xmpp.Element {
	el := xmpp.NewElementName("item")
	el.SetAttribute("jid", jidStr)
	return el
}

func TestXEP0191_Matching(t *testing.T) {
	r, _, priv := setupTest("example.org")
	x := New(r, priv)

	j, _ := jid.NewWithString("juliet@example.org/balcony", true)

	iq := xmpp.NewIQType(uuid.New().String(), xmpp.GetType)
	iq.SetFromJID(j)
	iq.SetToJID(j.ToBareJID())
	require.False(t, x.MatchesIQ(iq))

	iq.AppendElement(xmpp.NewElementNamespace("blocklist", blockingCommandNamespace))
	require.True(t, x.MatchesIQ(iq))

	iq2, _ := newBlockingIQ(j, xmpp.SetType, "block")
	require.True(t, x.MatchesIQ(iq2))

	iq3, _ := newBlockingIQ(j, xmpp.SetType, "unblock")
	require.True(t, x.MatchesIQ(iq3))
}

func TestXEP0191_GetBlockList(t *testing.T) {
	r, s, priv := setupTest("example.org")
	x := New(r, priv)

	stm := bindSession(r, "juliet@example.org/balcony")
	j := stm.JID()

	_ = s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{
		Name:    "block",
		Default: true,
		Items: []privacymodel.Item{
			{Order: 1, Action: privacymodel.ActionDeny, Type: privacymodel.TypeJID, Value: "iago@venice.org"},
			{Order: 2, Action: privacymodel.ActionDeny, PresenceOut: true}, // not blocking shaped
		},
	})
	iq, _ := newBlockingIQ(j, xmpp.GetType, "blocklist")
	x.ProcessIQ(context.Background(), iq)

	elem := stm.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())
	bl := elem.Elements().ChildNamespace("blocklist", blockingCommandNamespace)
	require.NotNil(t, bl)
	items := bl.Elements().Children("item")
	require.Equal(t, 1, len(items))
	require.Equal(t, "iago@venice.org", items[0].Attributes().Get("jid"))
}

func TestXEP0191_Block(t *testing.T) {
	r, s, priv := setupTest("example.org")
	x := New(r, priv)

	stm1 := bindSession(r, "juliet@example.org/balcony")
	stm2 := bindSession(r, "juliet@example.org/chamber")
	nurse := bindSession(r, "nurse@example.org/kitchen")
	j := stm1.JID()

	// the sibling session subscribes to the blocking view
	iqGet, _ := newBlockingIQ(stm2.JID(), xmpp.GetType, "blocklist")
	x.ProcessIQ(context.Background(), iqGet)
	_ = stm2.ReceiveElement()

	iq, block := newBlockingIQ(j, xmpp.SetType, "block")
	block.AppendElement(itemElement("nurse@example.org"))

	x.ProcessIQ(context.Background(), iq)

	elem := stm1.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())

	// blocking shaped push towards the blocklist requesting session
	push := stm2.ReceiveElement()
	require.Equal(t, xmpp.SetType, push.Type())
	require.NotNil(t, push.Elements().ChildNamespace("block", blockingCommandNamespace))

	// the blocked contact sees the account going offline
	p1 := nurse.ReceiveElement()
	require.Equal(t, "presence", p1.Name())
	require.Equal(t, xmpp.UnavailableType, p1.Type())
	p2 := nurse.ReceiveElement()
	require.Equal(t, xmpp.UnavailableType, p2.Type())

	// auto-created default list carries the new rule at the lowest order
	dl, err := priv.DefaultList(context.Background(), j)
	require.Nil(t, err)
	require.NotNil(t, dl)
	require.Equal(t, "block", dl.Name)
	require.Equal(t, 1, len(dl.Items))
	require.True(t, dl.Items[0].IsBlockingShape())
	require.Equal(t, "nurse@example.org", dl.Items[0].Value)

	stored, _ := s.FetchDefaultPrivacyList(context.Background(), "juliet")
	require.NotNil(t, stored)

	// blocking an already blocked JID leaves the list untouched
	iq2, block2 := newBlockingIQ(j, xmpp.SetType, "block")
	block2.AppendElement(itemElement("nurse@example.org"))
	x.ProcessIQ(context.Background(), iq2)
	elem = stm1.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())

	dl, _ = priv.DefaultList(context.Background(), j)
	require.Equal(t, 1, len(dl.Items))
}

func TestXEP0191_BlockErrors(t *testing.T) {
	r, _, priv := setupTest("example.org")
	x := New(r, priv)

	stm := bindSession(r, "juliet@example.org/balcony")
	j := stm.JID()

	// no items
	iq, _ := newBlockingIQ(j, xmpp.SetType, "block")
	x.ProcessIQ(context.Background(), iq)
	elem := stm.ReceiveElement()
	require.Equal(t, xmpp.ErrBadRequest.Error(), elem.Error().Elements().All()[0].Name())

	// malformed jid
	iq2, block := newBlockingIQ(j, xmpp.SetType, "block")
	block.AppendElement(itemElement("romeo@"))
	x.ProcessIQ(context.Background(), iq2)
	elem = stm.ReceiveElement()
	require.Equal(t, xmpp.ErrJidMalformed.Error(), elem.Error().Elements().All()[0].Name())
}

func TestXEP0191_Unblock(t *testing.T) {
	r, _, priv := setupTest("example.org")
	x := New(r, priv)

	stm := bindSession(r, "juliet@example.org/balcony")
	nurse := bindSession(r, "nurse@example.org/kitchen")
	j := stm.JID()

	availablePresence := xmpp.NewPresence(j, j.ToBareJID(), xmpp.AvailableType)
	stm.SetPresence(availablePresence)

	iq, block := newBlockingIQ(j, xmpp.SetType, "block")
	block.AppendElement(itemElement("nurse@example.org"))
	block.AppendElement(itemElement("iago@venice.org"))
	x.ProcessIQ(context.Background(), iq)
	_ = stm.ReceiveElement()
	_ = nurse.ReceiveElement()

	iq2, unblock := newBlockingIQ(j, xmpp.SetType, "unblock")
	unblock.AppendElement(itemElement("nurse@example.org"))
	x.ProcessIQ(context.Background(), iq2)

	elem := stm.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())

	// the unblocked contact sees the account presence again
	p := nurse.ReceiveElement()
	require.Equal(t, "presence", p.Name())
	require.Equal(t, xmpp.AvailableType, p.Type())

	dl, _ := priv.DefaultList(context.Background(), j)
	require.Equal(t, 1, len(dl.Items))
	require.Equal(t, "iago@venice.org", dl.Items[0].Value)

	// unblock with no items strips every remaining entry
	iq3, _ := newBlockingIQ(j, xmpp.SetType, "unblock")
	x.ProcessIQ(context.Background(), iq3)
	elem = stm.ReceiveElement()
	require.Equal(t, xmpp.ResultType, elem.Type())

	dl, _ = priv.DefaultList(context.Background(), j)
	require.Nil(t, dl)
}

func TestXEP0191_UnblockEmptyList(t *testing.T) {
	r, _, priv := setupTest("example.org")
	x := New(r, priv)

	stm := bindSession(r, "juliet@example.org/balcony")
	j := stm.JID()

	iq, unblock := newBlockingIQ(j, xmpp.SetType, "unblock")
	unblock.AppendElement(itemElement("nurse@example.org"))
	x.ProcessIQ(context.Background(), iq)

	elem := stm.ReceiveElement()
	require.Equal(t, xmpp.ErrBadRequest.Error(), elem.Error().Elements().All()[0].Name())
}

func TestXEP0191_PrependOrdering(t *testing.T) {
	nurse, _ := jid.NewWithString("nurse@example.org", true)
	iago, _ := jid.NewWithString("iago@venice.org", true)

	dl := &privacymodel.List{Name: "block", Items: []privacymodel.Item{
		{Order: 5, Action: privacymodel.ActionDeny, Type: privacymodel.TypeJID, Value: "tybalt@capulet.org"},
	}}
	items := prependBlockingItems(dl, []*jid.JID{nurse, iago})
	require.Equal(t, 3, len(items))
	require.Equal(t, "nurse@example.org", items[0].Value)
	require.True(t, items[0].Order < items[2].Order)
	require.Equal(t, 5, items[2].Order)

	// renumbering kicks in when there is no room below
	dl2 := &privacymodel.List{Name: "block", Items: []privacymodel.Item{
		{Order: 0, Action: privacymodel.ActionDeny, Type: privacymodel.TypeJID, Value: "tybalt@capulet.org"},
	}}
	items2 := prependBlockingItems(dl2, []*jid.JID{nurse})
	require.Equal(t, 2, len(items2))
	require.Equal(t, 0, items2[0].Order)
	require.Equal(t, "nurse@example.org", items2[0].Value)
	require.Equal(t, 1, items2[1].Order)
}
