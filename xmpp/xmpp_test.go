/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"testing"

	"github.com/ortuman/privacyd/xmpp/jid"
	"github.com/stretchr/testify/require"
)

func TestElement_Build(t *testing.T) {
	el := NewElementNamespace("query", "jabber:iq:privacy")
	require.Equal(t, "query", el.Name())
	require.Equal(t, "jabber:iq:privacy", el.Namespace())

	listEl := NewElementName("list")
	listEl.SetAttribute("name", "urges")
	el.AppendElement(listEl)

	require.Equal(t, 1, el.Elements().Count())
	require.NotNil(t, el.Elements().Child("list"))
	require.Nil(t, el.Elements().Child("active"))
	require.Equal(t, `<query xmlns="jabber:iq:privacy"><list name="urges"/></query>`, el.String())
}

func TestElement_TextEscaping(t *testing.T) {
	el := NewElementName("status")
	el.SetText(`at the <masked> ball & "beyond"`)
	require.Equal(t, `<status>at the &lt;masked&gt; ball &amp; &quot;beyond&quot;</status>`, el.String())
}

func TestIQ_Result(t *testing.T) {
	from, _ := jid.NewWithString("juliet@example.org/balcony", true)
	to, _ := jid.NewWithString("juliet@example.org", true)

	iq := NewIQType("iq-1", SetType)
	iq.SetFromJID(from)
	iq.SetToJID(to)
	require.True(t, iq.IsSet())

	res := iq.ResultIQ()
	require.True(t, res.IsResult())
	require.Equal(t, "iq-1", res.ID())
	require.Equal(t, from.String(), res.ToJID().String())
	require.Equal(t, to.String(), res.FromJID().String())
}

func TestIQ_FromElement(t *testing.T) {
	from, _ := jid.NewWithString("juliet@example.org/balcony", true)
	to, _ := jid.NewWithString("juliet@example.org", true)

	el := NewElementName("iq")
	_, err := NewIQFromElement(el, from, to)
	require.NotNil(t, err) // missing id

	el.SetID("iq-1")
	_, err = NewIQFromElement(el, from, to)
	require.NotNil(t, err) // missing type

	el.SetType(GetType)
	_, err = NewIQFromElement(el, from, to)
	require.NotNil(t, err) // get with no child

	el.AppendElement(NewElementNamespace("query", "jabber:iq:privacy"))
	iq, err := NewIQFromElement(el, from, to)
	require.Nil(t, err)
	require.True(t, iq.IsGet())
}

func TestStanzaError_Element(t *testing.T) {
	from, _ := jid.NewWithString("romeo@example.org/garden", true)
	to, _ := jid.NewWithString("juliet@example.org/balcony", true)

	msg := NewMessageType("msg-1", ChatType)
	msg.SetFromJID(from)
	msg.SetToJID(to)

	errStanza := NewErrorStanzaFromStanza(msg, ErrServiceUnavailable, nil)
	require.Equal(t, ErrorType, errStanza.Type())
	require.Equal(t, from.String(), errStanza.To())
	require.Equal(t, to.String(), errStanza.From())

	errEl := errStanza.Error()
	require.NotNil(t, errEl)
	require.Equal(t, "cancel", errEl.Attributes().Get("type"))
	require.Equal(t, "service-unavailable", errEl.Elements().All()[0].Name())

	blocked := NewElementNamespace("blocked", "urn:xmpp:blocking:errors")
	errStanza2 := NewErrorStanzaFromStanza(msg, ErrNotAcceptableBlocked, []XElement{blocked})
	require.NotNil(t, errStanza2.Error().Elements().ChildNamespace("blocked", "urn:xmpp:blocking:errors"))
}

func TestPresence_Parse(t *testing.T) {
	from, _ := jid.NewWithString("juliet@example.org/balcony", true)
	to, _ := jid.NewWithString("juliet@example.org", true)

	el := NewElementName("presence")
	show := NewElementName("show")
	show.SetText("dnd")
	prio := NewElementName("priority")
	prio.SetText("5")
	el.AppendElement(show)
	el.AppendElement(prio)

	p, err := NewPresenceFromElement(el, from, to)
	require.Nil(t, err)
	require.True(t, p.IsAvailable())
	require.Equal(t, DoNotDisturbShowState, p.ShowState())
	require.Equal(t, int8(5), p.Priority())

	el2 := NewElementName("presence")
	el2.SetType("probe")
	p2, err := NewPresenceFromElement(el2, from, to)
	require.Nil(t, err)
	require.True(t, p2.IsProbe())

	el3 := NewElementName("presence")
	el3.SetType("stalking")
	_, err = NewPresenceFromElement(el3, from, to)
	require.NotNil(t, err)
}

func TestMessage_Types(t *testing.T) {
	from, _ := jid.NewWithString("romeo@example.org/garden", true)
	to, _ := jid.NewWithString("juliet@example.org", true)

	el := NewElementName("message")
	el.SetType(GroupChatType)
	body := NewElementName("body")
	body.SetText("what light through yonder window breaks")
	el.AppendElement(body)

	m, err := NewMessageFromElement(el, from, to)
	require.Nil(t, err)
	require.True(t, m.IsGroupChat())
	require.True(t, m.IsMessageWithBody())

	el.SetType("shout")
	_, err = NewMessageFromElement(el, from, to)
	require.NotNil(t, err)
}
