/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package stream

import (
	"context"

	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
)

// C2S represents a client-to-server XMPP stream.
type C2S interface {
	// ID returns stream identifier.
	ID() string

	// Username returns current stream username.
	Username() string

	// Domain returns current stream domain.
	Domain() string

	// Resource returns current stream resource.
	Resource() string

	// JID returns current user JID.
	JID() *jid.JID

	// Presence returns last received sent presence, or nil if none
	// has been broadcast yet.
	Presence() *xmpp.Presence

	// SetPresence sets the stream last broadcast presence.
	SetPresence(presence *xmpp.Presence)

	// SendElement writes an XMPP element to the stream.
	SendElement(ctx context.Context, elem xmpp.XElement)

	// Disconnect disconnects remote peer by closing the underlying TCP socket connection.
	Disconnect(err error)
}
