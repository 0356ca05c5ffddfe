/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package module

import (
	"context"

	"github.com/ortuman/privacyd/xmpp"
)

// Module represents a privacyd server module.
type Module interface {
	// AssociatedNamespaces returns namespaces associated
	// with this module.
	AssociatedNamespaces() []string
}

// IQHandler represents an IQ handler module.
type IQHandler interface {
	Module

	// MatchesIQ returns whether or not an IQ should be
	// processed by this module.
	MatchesIQ(iq *xmpp.IQ) bool

	// ProcessIQ processes a module IQ taking according actions
	// over the associated stream.
	ProcessIQ(ctx context.Context, iq *xmpp.IQ)
}
