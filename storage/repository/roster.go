/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package repository

import (
	"context"

	"github.com/ortuman/privacyd/model/rostermodel"
)

// Roster defines read operations over a user's roster.
type Roster interface {
	// FetchRosterItems retrieves from storage all roster item entities
	// associated to a given user.
	FetchRosterItems(ctx context.Context, username string) ([]rostermodel.Item, error)

	// FetchRosterItem retrieves from storage a roster item entity.
	// A nil value is returned when the contact is not present in the roster.
	FetchRosterItem(ctx context.Context, username, jid string) (*rostermodel.Item, error)
}
