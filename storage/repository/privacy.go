/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package repository

import (
	"context"

	"github.com/ortuman/privacyd/model/privacymodel"
)

// Privacy defines storage operations for user privacy lists.
type Privacy interface {
	// FetchPrivacyLists retrieves from storage all privacy lists owned by a given user.
	FetchPrivacyLists(ctx context.Context, username string) ([]privacymodel.List, error)

	// FetchPrivacyList retrieves from storage a privacy list entity.
	// A nil value is returned when no list matches the given name.
	FetchPrivacyList(ctx context.Context, username, name string) (*privacymodel.List, error)

	// FetchDefaultPrivacyList retrieves from storage a user default privacy list.
	// A nil value is returned when the user has no default list.
	FetchDefaultPrivacyList(ctx context.Context, username string) (*privacymodel.List, error)

	// UpsertPrivacyList inserts a new privacy list entity into storage,
	// or updates it in case it's been previously inserted.
	// A list with no items removes any previously stored entity.
	UpsertPrivacyList(ctx context.Context, username string, list *privacymodel.List) error
}
