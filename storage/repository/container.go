/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package repository

import "context"

// Container interface brings together all repository instances.
type Container interface {
	// Privacy method returns repository.Privacy concrete implementation.
	Privacy() Privacy

	// Roster method returns repository.Roster concrete implementation.
	Roster() Roster

	// Close closes underlying storage resources, commonly shared across repositories.
	Close(ctx context.Context) error
}
