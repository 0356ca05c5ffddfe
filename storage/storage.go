/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package storage

import (
	"fmt"

	"github.com/ortuman/privacyd/storage/memstorage"
	"github.com/ortuman/privacyd/storage/mysql"
	"github.com/ortuman/privacyd/storage/pgsql"
	"github.com/ortuman/privacyd/storage/repository"
)

// New initializes a repository container based on a given configuration.
// SQL backed containers get their privacy repository guarded by a circuit
// breaker, so a dead database trips fast instead of stalling every admin
// operation.
func New(config *Config) (repository.Container, error) {
	switch config.Type {
	case Memory:
		return memstorage.New(), nil
	case MySQL:
		c, err := mysql.New(config.MySQL)
		if err != nil {
			return nil, err
		}
		return newBreakerContainer(c), nil
	case PostgreSQL:
		c, err := pgsql.New(config.PgSQL)
		if err != nil {
			return nil, err
		}
		return newBreakerContainer(c), nil
	default:
		return nil, fmt.Errorf("storage.New: unrecognized storage type: %d", config.Type)
	}
}
