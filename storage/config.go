/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package storage

import (
	"errors"
	"fmt"

	"github.com/ortuman/privacyd/storage/mysql"
	"github.com/ortuman/privacyd/storage/pgsql"
)

const defaultSQLPoolSize = 16

// Type represents a storage manager type.
type Type int

const (
	// Memory represents an in-memory storage type.
	Memory Type = iota

	// MySQL represents a MySQL storage type.
	MySQL

	// PostgreSQL represents a PostgreSQL storage type.
	PostgreSQL
)

// Config represents a storage manager configuration.
type Config struct {
	Type  Type
	MySQL *mysql.Config
	PgSQL *pgsql.Config
}

type storageProxyType struct {
	Type  string        `yaml:"type"`
	MySQL *mysql.Config `yaml:"mysql"`
	PgSQL *pgsql.Config `yaml:"pgsql"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := storageProxyType{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	switch p.Type {
	case "mysql":
		if p.MySQL == nil {
			return errors.New("storage.Config: couldn't read MySQL configuration")
		}
		c.Type = MySQL

		// assign storage defaults
		c.MySQL = p.MySQL
		if c.MySQL.PoolSize == 0 {
			c.MySQL.PoolSize = defaultSQLPoolSize
		}

	case "pgsql":
		if p.PgSQL == nil {
			return errors.New("storage.Config: couldn't read PostgreSQL configuration")
		}
		c.Type = PostgreSQL

		c.PgSQL = p.PgSQL
		if c.PgSQL.PoolSize == 0 {
			c.PgSQL.PoolSize = defaultSQLPoolSize
		}

	case "memory":
		c.Type = Memory

	case "":
		return errors.New("storage.Config: unspecified storage type")

	default:
		return fmt.Errorf("storage.Config: unrecognized storage type: %s", p.Type)
	}
	return nil
}
