/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq" // SQL driver
	"github.com/ortuman/privacyd/log"
	"github.com/ortuman/privacyd/storage/repository"
	"github.com/pkg/errors"
)

// pingInterval defines how often to check the connection.
var pingInterval = 15 * time.Second

// sb is the statement builder bound to PostgreSQL placeholders.
var sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var nowExpr = sq.Expr("NOW()")

// Config represents PostgreSQL storage configuration.
type Config struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	PoolSize int    `yaml:"pool_size"`
}

type rowScanner interface {
	Scan(...interface{}) error
}

type rowsScanner interface {
	rowScanner
	Next() bool
}

type pgSQLStorage struct {
	db *sql.DB
}

func newStorage(db *sql.DB) *pgSQLStorage {
	return &pgSQLStorage{db: db}
}

func (s *pgSQLStorage) inTransaction(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, txErr := s.db.BeginTx(ctx, nil)
	if txErr != nil {
		return txErr
	}
	if err := f(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type pgSQLContainer struct {
	priv   *pgSQLPrivacy
	roster *pgSQLRoster

	h      *sql.DB
	doneCh chan chan bool
}

// New initializes PostgreSQL storage and returns associated container.
func New(cfg *Config) (repository.Container, error) {
	var err error
	c := &pgSQLContainer{doneCh: make(chan chan bool, 1)}

	sslMode := cfg.SSLMode
	if len(sslMode) == 0 {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s", cfg.User, cfg.Password, cfg.Host, cfg.Database, sslMode)
	c.h, err = sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening pgsql connection")
	}
	c.h.SetMaxOpenConns(cfg.PoolSize) // set max opened connection count

	if err := c.h.Ping(); err != nil {
		return nil, errors.Wrap(err, "pinging pgsql server")
	}
	go c.loop()

	c.priv = newPrivacy(c.h)
	c.roster = newRoster(c.h)
	return c, nil
}

func (c *pgSQLContainer) Privacy() repository.Privacy { return c.priv }
func (c *pgSQLContainer) Roster() repository.Roster   { return c.roster }

func (c *pgSQLContainer) Close(ctx context.Context) error {
	ch := make(chan bool)
	c.doneCh <- ch
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *pgSQLContainer) loop() {
	tc := time.NewTicker(pingInterval)
	defer tc.Stop()

	for {
		select {
		case <-tc.C:
			if err := c.h.Ping(); err != nil {
				log.Error(err)
			}
		case ch := <-c.doneCh:
			if err := c.h.Close(); err != nil {
				log.Error(err)
			}
			close(ch)
			return
		}
	}
}
