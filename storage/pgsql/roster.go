/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pgsql

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/ortuman/privacyd/model/rostermodel"
)

type pgSQLRoster struct {
	*pgSQLStorage
}

func newRoster(db *sql.DB) *pgSQLRoster {
	return &pgSQLRoster{
		pgSQLStorage: newStorage(db),
	}
}

func (s *pgSQLRoster) FetchRosterItems(ctx context.Context, username string) ([]rostermodel.Item, error) {
	q := sb.Select("username", "jid", "name", "subscription", "groups", "ask").
		From("roster_items").
		Where(sq.Eq{"username": username}).
		OrderBy("created_at DESC")

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRosterItemEntities(rows)
}

func (s *pgSQLRoster) FetchRosterItem(ctx context.Context, username, jid string) (*rostermodel.Item, error) {
	q := sb.Select("username", "jid", "name", "subscription", "groups", "ask").
		From("roster_items").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"jid": jid}})

	var ri rostermodel.Item
	err := scanRosterItemEntity(&ri, q.RunWith(s.db).QueryRowContext(ctx))
	switch err {
	case nil:
		return &ri, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

func scanRosterItemEntity(ri *rostermodel.Item, scanner rowScanner) error {
	var groups pq.StringArray
	if err := scanner.Scan(&ri.Username, &ri.JID, &ri.Name, &ri.Subscription, &groups, &ri.Ask); err != nil {
		return err
	}
	ri.Groups = groups
	return nil
}

func scanRosterItemEntities(scanner rowsScanner) ([]rostermodel.Item, error) {
	var ret []rostermodel.Item
	for scanner.Next() {
		var ri rostermodel.Item
		if err := scanRosterItemEntity(&ri, scanner); err != nil {
			return nil, err
		}
		ret = append(ret, ri)
	}
	return ret, nil
}
