/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package mysql

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/ortuman/privacyd/model/privacymodel"
)

type mySQLPrivacy struct {
	*mySQLStorage
}

func newPrivacy(db *sql.DB) *mySQLPrivacy {
	return &mySQLPrivacy{
		mySQLStorage: newStorage(db),
	}
}

func (s *mySQLPrivacy) FetchPrivacyLists(ctx context.Context, username string) ([]privacymodel.List, error) {
	rows, err := sq.Select("name", "is_default").
		From("privacy_lists").
		Where(sq.Eq{"username": username}).
		OrderBy("name").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ret []privacymodel.List
	for rows.Next() {
		var l privacymodel.List
		if err := rows.Scan(&l.Name, &l.Default); err != nil {
			return nil, err
		}
		ret = append(ret, l)
	}
	for i := range ret {
		items, err := s.fetchListItems(ctx, username, ret[i].Name)
		if err != nil {
			return nil, err
		}
		ret[i].Items = items
	}
	return ret, nil
}

func (s *mySQLPrivacy) FetchPrivacyList(ctx context.Context, username, name string) (*privacymodel.List, error) {
	var l privacymodel.List

	err := sq.Select("name", "is_default").
		From("privacy_lists").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"name": name}}).
		RunWith(s.db).QueryRowContext(ctx).Scan(&l.Name, &l.Default)
	switch err {
	case nil:
		items, err := s.fetchListItems(ctx, username, name)
		if err != nil {
			return nil, err
		}
		l.Items = items
		return &l, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

func (s *mySQLPrivacy) FetchDefaultPrivacyList(ctx context.Context, username string) (*privacymodel.List, error) {
	var name string

	err := sq.Select("name").
		From("privacy_lists").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"is_default": true}}).
		RunWith(s.db).QueryRowContext(ctx).Scan(&name)
	switch err {
	case nil:
		return s.FetchPrivacyList(ctx, username, name)
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

func (s *mySQLPrivacy) UpsertPrivacyList(ctx context.Context, username string, list *privacymodel.List) error {
	return s.inTransaction(ctx, func(tx *sql.Tx) error {
		if list.IsEmpty() {
			return deleteList(ctx, tx, username, list.Name)
		}
		q := sq.Insert("privacy_lists").
			Columns("username", "name", "is_default", "created_at", "updated_at").
			Values(username, list.Name, list.Default, nowExpr, nowExpr).
			Suffix("ON DUPLICATE KEY UPDATE is_default = ?, updated_at = NOW()", list.Default)
		if _, err := q.RunWith(tx).ExecContext(ctx); err != nil {
			return err
		}
		if list.Default {
			_, err := sq.Update("privacy_lists").
				Set("is_default", false).
				Where(sq.And{sq.Eq{"username": username}, sq.NotEq{"name": list.Name}}).
				RunWith(tx).ExecContext(ctx)
			if err != nil {
				return err
			}
		}
		// replace items
		_, err := sq.Delete("privacy_list_items").
			Where(sq.And{sq.Eq{"username": username}, sq.Eq{"list_name": list.Name}}).
			RunWith(tx).ExecContext(ctx)
		if err != nil {
			return err
		}
		for _, it := range list.Items {
			q := sq.Insert("privacy_list_items").
				Columns("username", "list_name", "ord", "action", "type", "value", "iq", "message", "presence_in", "presence_out", "probe_only").
				Values(username, list.Name, it.Order, it.Action, it.Type, it.Value, it.IQ, it.Message, it.PresenceIn, it.PresenceOut, it.ProbeOnly)
			if _, err := q.RunWith(tx).ExecContext(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *mySQLPrivacy) fetchListItems(ctx context.Context, username, name string) ([]privacymodel.Item, error) {
	rows, err := sq.Select("ord", "action", "type", "value", "iq", "message", "presence_in", "presence_out", "probe_only").
		From("privacy_list_items").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"list_name": name}}).
		OrderBy("ord").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanPrivacyItemEntities(rows)
}

func deleteList(ctx context.Context, tx *sql.Tx, username, name string) error {
	_, err := sq.Delete("privacy_list_items").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"list_name": name}}).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return err
	}
	_, err = sq.Delete("privacy_lists").
		Where(sq.And{sq.Eq{"username": username}, sq.Eq{"name": name}}).
		RunWith(tx).ExecContext(ctx)
	return err
}

func scanPrivacyItemEntities(scanner rowsScanner) ([]privacymodel.Item, error) {
	var ret []privacymodel.Item
	for scanner.Next() {
		var it privacymodel.Item
		if err := scanner.Scan(&it.Order, &it.Action, &it.Type, &it.Value, &it.IQ, &it.Message, &it.PresenceIn, &it.PresenceOut, &it.ProbeOnly); err != nil {
			return nil, err
		}
		ret = append(ret, it)
	}
	return ret, nil
}
