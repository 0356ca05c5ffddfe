/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package mysql

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/stretchr/testify/require"
)

var privacyItemColumns = []string{"ord", "action", "type", "value", "iq", "message", "presence_in", "presence_out", "probe_only"}

func TestMySQLStorageFetchPrivacyList(t *testing.T) {
	s, mock := newPrivacyMock()

	mock.ExpectQuery("SELECT name, is_default FROM privacy_lists (.+)").
		WithArgs("juliet", "urges").
		WillReturnRows(sqlmock.NewRows([]string{"name", "is_default"}).AddRow("urges", true))

	mock.ExpectQuery("SELECT (.+) FROM privacy_list_items (.+) ORDER BY ord").
		WithArgs("juliet", "urges").
		WillReturnRows(sqlmock.NewRows(privacyItemColumns).
			AddRow(1, "deny", "jid", "romeo@example.org", false, false, false, false, false).
			AddRow(2, "allow", "", "", false, false, false, false, false))

	l, err := s.FetchPrivacyList(context.Background(), "juliet", "urges")
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.NotNil(t, l)
	require.True(t, l.Default)
	require.Equal(t, 2, len(l.Items))
	require.Equal(t, "romeo@example.org", l.Items[0].Value)
}

func TestMySQLStorageFetchPrivacyListNotFound(t *testing.T) {
	s, mock := newPrivacyMock()

	mock.ExpectQuery("SELECT name, is_default FROM privacy_lists (.+)").
		WithArgs("juliet", "nightly").
		WillReturnRows(sqlmock.NewRows([]string{"name", "is_default"}))

	l, err := s.FetchPrivacyList(context.Background(), "juliet", "nightly")
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.Nil(t, l)
}

func TestMySQLStorageFetchDefaultPrivacyList(t *testing.T) {
	s, mock := newPrivacyMock()

	mock.ExpectQuery("SELECT name FROM privacy_lists (.+)").
		WithArgs("juliet", true).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("urges"))

	mock.ExpectQuery("SELECT name, is_default FROM privacy_lists (.+)").
		WithArgs("juliet", "urges").
		WillReturnRows(sqlmock.NewRows([]string{"name", "is_default"}).AddRow("urges", true))

	mock.ExpectQuery("SELECT (.+) FROM privacy_list_items (.+)").
		WithArgs("juliet", "urges").
		WillReturnRows(sqlmock.NewRows(privacyItemColumns).
			AddRow(1, "deny", "", "", false, false, false, true, false))

	l, err := s.FetchDefaultPrivacyList(context.Background(), "juliet")
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.NotNil(t, l)
	require.True(t, l.Items[0].IsInvisibilityShape())
}

func TestMySQLStorageUpsertPrivacyList(t *testing.T) {
	s, mock := newPrivacyMock()

	l := &privacymodel.List{
		Name:    "urges",
		Default: true,
		Items: []privacymodel.Item{
			{Order: 1, Action: "deny", Type: "jid", Value: "romeo@example.org"},
		},
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO privacy_lists (.+) ON DUPLICATE KEY UPDATE (.+)").
		WithArgs("juliet", "urges", true, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE privacy_lists SET is_default = (.+)").
		WithArgs(false, "juliet", "urges").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM privacy_list_items (.+)").
		WithArgs("juliet", "urges").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO privacy_list_items (.+)").
		WithArgs("juliet", "urges", 1, "deny", "jid", "romeo@example.org", false, false, false, false, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpsertPrivacyList(context.Background(), "juliet", l)
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
}

func TestMySQLStorageDeletePrivacyList(t *testing.T) {
	s, mock := newPrivacyMock()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM privacy_list_items (.+)").
		WithArgs("juliet", "urges").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM privacy_lists (.+)").
		WithArgs("juliet", "urges").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{Name: "urges"})
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
}

func TestMySQLStorageFetchRosterItem(t *testing.T) {
	s, mock := newRosterMock()

	mock.ExpectQuery("SELECT (.+) FROM roster_items (.+)").
		WithArgs("juliet", "romeo@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"username", "jid", "name", "subscription", "groups", "ask"}).
			AddRow("juliet", "romeo@example.org", "Romeo", "both", "Loved Ones;Montague", false))

	ri, err := s.FetchRosterItem(context.Background(), "juliet", "romeo@example.org")
	require.Nil(t, mock.ExpectationsWereMet())
	require.Nil(t, err)
	require.NotNil(t, ri)
	require.Equal(t, []string{"Loved Ones", "Montague"}, ri.Groups)
	require.True(t, ri.IsFromItem())
	require.True(t, ri.IsToItem())
}
