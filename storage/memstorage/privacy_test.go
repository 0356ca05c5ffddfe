/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package memstorage

import (
	"context"
	"testing"

	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_InsertPrivacyList(t *testing.T) {
	s := New()

	l := &privacymodel.List{
		Name:  "urges",
		Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny, Type: privacymodel.TypeJID, Value: "romeo@example.org"}},
	}
	s.EnableMockedError()
	require.Equal(t, ErrMocked, s.UpsertPrivacyList(context.Background(), "juliet", l))
	s.DisableMockedError()

	require.Nil(t, s.UpsertPrivacyList(context.Background(), "juliet", l))

	lists, err := s.FetchPrivacyLists(context.Background(), "juliet")
	require.Nil(t, err)
	require.Equal(t, 1, len(lists))
	require.Equal(t, "urges", lists[0].Name)
}

func TestMemoryStorage_FetchPrivacyList(t *testing.T) {
	s := New()
	_ = s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{
		Name:  "urges",
		Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny}},
	})

	l, err := s.FetchPrivacyList(context.Background(), "juliet", "urges")
	require.Nil(t, err)
	require.NotNil(t, l)

	l2, err := s.FetchPrivacyList(context.Background(), "juliet", "nightly")
	require.Nil(t, err)
	require.Nil(t, l2)

	// fetched value is a copy
	l.Items[0].Action = privacymodel.ActionAllow
	l3, _ := s.FetchPrivacyList(context.Background(), "juliet", "urges")
	require.Equal(t, privacymodel.ActionDeny, l3.Items[0].Action)
}

func TestMemoryStorage_FetchDefaultPrivacyList(t *testing.T) {
	s := New()
	_ = s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{
		Name:  "urges",
		Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny}},
	})
	dl, err := s.FetchDefaultPrivacyList(context.Background(), "juliet")
	require.Nil(t, err)
	require.Nil(t, dl)

	_ = s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{
		Name:    "nightly",
		Default: true,
		Items:   []privacymodel.Item{{Order: 1, Action: privacymodel.ActionAllow}},
	})
	dl, err = s.FetchDefaultPrivacyList(context.Background(), "juliet")
	require.Nil(t, err)
	require.NotNil(t, dl)
	require.Equal(t, "nightly", dl.Name)
}

func TestMemoryStorage_DeletePrivacyList(t *testing.T) {
	s := New()
	_ = s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{
		Name:  "urges",
		Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny}},
	})

	// empty items means removal
	require.Nil(t, s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{Name: "urges"}))

	l, err := s.FetchPrivacyList(context.Background(), "juliet", "urges")
	require.Nil(t, err)
	require.Nil(t, l)
}
