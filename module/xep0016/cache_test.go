/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0016

import (
	"context"
	"testing"

	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/xmpp/jid"
	"github.com/stretchr/testify/require"
)

func TestXEP0016_CacheBindings(t *testing.T) {
	c := newListCache()

	l := &privacymodel.List{Name: "urges", Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny}}}

	c.setActiveList("juliet@example.org/balcony", l)
	require.Equal(t, l, c.activeList("juliet@example.org/balcony"))
	require.Nil(t, c.activeList("juliet@example.org/chamber"))

	c.setActiveList("juliet@example.org/balcony", nil)
	require.Nil(t, c.activeList("juliet@example.org/balcony"))

	// negative default lookups are cached distinctly from absent entries
	_, cached := c.defaultList("juliet@example.org")
	require.False(t, cached)

	c.setDefaultList("juliet@example.org", nil)
	dl, cached := c.defaultList("juliet@example.org")
	require.True(t, cached)
	require.Nil(t, dl)

	c.setDefaultList("juliet@example.org", l)
	dl, cached = c.defaultList("juliet@example.org")
	require.True(t, cached)
	require.Equal(t, l, dl)
}

func TestXEP0016_CacheListWithName(t *testing.T) {
	c := newListCache()

	al := &privacymodel.List{Name: "urges", Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny}}}
	dl := &privacymodel.List{Name: "nightly", Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionAllow}}}

	c.setActiveList("juliet@example.org/balcony", al)
	c.setDefaultList("juliet@example.org", dl)

	require.Equal(t, al, c.listWithName("juliet@example.org/balcony", "juliet@example.org", "urges"))
	require.Equal(t, dl, c.listWithName("juliet@example.org/balcony", "juliet@example.org", "nightly"))
	require.Nil(t, c.listWithName("juliet@example.org/balcony", "juliet@example.org", "unknown"))
}

func TestXEP0016_CacheEviction(t *testing.T) {
	c := newListCache()

	l := &privacymodel.List{Name: "urges", Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny}}}
	c.setActiveList("juliet@example.org/balcony", l)
	c.registerBlockListUser("juliet@example.org/balcony")
	c.setDefaultList("juliet@example.org", l)

	c.evictSession("juliet@example.org/balcony")
	require.Nil(t, c.activeList("juliet@example.org/balcony"))
	require.False(t, c.isBlockListUser("juliet@example.org/balcony"))

	// default bindings survive session eviction
	dl, cached := c.defaultList("juliet@example.org")
	require.True(t, cached)
	require.Equal(t, l, dl)

	c.evictDefault("juliet@example.org")
	_, cached = c.defaultList("juliet@example.org")
	require.False(t, cached)
}

func TestXEP0016_DefaultListLazyLoad(t *testing.T) {
	r, s := setupTest("example.org")
	x := New(r, s.Privacy(), s.Roster())

	j, _ := jid.NewWithString("juliet@example.org/balcony", true)

	_ = s.UpsertPrivacyList(context.Background(), "juliet", &privacymodel.List{
		Name: "urges", Default: true, Items: []privacymodel.Item{{Order: 1, Action: privacymodel.ActionDeny}},
	})
	dl, err := x.DefaultList(context.Background(), j)
	require.Nil(t, err)
	require.Equal(t, "urges", dl.Name)

	// served from cache from now on, negative results included
	s.EnableMockedError()
	dl, err = x.DefaultList(context.Background(), j)
	require.Nil(t, err)
	require.NotNil(t, dl)
	s.DisableMockedError()
}
