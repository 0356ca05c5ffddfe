/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package storage

import (
	"context"

	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/storage/repository"
	"github.com/sony/gobreaker"
)

type breakerContainer struct {
	repository.Container
	priv *breakerPrivacy
}

func newBreakerContainer(c repository.Container) repository.Container {
	return &breakerContainer{
		Container: c,
		priv: &breakerPrivacy{
			rep: c.Privacy(),
			cb:  gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "privacy"}),
		},
	}
}

func (c *breakerContainer) Privacy() repository.Privacy { return c.priv }

// breakerPrivacy wraps a privacy repository behind a circuit breaker.
// List mutations keep the in-memory view authoritative, so once the
// breaker opens callers fail fast and the running sessions stay consistent.
type breakerPrivacy struct {
	rep repository.Privacy
	cb  *gobreaker.CircuitBreaker
}

func (s *breakerPrivacy) FetchPrivacyLists(ctx context.Context, username string) ([]privacymodel.List, error) {
	lists, err := s.cb.Execute(func() (interface{}, error) {
		return s.rep.FetchPrivacyLists(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return lists.([]privacymodel.List), nil
}

func (s *breakerPrivacy) FetchPrivacyList(ctx context.Context, username, name string) (*privacymodel.List, error) {
	list, err := s.cb.Execute(func() (interface{}, error) {
		return s.rep.FetchPrivacyList(ctx, username, name)
	})
	if err != nil {
		return nil, err
	}
	return list.(*privacymodel.List), nil
}

func (s *breakerPrivacy) FetchDefaultPrivacyList(ctx context.Context, username string) (*privacymodel.List, error) {
	list, err := s.cb.Execute(func() (interface{}, error) {
		return s.rep.FetchDefaultPrivacyList(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return list.(*privacymodel.List), nil
}

func (s *breakerPrivacy) UpsertPrivacyList(ctx context.Context, username string, list *privacymodel.List) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.rep.UpsertPrivacyList(ctx, username, list)
	})
	return err
}
