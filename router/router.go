/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"context"
	"errors"
	"sync"

	"github.com/ortuman/privacyd/log"
	"github.com/ortuman/privacyd/stream"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
)

var (
	// ErrNotAuthenticated will be returned by Route method if
	// destination user is not available at this moment.
	ErrNotAuthenticated = errors.New("router: user not authenticated")

	// ErrResourceNotFound will be returned by Route method
	// if destination resource does not match any of user's available resources.
	ErrResourceNotFound = errors.New("router: resource not found")

	// ErrFailedRemoteConnect will be returned by Route method if
	// destination domain is not a local host. Server-to-server
	// routing is out of this subsystem scope.
	ErrFailedRemoteConnect = errors.New("router: failed remote connection")
)

// DeliverInterceptor gets invoked ahead of any other delivery handling,
// yielding an error when a stanza must not reach its destination.
type DeliverInterceptor interface {
	InterceptDeliver(ctx context.Context, stanza xmpp.Stanza) error
}

// Router represents a local XMPP stanza router.
type Router struct {
	mu           sync.RWMutex
	hosts        map[string]struct{}
	streams      map[string][]stream.C2S
	localStreams map[string]stream.C2S
	interceptor  DeliverInterceptor
}

// New returns a new empty router instance.
func New(config *Config) (*Router, error) {
	r := &Router{
		hosts:        make(map[string]struct{}),
		streams:      make(map[string][]stream.C2S),
		localStreams: make(map[string]stream.C2S),
	}
	for _, h := range config.Hosts {
		r.hosts[h] = struct{}{}
	}
	return r, nil
}

// HostNames returns the list of all configured host names.
func (r *Router) HostNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ret []string
	for n := range r.hosts {
		ret = append(ret, n)
	}
	return ret
}

// IsLocalHost returns true if domain is a local server domain.
func (r *Router) IsLocalHost(domain string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.hosts[domain]
	return ok
}

// SetDeliverInterceptor sets the interceptor consulted before delivering any stanza.
func (r *Router) SetDeliverInterceptor(interceptor DeliverInterceptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interceptor = interceptor
}

// Bind marks a c2s stream as binded.
func (r *Router) Bind(stm stream.C2S) {
	if len(stm.Resource()) == 0 {
		return
	}
	r.mu.Lock()
	r.bind(stm)
	r.localStreams[stm.JID().String()] = stm
	r.mu.Unlock()

	log.Infof("binded c2s stream... (%s/%s)", stm.Username(), stm.Resource())
}

// Unbind unbinds a previously binded c2s stream.
func (r *Router) Unbind(stmJID *jid.JID) {
	if len(stmJID.Resource()) == 0 {
		return
	}
	r.mu.Lock()
	if found := r.unbind(stmJID); !found {
		r.mu.Unlock()
		return
	}
	delete(r.localStreams, stmJID.String())
	r.mu.Unlock()

	log.Infof("unbinded c2s stream... (%s/%s)", stmJID.Node(), stmJID.Resource())
}

// UserStreams returns all streams associated to a user.
func (r *Router) UserStreams(username string) []stream.C2S {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.streams[username]
}

// Stream returns the stream associated to a full JID.
func (r *Router) Stream(j *jid.JID) stream.C2S {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.localStreams[j.String()]
}

// Route routes a stanza applying server rules for handling XML stanzas.
// (https://xmpp.org/rfcs/rfc3921.html#rules)
func (r *Router) Route(ctx context.Context, stanza xmpp.Stanza) error {
	return r.route(ctx, stanza, false)
}

// MustRoute routes a stanza applying server rules for handling XML stanzas
// ignoring the delivery interceptor.
func (r *Router) MustRoute(ctx context.Context, stanza xmpp.Stanza) error {
	return r.route(ctx, stanza, true)
}

func (r *Router) bind(stm stream.C2S) {
	if usrStreams := r.streams[stm.Username()]; usrStreams != nil {
		res := stm.Resource()
		for _, usrStream := range usrStreams {
			if usrStream.Resource() == res {
				return // already binded
			}
		}
		r.streams[stm.Username()] = append(usrStreams, stm)
	} else {
		r.streams[stm.Username()] = []stream.C2S{stm}
	}
}

func (r *Router) unbind(jid *jid.JID) bool {
	found := false
	if usrStreams := r.streams[jid.Node()]; usrStreams != nil {
		res := jid.Resource()
		for i := 0; i < len(usrStreams); i++ {
			if res == usrStreams[i].Resource() {
				usrStreams = append(usrStreams[:i], usrStreams[i+1:]...)
				if len(usrStreams) > 0 {
					r.streams[jid.Node()] = usrStreams
				} else {
					delete(r.streams, jid.Node())
				}
				found = true
				break
			}
		}
	}
	return found
}

func (r *Router) route(ctx context.Context, element xmpp.Stanza, skipInterceptor bool) error {
	toJID := element.ToJID()
	if !skipInterceptor && !toJID.IsServer() {
		r.mu.RLock()
		interceptor := r.interceptor
		r.mu.RUnlock()
		if interceptor != nil {
			if err := interceptor.InterceptDeliver(ctx, element); err != nil {
				return err
			}
		}
	}
	if !r.IsLocalHost(toJID.Domain()) {
		return ErrFailedRemoteConnect
	}
	rcps := r.UserStreams(toJID.Node())
	if len(rcps) == 0 {
		return ErrNotAuthenticated
	}
	if toJID.IsFullWithUser() {
		for _, stm := range rcps {
			if stm.Resource() == toJID.Resource() {
				stm.SendElement(ctx, element)
				return nil
			}
		}
		return ErrResourceNotFound
	}
	switch element.(type) {
	case *xmpp.Message:
		// send to highest priority stream
		stm := rcps[0]
		var highestPriority int8
		if p := stm.Presence(); p != nil {
			highestPriority = p.Priority()
		}
		for i := 1; i < len(rcps); i++ {
			rcp := rcps[i]
			if p := rcp.Presence(); p != nil && p.Priority() > highestPriority {
				stm = rcp
				highestPriority = p.Priority()
			}
		}
		stm.SendElement(ctx, element)

	default:
		// broadcast to all streams
		for _, stm := range rcps {
			stm.SendElement(ctx, element)
		}
	}
	return nil
}
