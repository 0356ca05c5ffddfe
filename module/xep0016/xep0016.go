/*
 * Copyright (c) 2020 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xep0016

import (
	"context"

	"github.com/ortuman/privacyd/log"
	"github.com/ortuman/privacyd/model/privacymodel"
	"github.com/ortuman/privacyd/router"
	"github.com/ortuman/privacyd/storage/repository"
	"github.com/ortuman/privacyd/xmpp"
	"github.com/ortuman/privacyd/xmpp/jid"
	"github.com/pborman/uuid"
)

const privacyNamespace = "jabber:iq:privacy"

// Privacy represents a privacy lists (XEP-0016) server stream module.
// It owns the effective list cache and the match engine, which the
// blocking command and invisibility modules project themselves onto.
type Privacy struct {
	router    *router.Router
	privRep   repository.Privacy
	rosterRep repository.Roster
	cache     *listCache
}

// New returns a privacy lists IQ handler module.
func New(router *router.Router, privRep repository.Privacy, rosterRep repository.Roster) *Privacy {
	return &Privacy{
		router:    router,
		privRep:   privRep,
		rosterRep: rosterRep,
		cache:     newListCache(),
	}
}

// AssociatedNamespaces returns namespaces associated
// with privacy lists module.
func (x *Privacy) AssociatedNamespaces() []string {
	return []string{privacyNamespace}
}

// MatchesIQ returns whether or not an IQ should be
// processed by the privacy lists module.
func (x *Privacy) MatchesIQ(iq *xmpp.IQ) bool {
	return iq.Elements().ChildNamespace("query", privacyNamespace) != nil
}

// ProcessIQ processes a privacy lists IQ taking according actions
// over the associated stream.
func (x *Privacy) ProcessIQ(ctx context.Context, iq *xmpp.IQ) {
	fromJID := iq.FromJID()
	toJID := iq.ToJID()
	if !toJID.IsServer() && toJID.Node() != fromJID.Node() {
		x.sendReply(ctx, iq.ForbiddenError())
		return
	}
	q := iq.Elements().ChildNamespace("query", privacyNamespace)
	switch {
	case iq.IsGet():
		x.getQuery(ctx, iq, q)
	case iq.IsSet():
		x.setQuery(ctx, iq, q)
	default:
		x.sendReply(ctx, iq.BadRequestError())
	}
}

// UnregisterSession evicts every session scoped binding associated to a
// full JID. It must be invoked upon stream termination.
func (x *Privacy) UnregisterSession(j *jid.JID) {
	x.cache.evictSession(j.String())
}

// ActiveList returns the active list bound to a session, if any.
func (x *Privacy) ActiveList(j *jid.JID) *privacymodel.List {
	return x.cache.activeList(j.String())
}

// SetActiveList binds, replaces or removes a session active list.
func (x *Privacy) SetActiveList(j *jid.JID, list *privacymodel.List) {
	x.cache.setActiveList(j.String(), list)
}

// DefaultList returns the account default list, loading it lazily from
// storage and caching the result, negative lookups included.
func (x *Privacy) DefaultList(ctx context.Context, j *jid.JID) (*privacymodel.List, error) {
	bare := j.ToBareJID().String()
	if dl, ok := x.cache.defaultList(bare); ok {
		return dl, nil
	}
	dl, err := x.privRep.FetchDefaultPrivacyList(ctx, j.Node())
	if err != nil {
		return nil, err
	}
	x.cache.setDefaultList(bare, dl)
	return dl, nil
}

// UpdateDefaultList persists a new account default list value and swaps
// the cached binding. An empty list removes both. Storage write failures
// are logged and otherwise ignored: the in-memory view stays authoritative
// for every connected session.
func (x *Privacy) UpdateDefaultList(ctx context.Context, j *jid.JID, list *privacymodel.List) {
	if list.IsEmpty() {
		if err := x.privRep.UpsertPrivacyList(ctx, j.Node(), &privacymodel.List{Name: list.Name}); err != nil {
			log.Error(err)
		}
		x.cache.setDefaultList(j.ToBareJID().String(), nil)
		return
	}
	dl := list.WithDefault(true)
	if !dl.Transient {
		if err := x.privRep.UpsertPrivacyList(ctx, j.Node(), dl); err != nil {
			log.Error(err)
		}
	}
	x.cache.setDefaultList(j.ToBareJID().String(), dl)
}

// UpdateList persists a list value, skipping transient lists and
// tolerating storage write failures the same way default updates do.
func (x *Privacy) UpdateList(ctx context.Context, j *jid.JID, list *privacymodel.List) {
	if list.Transient {
		return
	}
	if err := x.privRep.UpsertPrivacyList(ctx, j.Node(), list); err != nil {
		log.Error(err)
	}
}

// RegisterBlockListUser marks a session as a blocking command consumer:
// from now on list change notifications take blocking shape.
func (x *Privacy) RegisterBlockListUser(j *jid.JID) {
	x.cache.registerBlockListUser(j.String())
}

// PushListChange notifies every other session of the actor's account that
// a list mutated. Sessions that queried the block list receive the original
// blocking payload; the rest receive a privacy list name push.
func (x *Privacy) PushListChange(ctx context.Context, actor *jid.JID, listName string, blockingPayload xmpp.XElement) {
	stms := x.router.UserStreams(actor.Node())
	for _, stm := range stms {
		if stm.JID().String() == actor.String() {
			continue
		}
		pushIQ := xmpp.NewIQType(uuid.New(), xmpp.SetType)
		if blockingPayload != nil && x.cache.isBlockListUser(stm.JID().String()) {
			pushIQ.AppendElement(blockingPayload)
		} else {
			query := xmpp.NewElementNamespace("query", privacyNamespace)
			listEl := xmpp.NewElementName("list")
			listEl.SetAttribute("name", listName)
			query.AppendElement(listEl)
			pushIQ.AppendElement(query)
		}
		stm.SendElement(ctx, pushIQ)
	}
}

func (x *Privacy) getQuery(ctx context.Context, iq *xmpp.IQ, q xmpp.XElement) {
	lists := q.Elements().Children("list")
	switch {
	case q.Elements().Count() == 0:
		x.enumerateLists(ctx, iq)

	case len(lists) == 1 && q.Elements().Count() == 1:
		x.fetchList(ctx, iq, lists[0].Attributes().Get("name"))

	default:
		x.sendReply(ctx, iq.BadRequestError())
	}
}

func (x *Privacy) enumerateLists(ctx context.Context, iq *xmpp.IQ) {
	fromJID := iq.FromJID()

	lists, err := x.privRep.FetchPrivacyLists(ctx, fromJID.Node())
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	dl, err := x.DefaultList(ctx, fromJID)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	query := xmpp.NewElementNamespace("query", privacyNamespace)
	if al := x.cache.activeList(fromJID.String()); al != nil {
		active := xmpp.NewElementName("active")
		active.SetAttribute("name", al.Name)
		query.AppendElement(active)
	}
	if dl != nil {
		def := xmpp.NewElementName("default")
		def.SetAttribute("name", dl.Name)
		query.AppendElement(def)
	}
	for i := range lists {
		listEl := xmpp.NewElementName("list")
		listEl.SetAttribute("name", lists[i].Name)
		query.AppendElement(listEl)
	}
	res := iq.ResultIQ()
	res.AppendElement(query)
	x.sendReply(ctx, res)
}

func (x *Privacy) fetchList(ctx context.Context, iq *xmpp.IQ, name string) {
	if len(name) == 0 {
		x.sendReply(ctx, iq.BadRequestError())
		return
	}
	l, err := x.resolveList(ctx, iq.FromJID(), name)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	if l == nil {
		x.sendReply(ctx, iq.ItemNotFoundError())
		return
	}
	query := xmpp.NewElementNamespace("query", privacyNamespace)
	query.AppendElement(l.Element())

	res := iq.ResultIQ()
	res.AppendElement(query)
	x.sendReply(ctx, res)
}

func (x *Privacy) setQuery(ctx context.Context, iq *xmpp.IQ, q xmpp.XElement) {
	if q.Elements().Count() != 1 {
		x.sendReply(ctx, iq.BadRequestError())
		return
	}
	child := q.Elements().All()[0]
	switch child.Name() {
	case "active":
		x.setActive(ctx, iq, child)
	case "default":
		x.setDefault(ctx, iq, child)
	case "list":
		x.setList(ctx, iq, child)
	default:
		x.sendReply(ctx, iq.BadRequestError())
	}
}

func (x *Privacy) setActive(ctx context.Context, iq *xmpp.IQ, active xmpp.XElement) {
	fromJID := iq.FromJID()

	name := active.Attributes().Get("name")
	if len(name) == 0 {
		// deactivate
		x.cache.setActiveList(fromJID.String(), nil)
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	l, err := x.resolveList(ctx, fromJID, name)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	if l == nil {
		x.sendReply(ctx, iq.ItemNotFoundError())
		return
	}
	x.cache.setActiveList(fromJID.String(), l)
	x.sendReply(ctx, iq.ResultIQ())
}

func (x *Privacy) setDefault(ctx context.Context, iq *xmpp.IQ, def xmpp.XElement) {
	fromJID := iq.FromJID()
	name := def.Attributes().Get("name")

	cur, err := x.DefaultList(ctx, fromJID)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	var curName string
	if cur != nil {
		curName = cur.Name
	}
	if name == curName {
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	// the change conflicts when another session is relying on the
	// current default
	if cur != nil && x.otherSessionUsesDefault(fromJID) {
		x.sendReply(ctx, iq.ConflictError())
		return
	}
	if len(name) == 0 {
		// detach default
		if cur != nil && !cur.Transient {
			if err := x.privRep.UpsertPrivacyList(ctx, fromJID.Node(), cur.WithDefault(false)); err != nil {
				log.Error(err)
			}
		}
		x.cache.setDefaultList(fromJID.ToBareJID().String(), nil)
		x.sendReply(ctx, iq.ResultIQ())
		return
	}
	l, err := x.resolveList(ctx, fromJID, name)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	if l == nil {
		x.sendReply(ctx, iq.ItemNotFoundError())
		return
	}
	x.UpdateDefaultList(ctx, fromJID, l)
	x.sendReply(ctx, iq.ResultIQ())
}

func (x *Privacy) setList(ctx context.Context, iq *xmpp.IQ, listEl xmpp.XElement) {
	name := listEl.Attributes().Get("name")
	if len(name) == 0 {
		x.sendReply(ctx, iq.BadRequestError())
		return
	}
	if listEl.Elements().Count() == 0 {
		x.removeList(ctx, iq, name)
		return
	}
	l, err := privacymodel.NewListFromElement(listEl)
	if err != nil {
		// no partial updates on malformed items
		x.sendReply(ctx, xmpp.NewErrorStanzaFromStanza(iq, xmpp.ErrBadRequestCancel, nil))
		return
	}
	fromJID := iq.FromJID()

	cur, err := x.DefaultList(ctx, fromJID)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	isDefault := cur != nil && cur.Name == name
	l.Default = isDefault

	if err := x.privRep.UpsertPrivacyList(ctx, fromJID.Node(), l); err != nil {
		log.Error(err) // cache stays authoritative
	}
	if isDefault {
		x.cache.setDefaultList(fromJID.ToBareJID().String(), l)
	}
	// swap any session binding holding the replaced list
	coincidesWithActive := false
	for _, stm := range x.router.UserStreams(fromJID.Node()) {
		sessJID := stm.JID().String()
		if al := x.cache.activeList(sessJID); al != nil && al.Name == name {
			x.cache.setActiveList(sessJID, l)
			if sessJID == fromJID.String() {
				coincidesWithActive = true
			}
		}
	}
	x.sendReply(ctx, iq.ResultIQ())
	x.PushListChange(ctx, fromJID, name, nil)

	if isDefault || coincidesWithActive {
		x.RegeneratePresences(ctx, fromJID, l)
	}
}

func (x *Privacy) removeList(ctx context.Context, iq *xmpp.IQ, name string) {
	fromJID := iq.FromJID()

	cur, err := x.DefaultList(ctx, fromJID)
	if err != nil {
		log.Error(err)
		x.sendReply(ctx, iq.ServiceUnavailableError())
		return
	}
	isDefault := cur != nil && cur.Name == name

	for _, stm := range x.router.UserStreams(fromJID.Node()) {
		sessJID := stm.JID().String()
		if sessJID == fromJID.String() {
			continue
		}
		al := x.cache.activeList(sessJID)
		if al != nil && al.Name == name {
			x.sendReply(ctx, iq.ConflictError())
			return
		}
		if al == nil && isDefault {
			x.sendReply(ctx, iq.ConflictError())
			return
		}
	}
	if err := x.privRep.UpsertPrivacyList(ctx, fromJID.Node(), &privacymodel.List{Name: name}); err != nil {
		log.Error(err)
	}
	if isDefault {
		x.cache.setDefaultList(fromJID.ToBareJID().String(), nil)
	}
	if al := x.cache.activeList(fromJID.String()); al != nil && al.Name == name {
		x.cache.setActiveList(fromJID.String(), nil)
	}
	x.sendReply(ctx, iq.ResultIQ())
	x.PushListChange(ctx, fromJID, name, nil)
}

// otherSessionUsesDefault tells whether any session of the account other
// than the requesting one holds no active binding, hence relies on the
// account default.
func (x *Privacy) otherSessionUsesDefault(requester *jid.JID) bool {
	for _, stm := range x.router.UserStreams(requester.Node()) {
		sessJID := stm.JID().String()
		if sessJID == requester.String() {
			continue
		}
		if x.cache.activeList(sessJID) == nil {
			return true
		}
	}
	return false
}

// resolveList returns a list by name serving cached bindings first.
func (x *Privacy) resolveList(ctx context.Context, owner *jid.JID, name string) (*privacymodel.List, error) {
	if l := x.cache.listWithName(owner.String(), owner.ToBareJID().String(), name); l != nil {
		return l, nil
	}
	return x.privRep.FetchPrivacyList(ctx, owner.Node(), name)
}

func (x *Privacy) sendReply(ctx context.Context, stanza xmpp.Stanza) {
	_ = x.router.MustRoute(ctx, stanza)
}
