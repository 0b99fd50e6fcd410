// Package viewinfo keeps track of the participants of an editing session so
// comments can be decorated with their author's avatar and color.
package viewinfo

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/margin/internal/core/comment"
	corekv "github.com/colonyops/margin/internal/core/kv"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/protocol"
	"github.com/colonyops/margin/pkg/kv"
	"github.com/rs/zerolog"
)

// DefaultColor is used for authors without an active view.
const DefaultColor = "#43ACE8"

// namespace is the kv scope authors are persisted under.
const namespace = "authors"

// Info is what is known about one participant.
type Info struct {
	ViewID   int    `json:"viewId"`
	UserName string `json:"username"`
	// Color is the view color as a #rrggbb string.
	Color  string `json:"color"`
	Avatar string `json:"avatar,omitempty"`
}

// Registry indexes participants by view id and by user name. Active views
// live in the id index; the name index also remembers authors whose view
// has closed, so their avatar survives.
type Registry struct {
	byID    *kv.Store[int, Info]
	byName  *kv.Store[string, Info]
	authors *corekv.TypedKV[Info]
	log     zerolog.Logger
}

// New creates a registry. When store is non nil, authors are persisted to
// it and Load restores them.
func New(store corekv.KV) *Registry {
	r := &Registry{
		byID:   kv.New[int, Info](),
		byName: kv.New[string, Info](),
		log:    logging.Component("viewinfo"),
	}
	if store != nil {
		r.authors = corekv.Scoped[Info](store, namespace)
	}
	return r
}

// Load restores the authors remembered from earlier sessions. Restored
// authors have no active view.
func (r *Registry) Load(ctx context.Context) error {
	if r.authors == nil {
		return nil
	}

	all, err := r.authors.All(ctx)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}

	for _, info := range all {
		info.ViewID = -1
		r.byName.SetIfAbsent(info.UserName, info)
	}
	return nil
}

// Add records a view that joined the session.
func (r *Registry) Add(ctx context.Context, v protocol.View) error {
	info := Info{
		ViewID:   v.ViewID,
		UserName: v.UserName,
		Color:    RGBToHex(v.Color),
		Avatar:   v.ExtraInfo.Avatar,
	}
	r.byID.Set(info.ViewID, info)
	r.byName.Set(info.UserName, info)

	if r.authors == nil || info.UserName == "" {
		return nil
	}
	if err := r.authors.Set(ctx, info.UserName, info); err != nil {
		return fmt.Errorf("persist author %s: %w", info.UserName, err)
	}
	return nil
}

// Remove drops a view that left the session. The author stays known by
// name, without an active view.
func (r *Registry) Remove(viewID int) {
	info, ok := r.byID.Delete(viewID)
	if !ok {
		return
	}

	r.byName.Update(info.UserName, func(cur Info) Info {
		if cur.ViewID == viewID {
			cur.ViewID = -1
		}
		return cur
	})
}

// Forget deletes a persisted author.
func (r *Registry) Forget(ctx context.Context, userName string) error {
	r.byName.Delete(userName)
	if r.authors == nil {
		return nil
	}
	if err := r.authors.Delete(ctx, userName); err != nil && !errors.Is(err, corekv.ErrNotFound) {
		return fmt.Errorf("forget author %s: %w", userName, err)
	}
	return nil
}

// Lookup returns what is known about an author.
func (r *Registry) Lookup(userName string) (Info, bool) {
	return r.byName.Get(userName)
}

// View returns the active view with the given id.
func (r *Registry) View(viewID int) (Info, bool) {
	return r.byID.Get(viewID)
}

// ViewID returns the active view of an author, or -1.
func (r *Registry) ViewID(userName string) int {
	info, ok := r.byName.Get(userName)
	if !ok {
		return -1
	}
	if _, active := r.byID.Get(info.ViewID); !active {
		return -1
	}
	return info.ViewID
}

// Avatar returns the avatar of an author, or "".
func (r *Registry) Avatar(userName string) string {
	info, _ := r.byName.Get(userName)
	return info.Avatar
}

// Color returns the view color of an author with an active view and
// DefaultColor otherwise.
func (r *Registry) Color(userName string) string {
	id := r.ViewID(userName)
	if id < 0 {
		return DefaultColor
	}
	info, _ := r.byID.Get(id)
	return info.Color
}

// Len returns the number of active views.
func (r *Registry) Len() int { return r.byID.Len() }

// Decorate fills the avatar and color of d from its author.
func (r *Registry) Decorate(d *comment.Data) {
	if r == nil {
		return
	}
	if avatar := r.Avatar(d.Author); avatar != "" {
		d.Avatar = avatar
	}
	d.Color = r.Color(d.Author)
}

// RGBToHex formats the low 24 bits of an RGB integer as #rrggbb.
func RGBToHex(rgb int) string {
	return fmt.Sprintf("#%06x", rgb&0xffffff)
}
