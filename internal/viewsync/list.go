package viewsync

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
)

// ListView is a live copy of every lead, newest first.
type ListView struct {
	*loop

	mu    sync.RWMutex
	leads []model.Lead
}

func NewListView(src Source, opts Options) *ListView {
	return &ListView{loop: newLoop(src, opts)}
}

// Run keeps the view live until ctx is done.
func (v *ListView) Run(ctx context.Context) error {
	return v.run(ctx, v, "leads.viewsync.list")
}

// Ready is closed once the view has been seeded for the first time.
func (v *ListView) Ready() <-chan struct{} { return v.ready }

// JustUpdated reports whether an event was applied recently.
func (v *ListView) JustUpdated() bool { return v.highlight.active() }

// Snapshot returns a copy of the current list.
func (v *ListView) Snapshot() []model.Lead {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return lo.Map(v.leads, func(l model.Lead, _ int) model.Lead { return l.Clone() })
}

func (v *ListView) filter() changefeed.Filter {
	return changefeed.Filter{Entity: model.EntityLead}
}

func (v *ListView) seed(ctx context.Context, src Source) error {
	leads, err := src.ListLeads(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.leads = leads
	v.mu.Unlock()
	return nil
}

func (v *ListView) apply(event model.ChangeEvent) bool {
	if event.Entity != model.EntityLead {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	_, idx, found := lo.FindIndexOf(v.leads, func(l model.Lead) bool { return l.ID == event.LeadID })

	if event.Change == model.ChangeDeleted {
		if !found {
			return false
		}
		v.leads = append(v.leads[:idx], v.leads[idx+1:]...)
		return true
	}

	if event.Lead == nil {
		return false
	}
	incoming := event.Lead.Clone()

	if found {
		if incoming.Version < v.leads[idx].Version {
			return false
		}
		if event.Change == model.ChangeCreated && incoming.Version == v.leads[idx].Version {
			return false
		}
		v.leads[idx] = incoming
		return true
	}

	if event.Change == model.ChangeCreated {
		v.leads = append([]model.Lead{incoming}, v.leads...)
		return true
	}

	// An update for a lead we have never seen carries the full lead, so it
	// is placed where the server's ordering would put it.
	pos := len(v.leads)
	for i, l := range v.leads {
		if newerFirst(incoming, l) {
			pos = i
			break
		}
	}
	v.leads = append(v.leads, model.Lead{})
	copy(v.leads[pos+1:], v.leads[pos:])
	v.leads[pos] = incoming
	return true
}

// newerFirst matches the API list order: created_at then id, descending.
func newerFirst(a, b model.Lead) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
