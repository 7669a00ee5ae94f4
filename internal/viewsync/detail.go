package viewsync

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
)

// DetailView is a live copy of one lead and its transcript.
type DetailView struct {
	*loop
	leadID int64

	mu       sync.RWMutex
	lead     *model.Lead
	messages []model.Message
}

func NewDetailView(src Source, leadID int64, opts Options) *DetailView {
	return &DetailView{loop: newLoop(src, opts), leadID: leadID}
}

// Run keeps the view live until ctx is done. It returns ErrNotFound if the
// lead does not exist when the view seeds.
func (v *DetailView) Run(ctx context.Context) error {
	return v.run(ctx, v, "leads.viewsync.detail")
}

func (v *DetailView) Ready() <-chan struct{} { return v.ready }

func (v *DetailView) JustUpdated() bool { return v.highlight.active() }

// Snapshot returns copies of the lead and its messages in creation order.
// ok is false before the first seed or after the lead was deleted.
func (v *DetailView) Snapshot() (lead model.Lead, messages []model.Message, ok bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.lead == nil {
		return model.Lead{}, nil, false
	}
	return v.lead.Clone(), append([]model.Message(nil), v.messages...), true
}

func (v *DetailView) filter() changefeed.Filter {
	return changefeed.Filter{LeadID: &v.leadID}
}

func (v *DetailView) seed(ctx context.Context, src Source) error {
	lead, err := src.GetLead(ctx, v.leadID)
	if err != nil {
		return err
	}
	messages, err := src.ListMessages(ctx, v.leadID)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.lead = lead
	v.messages = messages
	v.mu.Unlock()
	return nil
}

func (v *DetailView) apply(event model.ChangeEvent) bool {
	if event.LeadID != v.leadID {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	switch event.Entity {
	case model.EntityLead:
		if event.Change == model.ChangeDeleted {
			if v.lead == nil {
				return false
			}
			v.lead = nil
			v.messages = nil
			return true
		}
		if event.Lead == nil || (v.lead != nil && event.Lead.Version < v.lead.Version) {
			return false
		}
		lead := event.Lead.Clone()
		v.lead = &lead
		return true

	case model.EntityMessage:
		if event.Message == nil {
			return false
		}
		msg := *event.Message
		if lo.ContainsBy(v.messages, func(m model.Message) bool { return m.ID == msg.ID }) {
			return false
		}
		pos := sort.Search(len(v.messages), func(i int) bool {
			m := v.messages[i]
			if !m.CreatedAt.Equal(msg.CreatedAt) {
				return m.CreatedAt.After(msg.CreatedAt)
			}
			return m.ID > msg.ID
		})
		v.messages = append(v.messages, model.Message{})
		copy(v.messages[pos+1:], v.messages[pos:])
		v.messages[pos] = msg
		return true
	}
	return false
}
