package viewsync

import (
	"sync"
	"time"
)

const (
	DefaultHighlightFor     = 3 * time.Second
	DefaultRetryInterval    = 500 * time.Millisecond
	DefaultMaxRetryInterval = 15 * time.Second
)

type Options struct {
	// HighlightFor is how long JustUpdated stays true after an applied event.
	HighlightFor time.Duration
	// RetryInterval and MaxRetryInterval bound the reconnect backoff.
	RetryInterval    time.Duration
	MaxRetryInterval time.Duration
	// OnChange is called after the view state or its highlight changes. It
	// may be called from any goroutine and must not block.
	OnChange func()
}

func (o Options) withDefaults() Options {
	if o.HighlightFor <= 0 {
		o.HighlightFor = DefaultHighlightFor
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.MaxRetryInterval < o.RetryInterval {
		o.MaxRetryInterval = max(DefaultMaxRetryInterval, o.RetryInterval)
	}
	return o
}

func (o Options) notify() {
	if o.OnChange != nil {
		o.OnChange()
	}
}

// indicator is the transient "just updated" flag. Raising it again while it
// is set extends the hold.
type indicator struct {
	hold    time.Duration
	onClear func()

	mu    sync.Mutex
	on    bool
	gen   uint64
	timer *time.Timer
}

func newIndicator(hold time.Duration, onClear func()) *indicator {
	return &indicator{hold: hold, onClear: onClear}
}

func (i *indicator) raise() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.gen++
	gen := i.gen
	i.on = true
	if i.timer != nil {
		i.timer.Stop()
	}
	i.timer = time.AfterFunc(i.hold, func() {
		i.mu.Lock()
		if i.gen != gen {
			i.mu.Unlock()
			return
		}
		i.on = false
		i.mu.Unlock()
		if i.onClear != nil {
			i.onClear()
		}
	})
}

func (i *indicator) active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.on
}

func (i *indicator) stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.timer != nil {
		i.timer.Stop()
	}
	i.on = false
}
