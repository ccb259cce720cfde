package watchers

import (
	"context"
	"time"

	"github.com/hoppxi/ddc-brightness/internal/debounce"
	"github.com/hoppxi/ddc-brightness/internal/subscribe"
	"github.com/rs/zerolog/log"
)

// DisplaySettle is how long a monitor gets to come up after a hotplug burst
// before it is queried.
const DisplaySettle = 2 * time.Second

type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// StartDisplayWatcher re-reads the brightness once the hotplug events for
// a monitor have settled, so a reconnected monitor clears the error state.
func StartDisplayWatcher(r Refresher) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		watchDisplay(r, subscribe.DisplayEvents(stop), stop, DisplaySettle)
	}
}

func watchDisplay(r Refresher, events <-chan subscribe.Uevent, stop <-chan struct{}, settle time.Duration) {
	refresh := debounce.New(settle, func(struct{}) {
		if _, err := r.Refresh(context.Background()); err != nil {
			log.Debug().Err(err).Msg("monitor still unavailable after hotplug")
		}
	})
	defer refresh.Cancel()

	for {
		select {
		case <-stop:
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			refresh.Request(struct{}{})
		}
	}
}
