package tasks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/services"
)

// DefaultPollInterval is how often the now playing state is refreshed.
const DefaultPollInterval = 5 * time.Second

// NowPlayingPoller periodically reads the currently playing track.
//
// At most one poll runs at a time: a tick that fires while the previous poll is in flight is skipped.
type NowPlayingPoller struct {
	spotify  services.Service
	interval time.Duration

	inFlight atomic.Bool
	skipped  atomic.Int64
}

// NewNowPlayingPoller creates a poller. A non-positive interval uses [DefaultPollInterval].
func NewNowPlayingPoller(spotify services.Service, interval time.Duration) *NowPlayingPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &NowPlayingPoller{spotify: spotify, interval: interval}
}

// Interval returns the poll period.
func (p *NowPlayingPoller) Interval() time.Duration { return p.interval }

// Skipped reports how many polls were skipped because another was still in flight.
func (p *NowPlayingPoller) Skipped() int64 { return p.skipped.Load() }

// Poll reads the currently playing track once. ran is false when a poll was already in flight.
func (p *NowPlayingPoller) Poll(ctx context.Context) (current *models.CurrentlyPlaying, ran bool) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		return nil, false
	}
	defer p.inFlight.Store(false)
	return p.spotify.CurrentlyPlaying(ctx), true
}

// Run polls immediately and then on every tick until ctx is done.
//
// Results are sent on out without blocking; a result the receiver is not ready for is dropped. out is never closed.
func (p *NowPlayingPoller) Run(ctx context.Context, out chan<- *models.CurrentlyPlaying) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	poll := func() {
		current, ran := p.Poll(ctx)
		if !ran || ctx.Err() != nil {
			return
		}
		select {
		case out <- current:
		default:
		}
	}

	go poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go poll()
		}
	}
}
