package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lunareve/stillwave/internal/audio"
	"github.com/lunareve/stillwave/internal/mix"
)

// Session is one finished soundscape ready for playback.
type Session struct {
	ID        string
	Title     string
	Style     string
	Mode      mix.Mode
	Intention string
	Path      string // encoded WAV on disk, empty if persistence failed
	Buffer    *audio.Buffer
}

// Player loops the current session into real-time PCM frames for the
// broadcaster. Unlike a playlist track, a wellness session repeats until it
// is skipped or replaced -- ambience should never simply stop.
type Player struct {
	sessionCh chan Session
	frameCh   chan []int16
	skipCh    chan struct{}

	mu       sync.RWMutex
	current  Session
	position time.Duration
	duration time.Duration // length of one loop pass
}

// NewPlayer creates a session player.
func NewPlayer() *Player {
	return &Player{
		sessionCh: make(chan Session, 4),
		frameCh:   make(chan []int16, 100),
		skipCh:    make(chan struct{}, 1),
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each,
// interleaved stereo at the stream rate).
func (p *Player) Frames() <-chan []int16 {
	return p.frameCh
}

// Enqueue queues a session for playback. The session playing now is
// interrupted at its next frame boundary.
func (p *Player) Enqueue(s Session) {
	p.sessionCh <- s
}

// QueueSize returns the number of sessions waiting.
func (p *Player) QueueSize() int {
	return len(p.sessionCh)
}

// Skip stops the current session's loop.
func (p *Player) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// Status returns the current session and loop position.
func (p *Player) Status() (s Session, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.position, p.duration
}

// Run starts the playback loop. Blocks until ctx is cancelled.
func (p *Player) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(audio.FrameDuration)
	defer ticker.Stop()

	var pending *Session
	for {
		var s Session
		if pending != nil {
			s = *pending
			pending = nil
		} else {
			select {
			case <-ctx.Done():
				return
			case s = <-p.sessionCh:
			}
		}
		pending = p.playSession(ctx, ticker, s)
		if pending == nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}
}

// playSession loops one session until skipped, replaced, or cancelled.
// Returns the replacement session if one arrived mid-loop.
func (p *Player) playSession(ctx context.Context, ticker *time.Ticker, s Session) *Session {
	// Resample once to the stream rate and interleave; the loop then
	// only slices.
	streamBuf := audio.Resample(s.Buffer, audio.StreamRate)
	samples := audio.Interleave(streamBuf, audio.StreamChannels)
	totalFrames := len(samples) / audio.FrameSamples
	if totalFrames == 0 {
		log.Printf("Session %s produced no frames, dropping", s.ID)
		return nil
	}

	p.mu.Lock()
	p.current = s
	p.position = 0
	p.duration = time.Duration(totalFrames) * audio.FrameDuration
	p.mu.Unlock()

	log.Printf("Now playing: %s [%s] (style: %s, mode: %s, loop: %s)",
		s.Title, s.ID, s.Style, s.Mode, time.Duration(totalFrames)*audio.FrameDuration)

	for i := 0; ; i = (i + 1) % totalFrames {
		select {
		case <-ctx.Done():
			return nil
		case <-p.skipCh:
			log.Println("Session skipped")
			return nil
		case next := <-p.sessionCh:
			return &next
		case <-ticker.C:
		}

		frame := samples[i*audio.FrameSamples : (i+1)*audio.FrameSamples]
		select {
		case p.frameCh <- frame:
		case <-ctx.Done():
			return nil
		}

		p.mu.Lock()
		p.position = time.Duration(i) * audio.FrameDuration
		p.mu.Unlock()
	}
}
