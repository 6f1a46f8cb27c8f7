// Package playback plays the live soundscape on the local sound device.
// It is an optional monitor for the machine running the server; remote
// listeners use the HTTP or WebRTC stream instead.
package playback

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/hajimehoshi/oto/v2"

	"github.com/lunareve/stillwave/internal/audio"
	"github.com/lunareve/stillwave/internal/stream"
)

const bitDepthBytes = 2 // 16-bit PCM

// Monitor subscribes to the broadcaster and plays frames locally.
type Monitor struct {
	broadcaster *stream.Broadcaster
	ctx         *oto.Context
	ready       chan struct{}
}

// NewMonitor opens the local audio device at the stream rate.
func NewMonitor(b *stream.Broadcaster) (*Monitor, error) {
	ctx, ready, err := oto.NewContext(audio.StreamRate, audio.StreamChannels, bitDepthBytes)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	return &Monitor{broadcaster: b, ctx: ctx, ready: ready}, nil
}

// Run plays broadcast frames until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-m.ready:
	}

	listener := m.broadcaster.Subscribe()
	defer m.broadcaster.Unsubscribe(listener)

	reader := &frameReader{ctx: ctx, listener: listener}
	player := m.ctx.NewPlayer(reader)
	defer player.Close()
	player.Play()

	log.Println("Local monitor playing")
	<-ctx.Done()
}

// frameReader adapts the listener channel to the io.Reader the audio
// device pulls from. When no frame is ready it hands back silence so
// the device never underruns audibly.
type frameReader struct {
	ctx      context.Context
	listener *stream.Listener
	rem      []byte // unconsumed tail of the last frame
}

func (r *frameReader) Read(p []byte) (int, error) {
	if len(r.rem) > 0 {
		n := copy(p, r.rem)
		r.rem = r.rem[n:]
		return n, nil
	}

	select {
	case <-r.ctx.Done():
		return 0, io.EOF
	case frame, ok := <-r.listener.C:
		if !ok {
			return 0, io.EOF
		}
		buf := audio.SamplesToBytes(frame)
		n := copy(p, buf)
		r.rem = buf[n:]
		return n, nil
	default:
	}

	// No frame ready yet: silence.
	n := len(p)
	if n > audio.FrameBytes {
		n = audio.FrameBytes
	}
	for i := 0; i < n; i++ {
		p[i] = 0
	}
	return n, nil
}
