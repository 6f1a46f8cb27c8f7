package session

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lunareve/stillwave/internal/audio"
	"github.com/lunareve/stillwave/internal/mix"
	"github.com/lunareve/stillwave/internal/synth"
	"github.com/lunareve/stillwave/internal/wav"
)

// SchedulerConfig holds session building parameters.
type SchedulerConfig struct {
	DefaultStyle    string
	DefaultDuration float64 // seconds
	DefaultMode     string
	SampleRate      int
	OutputDir       string // finished WAVs land here; empty disables persistence
	RotateMin       int    // min seconds per style when auto-rotating
	RotateMax       int    // max seconds per style
}

// Request asks for a new session. Zero fields fall back to the
// scheduler's configured defaults; an empty intention yields a purely
// instrumental soundscape.
type Request struct {
	Intention string  `json:"intention"`
	Style     string  `json:"style"`
	Duration  float64 `json:"duration"`
	Mode      string  `json:"mode"`
}

// SchedulerStatus is the current scheduler state.
type SchedulerStatus struct {
	CurrentStyle    string  `json:"style"`
	AutoRotate      bool    `json:"auto_rotate"`
	RotateRemaining float64 `json:"rotate_remaining"` // seconds
	QueueSize       int     `json:"queue_size"`
}

// ScriptFunc turns an intention into an affirmation script. Returns
// empty string on failure.
type ScriptFunc func(ctx context.Context, intention string) string

// TitleFunc names a session. Returns empty string on failure.
type TitleFunc func(ctx context.Context, intention, style string) string

// Narrator synthesizes narration audio from a script.
type Narrator interface {
	Synthesize(ctx context.Context, text string, sampleRate int) (*audio.Buffer, error)
}

// Scheduler builds sessions: style resolution, affirmation script,
// narration, offline render, mix, encode, enqueue.
type Scheduler struct {
	engine   *synth.Engine
	player   *Player
	narrator Narrator // nil when no voice collaborator is configured
	cfg      SchedulerConfig

	scriptFn ScriptFunc // optional LLM script generator
	titleFn  TitleFunc  // optional LLM title generator

	mu           sync.RWMutex
	currentStyle string
	autoRotate   bool
	rotateEnd    time.Time
	lastScript   string

	requestCh chan Request
}

// NewScheduler creates a session scheduler. narrator may be nil.
func NewScheduler(engine *synth.Engine, player *Player, narrator Narrator, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		engine:       engine,
		player:       player,
		narrator:     narrator,
		cfg:          cfg,
		currentStyle: cfg.DefaultStyle,
		requestCh:    make(chan Request, 8),
	}
}

// SetScriptFunc sets the LLM script generator. Pass nil for templates.
func (s *Scheduler) SetScriptFunc(fn ScriptFunc) {
	s.mu.Lock()
	s.scriptFn = fn
	s.mu.Unlock()
}

// SetTitleFunc sets the LLM title generator. Pass nil for deterministic names.
func (s *Scheduler) SetTitleFunc(fn TitleFunc) {
	s.mu.Lock()
	s.titleFn = fn
	s.mu.Unlock()
}

// Submit queues a session request. Fails rather than blocking when the
// queue is full.
func (s *Scheduler) Submit(req Request) error {
	select {
	case s.requestCh <- req:
		return nil
	default:
		return fmt.Errorf("session queue full")
	}
}

// SetAutoRotate enables or disables ambient style rotation.
func (s *Scheduler) SetAutoRotate(enabled bool) {
	s.mu.Lock()
	s.autoRotate = enabled
	if enabled {
		s.resetRotation()
	}
	s.mu.Unlock()
}

// LastScript returns the affirmation script of the most recent session.
func (s *Scheduler) LastScript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScript
}

// Status returns the current scheduler state.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	remaining := time.Until(s.rotateEnd).Seconds()
	if remaining < 0 || !s.autoRotate {
		remaining = 0
	}
	return SchedulerStatus{
		CurrentStyle:    s.currentStyle,
		AutoRotate:      s.autoRotate,
		RotateRemaining: remaining,
		QueueSize:       len(s.requestCh),
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.resetRotation()
	s.mu.Unlock()

	log.Printf("Scheduler started (default style: %s)", s.cfg.DefaultStyle)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requestCh:
			s.buildSession(ctx, req)
		case <-ticker.C:
			s.mu.RLock()
			rotate := s.autoRotate && time.Now().After(s.rotateEnd)
			s.mu.RUnlock()
			if rotate {
				s.transitionStyle()
				s.mu.RLock()
				style := s.currentStyle
				s.mu.RUnlock()
				s.buildSession(ctx, Request{Style: style})
			}
		}
	}
}

// buildSession runs the full production chain for one request. Every
// optional stage degrades gracefully: no LLM means template script, no
// narrator means instrumental, failed persistence means stream-only.
func (s *Scheduler) buildSession(ctx context.Context, req Request) {
	style := req.Style
	if style == "" {
		style = s.cfg.DefaultStyle
	}
	duration := req.Duration
	if duration <= 0 {
		duration = s.cfg.DefaultDuration
	}
	modeName := req.Mode
	if modeName == "" {
		modeName = s.cfg.DefaultMode
	}
	mode, err := mix.ParseMode(modeName)
	if err != nil {
		log.Printf("Session request: %v, using conscious", err)
		mode = mix.Conscious
	}

	profile := synth.Resolve(style)

	s.mu.Lock()
	s.currentStyle = profile.Name
	s.mu.Unlock()

	// Affirmation script: LLM first, template fallback. A short timeout
	// so a slow LLM never blocks session building.
	var script string
	if req.Intention != "" {
		s.mu.RLock()
		scriptFn := s.scriptFn
		s.mu.RUnlock()
		if scriptFn != nil {
			llmCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			script = scriptFn(llmCtx, req.Intention)
			cancel()
		}
		if script == "" {
			script = fallbackScript(req.Intention)
		}
	}
	s.mu.Lock()
	s.lastScript = script
	s.mu.Unlock()

	// Narration is optional twice over: no script, or no collaborator.
	var narration *audio.Buffer
	if script != "" && s.narrator != nil {
		narration, err = s.narrator.Synthesize(ctx, script, s.cfg.SampleRate)
		if err != nil {
			log.Printf("Narration failed, session will be instrumental: %v", err)
			narration = nil
		}
	}

	log.Printf("Rendering %s session (%.0fs at %dHz)...", profile.Name, duration, s.cfg.SampleRate)

	music, err := s.engine.Render(ctx, profile, duration, s.cfg.SampleRate)
	if err != nil {
		log.Printf("Render error: %v", err)
		return
	}

	final, err := mix.Mix(music, narration, mode, duration)
	if err != nil {
		log.Printf("Mix error: %v", err)
		return
	}

	id := newSessionID()
	path := s.persist(id, final)

	var title string
	s.mu.RLock()
	titleFn := s.titleFn
	s.mu.RUnlock()
	if titleFn != nil {
		nameCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		title = titleFn(nameCtx, req.Intention, profile.Name)
		cancel()
	}
	if title == "" {
		title = SessionName(profile.Name, id)
	}

	log.Printf("Session ready: %s [%s] (style: %s)", title, id, profile.Name)

	s.player.Enqueue(Session{
		ID:        id,
		Title:     title,
		Style:     profile.Name,
		Mode:      mode,
		Intention: req.Intention,
		Path:      path,
		Buffer:    final,
	})
}

// persist encodes the session to WAV on disk. Returns the file path, or
// empty string when persistence is disabled or fails.
func (s *Scheduler) persist(id string, buf *audio.Buffer) string {
	if s.cfg.OutputDir == "" {
		return ""
	}
	data, err := wav.Encode(buf)
	if err != nil {
		log.Printf("Encode error for session %s: %v", id, err)
		return ""
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		log.Printf("Output dir error: %v", err)
		return ""
	}
	path := filepath.Join(s.cfg.OutputDir, id+".wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Write error for session %s: %v", id, err)
		return ""
	}
	return path
}

func (s *Scheduler) transitionStyle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := RotationGraph[s.currentStyle]
	if !ok || len(node.Adjacent) == 0 {
		s.resetRotation()
		return
	}

	next := node.Adjacent[rand.IntN(len(node.Adjacent))]
	log.Printf("Rotation: %s -> %s", s.currentStyle, next)
	s.currentStyle = next
	s.resetRotation()
}

// resetRotation sets a new random dwell timer. Must be called with mu held.
func (s *Scheduler) resetRotation() {
	spread := s.cfg.RotateMax - s.cfg.RotateMin
	if spread <= 0 {
		spread = 1
	}
	dwell := s.cfg.RotateMin + rand.IntN(spread)
	s.rotateEnd = time.Now().Add(time.Duration(dwell) * time.Second)
}

// fallbackScript produces a template affirmation when no LLM is
// available. Deliberately plain; the LLM path carries the nuance.
func fallbackScript(intention string) string {
	return fmt.Sprintf(
		"I am here, and I am present. I welcome %s into my life. "+
			"With every slow breath I move a little closer. "+
			"I trust myself, and I let everything else go.",
		intention)
}

func newSessionID() string {
	return fmt.Sprintf("%08x%04x", time.Now().Unix(), rand.IntN(0x10000))
}
