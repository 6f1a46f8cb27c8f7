package session

import (
	"context"
	"testing"
	"time"

	"github.com/lunareve/stillwave/internal/audio"
)

// --- RotationGraph integrity ---

func TestAllStylesHaveAdjacent(t *testing.T) {
	for name, n := range RotationGraph {
		if len(n.Adjacent) == 0 {
			t.Errorf("Style %q has no adjacent styles", name)
		}
	}
}

func TestAdjacencyIsSymmetric(t *testing.T) {
	for name, n := range RotationGraph {
		for _, adj := range n.Adjacent {
			neighbor, ok := RotationGraph[adj]
			if !ok {
				t.Errorf("Style %q lists non-existent adjacent style %q", name, adj)
				continue
			}
			found := false
			for _, back := range neighbor.Adjacent {
				if back == name {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Asymmetric edge: %q -> %q exists, but %q -> %q does not", name, adj, adj, name)
			}
		}
	}
}

func TestGraphIsFullyConnected(t *testing.T) {
	if len(RotationGraph) == 0 {
		t.Fatal("RotationGraph is empty")
	}

	// BFS from an arbitrary start node
	var start string
	for name := range RotationGraph {
		start = name
		break
	}

	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, adj := range RotationGraph[current].Adjacent {
			if !visited[adj] {
				visited[adj] = true
				queue = append(queue, adj)
			}
		}
	}

	if len(visited) != len(RotationGraph) {
		unreachable := []string{}
		for name := range RotationGraph {
			if !visited[name] {
				unreachable = append(unreachable, name)
			}
		}
		t.Errorf("Graph not fully connected from %q. Unreachable: %v", start, unreachable)
	}
}

func TestStyleCount(t *testing.T) {
	if got := len(RotationGraph); got != 6 {
		t.Errorf("Expected 6 styles, got %d", got)
	}
}

func TestStyleNameConsistency(t *testing.T) {
	for name, n := range RotationGraph {
		if n.Name != name {
			t.Errorf("Style map key %q != StyleNode.Name %q", name, n.Name)
		}
	}
}

func TestRotationStyles(t *testing.T) {
	names := RotationStyles()
	if len(names) != len(RotationGraph) {
		t.Errorf("RotationStyles() returned %d names, want %d", len(names), len(RotationGraph))
	}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			t.Errorf("Duplicate style name: %q", name)
		}
		seen[name] = true
		if _, ok := RotationGraph[name]; !ok {
			t.Errorf("RotationStyles() returned %q which is not in the graph", name)
		}
	}
}

// --- SessionName ---

func TestSessionNameKnownStyle(t *testing.T) {
	name := SessionName("witch drone", "abc12345")
	if name == "" {
		t.Fatal("SessionName returned empty for known style")
	}
	if !containsSub(name, "witch drone") {
		t.Errorf("SessionName should contain style: got %q", name)
	}
}

func TestSessionNameDeterministic(t *testing.T) {
	a := SessionName("ambient pad", "test-id-001")
	b := SessionName("ambient pad", "test-id-001")
	if a != b {
		t.Errorf("SessionName not deterministic: %q != %q", a, b)
	}
}

func TestSessionNameEmpty(t *testing.T) {
	if SessionName("", "some-id") != "" {
		t.Error("SessionName should return empty for empty style")
	}
	if SessionName("ambient pad", "") != "" {
		t.Error("SessionName should return empty for empty session ID")
	}
}

func TestSessionNameUnknownStyle(t *testing.T) {
	name := SessionName("rainstorm", "some-id")
	if name != "rainstorm session" {
		t.Errorf("SessionName for unknown style should be 'rainstorm session', got %q", name)
	}
}

func TestAllStylesHaveAdjectives(t *testing.T) {
	for name := range RotationGraph {
		adjs := styleAdjectives[name]
		if len(adjs) == 0 {
			t.Errorf("Style %q has no adjectives for session naming", name)
		}
	}
}

// --- Player (non-I/O) ---

func TestNewPlayer(t *testing.T) {
	p := NewPlayer()
	if p == nil {
		t.Fatal("NewPlayer returned nil")
	}
	if p.QueueSize() != 0 {
		t.Errorf("Initial QueueSize = %d, want 0", p.QueueSize())
	}
}

func TestPlayerStatusInitial(t *testing.T) {
	p := NewPlayer()
	s, pos, dur := p.Status()
	if s.ID != "" || pos != 0 || dur != 0 {
		t.Errorf("Initial status should be zero-valued, got session=%v pos=%v dur=%v", s, pos, dur)
	}
}

func TestPlayerSkipNonBlocking(t *testing.T) {
	p := NewPlayer()
	// Skip on empty channel should not block
	p.Skip()
	p.Skip() // second skip also shouldn't block (buffered channel of 1, first fills it)
}

func TestPlayerEmitsFrames(t *testing.T) {
	p := NewPlayer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)

	// A tiny session: 50ms of silence at 8kHz, resampled to the stream
	// rate by the player before framing.
	buf, err := audio.NewBuffer(2, 400, 8000)
	if err != nil {
		t.Fatalf("NewBuffer error: %v", err)
	}
	p.Enqueue(Session{ID: "test01", Title: "test", Style: "soft noise", Buffer: buf})

	select {
	case frame := <-p.Frames():
		if len(frame) != audio.FrameSamples {
			t.Errorf("Frame length = %d, want %d", len(frame), audio.FrameSamples)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for first frame")
	}

	s, _, dur := p.Status()
	if s.ID != "test01" {
		t.Errorf("Current session = %q, want test01", s.ID)
	}
	if dur <= 0 {
		t.Errorf("Loop duration = %v, want > 0", dur)
	}
}

func TestPlayerSkipMovesToNext(t *testing.T) {
	p := NewPlayer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)

	buf, _ := audio.NewBuffer(2, 400, 8000)
	p.Enqueue(Session{ID: "first", Buffer: buf})

	// Wait until the first session is playing.
	deadline := time.After(2 * time.Second)
	for {
		s, _, _ := p.Status()
		if s.ID == "first" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("First session never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	p.Skip()
	p.Enqueue(Session{ID: "second", Buffer: buf})

	deadline = time.After(2 * time.Second)
	for {
		s, _, _ := p.Status()
		if s.ID == "second" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("Second session never started after skip")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// --- Scheduler (non-I/O) ---

func TestSchedulerSubmitQueueFull(t *testing.T) {
	s := NewScheduler(nil, nil, nil, SchedulerConfig{})
	for i := 0; i < 8; i++ {
		if err := s.Submit(Request{}); err != nil {
			t.Fatalf("Submit %d failed before queue was full: %v", i, err)
		}
	}
	if err := s.Submit(Request{}); err == nil {
		t.Error("Submit on a full queue should fail")
	}
}

func TestSchedulerStatusDefaults(t *testing.T) {
	s := NewScheduler(nil, nil, nil, SchedulerConfig{DefaultStyle: "ambient pad"})
	st := s.Status()
	if st.CurrentStyle != "ambient pad" {
		t.Errorf("CurrentStyle = %q, want 'ambient pad'", st.CurrentStyle)
	}
	if st.AutoRotate {
		t.Error("AutoRotate should default to false")
	}
	if st.RotateRemaining != 0 {
		t.Errorf("RotateRemaining = %v, want 0 while rotation is off", st.RotateRemaining)
	}
}

func TestSchedulerAutoRotateToggle(t *testing.T) {
	s := NewScheduler(nil, nil, nil, SchedulerConfig{
		DefaultStyle: "ambient pad",
		RotateMin:    600,
		RotateMax:    1800,
	})
	s.SetAutoRotate(true)
	st := s.Status()
	if !st.AutoRotate {
		t.Error("AutoRotate should be on")
	}
	if st.RotateRemaining <= 0 {
		t.Errorf("RotateRemaining = %v, want a positive dwell", st.RotateRemaining)
	}
	s.SetAutoRotate(false)
	if s.Status().AutoRotate {
		t.Error("AutoRotate should be off")
	}
}

func TestFallbackScriptMentionsIntention(t *testing.T) {
	script := fallbackScript("deep rest")
	if !containsSub(script, "deep rest") {
		t.Errorf("Fallback script should mention the intention: %q", script)
	}
	if len(script) < 20 {
		t.Errorf("Fallback script too short: %q", script)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newSessionID()
		if id == "" {
			t.Fatal("newSessionID returned empty")
		}
		seen[id] = true
	}
	if len(seen) < 90 {
		t.Errorf("Session IDs barely unique: %d distinct out of 100", len(seen))
	}
}

// --- helpers ---

func containsSub(s, sub string) bool {
	for i := 0; i <= len(s)-len(sub); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
