package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunareve/stillwave/internal/config"
	"github.com/lunareve/stillwave/internal/ollama"
	"github.com/lunareve/stillwave/internal/playback"
	"github.com/lunareve/stillwave/internal/session"
	"github.com/lunareve/stillwave/internal/stream"
	"github.com/lunareve/stillwave/internal/synth"
	"github.com/lunareve/stillwave/internal/voice"
	"github.com/lunareve/stillwave/internal/web"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("stillwave starting up...")

	// Synthesis engine
	engine := synth.NewEngine()
	engine.SetReverbTail(cfg.ReverbTail)

	// Voice collaborator (optional -- sessions stay instrumental without it)
	var narrator session.Narrator
	if cfg.VoiceAPIURL != "" {
		voiceClient := voice.NewClient(cfg.VoiceAPIURL, cfg.VoiceName)
		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := voiceClient.WaitForHealthy(healthCtx); err != nil {
			log.Printf("Voice API not available, narration disabled: %v", err)
		} else {
			narrator = voiceClient
		}
		healthCancel()
	} else {
		log.Println("Voice API not configured (set STILLWAVE_VOICE_URL to enable narration)")
	}

	// Session player: loops finished sessions into real-time frames
	player := session.NewPlayer()
	go player.Run(ctx)

	// Broadcaster: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, player.Frames())

	// Session scheduler
	sched := session.NewScheduler(engine, player, narrator, session.SchedulerConfig{
		DefaultStyle:    cfg.DefaultStyle,
		DefaultDuration: cfg.DefaultDuration,
		DefaultMode:     cfg.DefaultMode,
		SampleRate:      cfg.SampleRate,
		OutputDir:       cfg.OutputDir,
		RotateMin:       cfg.RotateMin,
		RotateMax:       cfg.RotateMax,
	})

	// Ollama LLM (optional -- enhances affirmation scripts and titles)
	if cfg.OllamaURL != "" {
		ollamaClient := ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel)

		readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
		if ollamaClient.WaitForReady(readyCtx) {
			affirmGen := ollama.NewAffirmationGenerator(ollamaClient)
			sched.SetScriptFunc(affirmGen.GenerateScript)
			sched.SetTitleFunc(affirmGen.GenerateTitle)
			log.Printf("Ollama connected: %s (LLM affirmations enabled)", cfg.OllamaModel)
		} else {
			log.Println("Ollama not available, using template affirmations")
		}
		readyCancel()
	} else {
		log.Println("Ollama not configured (set OLLAMA_URL to enable LLM affirmations)")
	}

	go sched.Run(ctx)

	// First session so the stream is never silent on startup
	if err := sched.Submit(session.Request{}); err != nil {
		log.Printf("Initial session: %v", err)
	}

	// WebRTC handler (track peer count for status)
	webrtcHandler := stream.NewWebRTCHandler(broadcaster)

	// Local monitor (optional -- plays on the server's own sound device)
	if cfg.LocalMonitor {
		monitor, err := playback.NewMonitor(broadcaster)
		if err != nil {
			log.Printf("Local monitor unavailable: %v", err)
		} else {
			go monitor.Run(ctx)
		}
	}

	// HTTP routes
	mux := http.NewServeMux()

	// Web UI
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	// Audio streams
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster))
	mux.Handle("/offer", webrtcHandler)

	// API endpoints
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		schedStatus := sched.Status()
		current, pos, dur := player.Status()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		title := current.Title
		if title == "" && current.ID != "" {
			title = session.SessionName(current.Style, current.ID)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"style":            schedStatus.CurrentStyle,
			"auto_rotate":      schedStatus.AutoRotate,
			"rotate_remaining": schedStatus.RotateRemaining,
			"queue_size":       schedStatus.QueueSize,
			"session_id":       current.ID,
			"session_title":    title,
			"intention":        current.Intention,
			"mode":             current.Mode.String(),
			"position":         pos.Seconds(),
			"duration":         dur.Seconds(),
			"script":           sched.LastScript(),
			"http_listeners":   broadcaster.ListenerCount(),
			"webrtc_listeners": webrtcHandler.PeerCount(),
			"dropped_frames":   broadcaster.DroppedFrames(),
			"config": map[string]any{
				"sample_rate": cfg.SampleRate,
				"reverb_tail": cfg.ReverbTail,
				"llm_model":   cfg.OllamaModel,
			},
		})
	})

	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req session.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Duration < 0 || req.Duration > 3600 {
			http.Error(w, "duration must be 0-3600 seconds", http.StatusBadRequest)
			return
		}
		if err := sched.Submit(req); err != nil {
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/skip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		player.Skip()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/rotate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		sched.SetAutoRotate(req.Enabled)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "auto_rotate": req.Enabled})
	})

	mux.HandleFunc("/api/styles", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(synth.StyleNames())
	})

	mux.HandleFunc("/api/download", func(w http.ResponseWriter, r *http.Request) {
		current, _, _ := player.Status()
		if current.Path == "" {
			http.Error(w, "no session on disk", http.StatusNotFound)
			return
		}
		name := current.Title
		if name == "" {
			name = current.ID
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.wav"`, name))
		w.Header().Set("Content-Type", "audio/wav")
		http.ServeFile(w, r, current.Path)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("stillwave live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
