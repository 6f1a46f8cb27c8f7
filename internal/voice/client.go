// Package voice is the thin client for the narration synthesis
// collaborator. The engine only ever sees the decoded sample buffer; the
// TTS service itself is entirely outside this repository.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/lunareve/stillwave/internal/audio"
	"github.com/lunareve/stillwave/internal/wav"
)

// Client communicates with the voice synthesis REST API.
type Client struct {
	apiURL string
	voice  string
	http   *http.Client
}

// NewClient creates a voice API client.
func NewClient(apiURL, voice string) *Client {
	return &Client{
		apiURL: apiURL,
		voice:  voice,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// synthesizeRequest contains parameters for narration synthesis.
type synthesizeRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	SampleRate int     `json:"sample_rate"`
	Pace       float64 `json:"pace"`
	Format     string  `json:"format"`
}

type submitResp struct {
	Data struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
	Code  int    `json:"code"`
	Error string `json:"error"`
}

type taskResp struct {
	Data struct {
		TaskID string `json:"task_id"`
		Status int    `json:"status"` // 0=running, 1=success, 2=failed
		Audio  string `json:"audio"`  // download path when done
	} `json:"data"`
	Code int `json:"code"`
}

// WaitForHealthy blocks until the voice API responds to health checks.
func (c *Client) WaitForHealthy(ctx context.Context) error {
	log.Println("Waiting for voice API to be ready...")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := c.http.Get(c.apiURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			log.Println("Voice API is healthy")
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}

		log.Println("Voice API not ready, retrying in 5s...")
		time.Sleep(5 * time.Second)
	}
}

// Synthesize submits a narration job, polls it to completion, and
// returns the decoded narration buffer. The service speaks WAV on the
// wire, so the canonical decoder handles ingestion.
func (c *Client) Synthesize(ctx context.Context, text string, sampleRate int) (*audio.Buffer, error) {
	taskID, err := c.submit(ctx, text, sampleRate)
	if err != nil {
		return nil, err
	}
	audioPath, err := c.pollUntilDone(ctx, taskID, 2*time.Second)
	if err != nil {
		return nil, err
	}
	raw, err := c.download(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	buf, err := wav.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode narration: %w", err)
	}
	return buf, nil
}

func (c *Client) submit(ctx context.Context, text string, sampleRate int) (string, error) {
	body, err := json.Marshal(synthesizeRequest{
		Text:       text,
		Voice:      c.voice,
		SampleRate: sampleRate,
		Pace:       0.85, // slightly slower than conversational for narration
		Format:     "wav",
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit narration: %w", err)
	}
	defer resp.Body.Close()

	var result submitResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Code != 200 {
		return "", fmt.Errorf("voice API error (code %d): %s", result.Code, result.Error)
	}
	return result.Data.TaskID, nil
}

func (c *Client) pollUntilDone(ctx context.Context, taskID string, interval time.Duration) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+"/task/"+taskID, nil)
		if err != nil {
			return "", fmt.Errorf("create poll request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			log.Printf("Voice poll error: %v, retrying...", err)
			time.Sleep(interval)
			continue
		}

		var result taskResp
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			resp.Body.Close()
			log.Printf("Voice decode error: %v, retrying...", err)
			time.Sleep(interval)
			continue
		}
		resp.Body.Close()

		switch result.Data.Status {
		case 1: // success
			return result.Data.Audio, nil
		case 2: // failed
			return "", fmt.Errorf("narration failed for task %s", taskID)
		default: // still running
			time.Sleep(interval)
		}
	}
}

func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download narration: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download narration: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
