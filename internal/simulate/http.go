package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/types"
	"github.com/okian/repcoach/internal/synth"
	"github.com/okian/repcoach/pkg/logger"
)

// Client talks to the session API of a running service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type createRequest struct {
	Exercise        string `json:"exercise"`
	SkipCalibration bool   `json:"skip_calibration"`
}

type frameRequest struct {
	model.Frame
	At time.Time `json:"at"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Health verifies the service is running.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// CreateSession starts a session for exercise.
func (c *Client) CreateSession(ctx context.Context, exercise string, skip bool) (types.SessionInfo, error) {
	var info types.SessionInfo
	err := c.do(ctx, http.MethodPost, "/sessions",
		createRequest{Exercise: exercise, SkipCalibration: skip}, http.StatusCreated, &info)
	return info, err
}

// SendFrame posts one sample to session id.
func (c *Client) SendFrame(ctx context.Context, id string, s synth.Sample) (types.Snapshot, error) {
	var snap types.Snapshot
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/frames",
		frameRequest{Frame: s.Frame, At: s.At}, http.StatusOK, &snap)
	return snap, err
}

// StopSession stops session id and returns its report.
func (c *Client) StopSession(ctx context.Context, id string) (types.Report, error) {
	var report types.Report
	err := c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, http.StatusOK, &report)
	return report, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != want {
		kind := ErrRemote
		if resp.StatusCode == http.StatusBadRequest {
			kind = ErrRejected
		}
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Code != "" {
			return fmt.Errorf("%w: %s %s: %d %s: %s", kind, method, path, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%w: %s %s: %d", kind, method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Drive replays w on cfg.Sessions concurrent remote sessions.
func Drive(ctx context.Context, cfg *Config, w Workout) ([]Result, error) {
	if len(w.Samples) == 0 {
		return nil, ErrEmptyStream
	}
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	sessions := max(cfg.Sessions, 1)
	logger.Get().Info(ctx, "driving remote sessions",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("exercise", cfg.Exercise),
		logger.Int("sessions", sessions),
		logger.Int("frames", len(w.Samples)))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]Result, 0, sessions)
		errs    []error
	)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			res, err := driveOne(ctx, client, cfg, w)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("session %d: %w", worker, err))
				return
			}
			results = append(results, res)
		}(i)
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

func driveOne(ctx context.Context, client *Client, cfg *Config, w Workout) (Result, error) {
	info, err := client.CreateSession(ctx, cfg.Exercise, cfg.SkipCalibration)
	if err != nil {
		return Result{}, err
	}

	res := Result{Session: info.ID, Exercise: info.Exercise, Expected: w.Expected}
	for _, s := range w.Samples {
		snap, err := client.SendFrame(ctx, info.ID, s)
		res.Frames++
		if err != nil {
			if errors.Is(err, ErrRejected) {
				res.Rejected++
				continue
			}
			return Result{}, err
		}
		res.Final = snap
	}

	report, err := client.StopSession(ctx, info.ID)
	if err != nil {
		return Result{}, err
	}
	res.Report = report
	return res, nil
}
