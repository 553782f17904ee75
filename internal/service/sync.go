package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/pkg/httpclient"
)

// SyncService pushes order snapshots to a remote aggregation API through a
// circuit-breaker HTTP client. A service with no remote URL configured is a
// no-op pusher, which keeps the bridge optional per deployment.
type SyncService struct {
	client    *httpclient.CircuitBreakerClient
	remoteURL string
	version   string
	startedAt time.Time
	logger    *slog.Logger
}

// NewSyncService creates a new sync service. remoteURL may be empty.
func NewSyncService(client *httpclient.CircuitBreakerClient, remoteURL, version string, logger *slog.Logger) *SyncService {
	return &SyncService{
		client:    client,
		remoteURL: remoteURL,
		version:   version,
		startedAt: time.Now().UTC(),
		logger:    logger,
	}
}

// SyncStatus describes the health of the sync bridge.
type SyncStatus struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	Timestamp    time.Time `json:"timestamp"`
	RemoteConfig bool      `json:"remote_configured"`
	CircuitState string    `json:"circuit_state"`
}

// Status reports the bridge's current state, including the circuit breaker.
func (s *SyncService) Status() SyncStatus {
	state := "disabled"
	if s.remoteURL != "" {
		state = s.client.State().String()
	}

	return SyncStatus{
		Status:       "ok",
		Version:      s.version,
		Uptime:       time.Since(s.startedAt).Round(time.Second).String(),
		Timestamp:    time.Now().UTC(),
		RemoteConfig: s.remoteURL != "",
		CircuitState: state,
	}
}

// PushOrder sends an order snapshot to the remote API. Failures are returned
// to the caller for logging but are never fatal to order capture.
func (s *SyncService) PushOrder(ctx context.Context, order *domain.Order) error {
	if s.remoteURL == "" {
		return nil
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order for sync: %w", err)
	}

	resp, err := s.client.Post(ctx, s.remoteURL+"/orders", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("push order to remote: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("remote rejected order push: status %d", resp.StatusCode)
	}

	s.logger.DebugContext(ctx, "order pushed to remote",
		slog.String("order_id", order.ID),
		slog.Int("status", resp.StatusCode),
	)

	return nil
}
