package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	adminerrors "github.com/quillstore/admind/internal/errors"
)

// PeerClient performs member-to-member calls against the admin HTTP API
// of other cluster members.
type PeerClient struct {
	client *http.Client
	logger *zap.Logger
}

// NewPeerClient creates a peer client with a per-call timeout.
func NewPeerClient(timeout time.Duration, logger *zap.Logger) *PeerClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeerClient{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Call invokes method path on one member, encoding body and decoding the
// reply into out (when non-nil). Transport failures and timeouts come
// back as remote-unavailable errors; non-2xx replies are decoded into
// their original admin error.
func (p *PeerClient) Call(ctx context.Context, member Member, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return adminerrors.Internal("failed to encode peer request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	url := strings.TrimSuffix(member.AdminURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return adminerrors.Internal("failed to build peer request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return adminerrors.RemoteUnavailable(member.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return adminerrors.RemoteUnavailable(member.Name, err)
	}

	if resp.StatusCode >= 400 {
		var errResp adminerrors.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.ErrorCode != "" {
			return &adminerrors.AdminError{
				Code:    errResp.ErrorCode,
				Message: errResp.Message,
			}
		}
		return adminerrors.RemoteUnavailable(member.Name, nil)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return adminerrors.Internal("failed to decode peer response", err)
		}
	}
	return nil
}

// BroadcastResult is one member's reply to a broadcast call.
type BroadcastResult struct {
	Member Member
	Body   json.RawMessage
	Err    error
}

// Broadcast invokes method path on every member concurrently, bounded by
// maxConcurrent in-flight calls, and collects all replies. Unreachable
// members yield a result with Err set rather than failing the broadcast;
// results come back in member order.
func (p *PeerClient) Broadcast(ctx context.Context, members []Member, method, path string, body interface{}, maxConcurrent int) []BroadcastResult {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	results := make([]BroadcastResult, len(members))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, m := range members {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, m Member) {
			defer wg.Done()
			defer func() { <-sem }()

			var raw json.RawMessage
			err := p.Call(ctx, m, method, path, body, &raw)
			results[i] = BroadcastResult{Member: m, Body: raw, Err: err}
			if err != nil {
				p.logger.Debug("broadcast call failed",
					zap.String("member", m.Name),
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}(i, m)
	}
	wg.Wait()

	return results
}
