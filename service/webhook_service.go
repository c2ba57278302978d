// file: service/webhook_service.go

package service

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"go-recruit-auth/config"
	"go-recruit-auth/logger"
	"time"
)

// WebhookVerdict is the discriminated result of verifying an inbound
// third-party event.
type WebhookVerdict struct {
	Valid  bool
	Reason Reason
}

// webhookEnvelope is the minimal shape we require of an inbound payload: an
// embedded unix-seconds timestamp. A pointer distinguishes an absent claim
// from a literal zero.
type webhookEnvelope struct {
	Timestamp *int64 `json:"timestamp"`
}

// WebhookService verifies asymmetric signatures on inbound CRM callbacks and
// suppresses replays. The checks run cheapest-first: replay-cache lookup,
// then timestamp skew, then the ed25519 verification over the exact raw
// bytes. The skew window is what keeps the replay cache bounded.
type WebhookService struct {
	replay    ReplayStore
	publicKey ed25519.PublicKey
	maxSkew   time.Duration
	replayTTL time.Duration
	clock     Clock
}

// NewWebhookService creates a new WebhookService from the configured
// hex-encoded public key. A missing or undecodable key is a configuration
// error and must abort startup, not be handled per request.
func NewWebhookService(replay ReplayStore) (*WebhookService, error) {
	cfg := config.AppConfig.Webhook

	keyBytes, err := hex.DecodeString(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("webhook public key is not valid hex: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("webhook public key must be %d bytes, got %d", ed25519.PublicKeySize, len(keyBytes))
	}

	return &WebhookService{
		replay:    replay,
		publicKey: ed25519.PublicKey(keyBytes),
		maxSkew:   time.Duration(cfg.MaxSkewSeconds) * time.Second,
		replayTTL: time.Duration(cfg.ReplayTTLSec) * time.Second,
		clock:     systemClock{},
	}, nil
}

// WithClock overrides the time source, primarily for tests.
func (s *WebhookService) WithClock(clock Clock) *WebhookService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Verify checks one inbound event. signatureHeader carries the base64
// ed25519 signature over the exact raw body bytes. The replay cache is keyed
// on the decoded signature, not the header string: base64 leaves unused bits
// in the final character, so distinct headers can decode to the same
// signature, and all of them must land on the same cache entry.
func (s *WebhookService) Verify(ctx context.Context, rawBody []byte, signatureHeader string) WebhookVerdict {
	if signatureHeader == "" {
		return WebhookVerdict{Valid: false, Reason: ReasonMalformed}
	}

	sig, err := base64.StdEncoding.DecodeString(signatureHeader)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return WebhookVerdict{Valid: false, Reason: ReasonMalformed}
	}
	replayKey := hex.EncodeToString(sig)

	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	// Replay lookup first: rejecting a repeat costs one cache read instead
	// of a signature verification.
	seen, err := s.replay.Seen(ctx, replayKey)
	if err != nil {
		logger.Log.WithError(err).Error("Replay cache lookup failed")
		return WebhookVerdict{Valid: false, Reason: ReasonStoreUnavailable}
	}
	if seen {
		return WebhookVerdict{Valid: false, Reason: ReasonReplay}
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return WebhookVerdict{Valid: false, Reason: ReasonMalformed}
	}
	if envelope.Timestamp == nil {
		return WebhookVerdict{Valid: false, Reason: ReasonMissingTimestamp}
	}

	eventTime := time.Unix(*envelope.Timestamp, 0)
	now := s.clock.Now()
	if now.Sub(eventTime) > s.maxSkew {
		return WebhookVerdict{Valid: false, Reason: ReasonStaleTimestamp}
	}
	if eventTime.Sub(now) > s.maxSkew {
		return WebhookVerdict{Valid: false, Reason: ReasonFutureTimestamp}
	}

	if !ed25519.Verify(s.publicKey, rawBody, sig) {
		return WebhookVerdict{Valid: false, Reason: ReasonBadSignature}
	}

	// Record before reporting success; if the cache write fails we deny
	// rather than hand out a verdict whose replay we could not suppress.
	if err := s.replay.Record(ctx, replayKey, s.replayTTL); err != nil {
		logger.Log.WithError(err).Error("Failed to record webhook signature in replay cache")
		return WebhookVerdict{Valid: false, Reason: ReasonStoreUnavailable}
	}

	return WebhookVerdict{Valid: true}
}
