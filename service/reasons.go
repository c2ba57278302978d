package service

// Reason classifies an expected, locally recoverable verification failure.
// These are returned as values, never as errors; only configuration problems
// (missing signing key, bad public key) abort startup.
type Reason string

const (
	ReasonMalformed        Reason = "MALFORMED"
	ReasonExpired          Reason = "EXPIRED"
	ReasonAlreadyUsed      Reason = "ALREADY_USED"
	ReasonRevoked          Reason = "REVOKED"
	ReasonInvalid          Reason = "INVALID"
	ReasonBadSignature     Reason = "BAD_SIGNATURE"
	ReasonReplay           Reason = "REPLAY"
	ReasonMissingTimestamp Reason = "MISSING_TIMESTAMP"
	ReasonStaleTimestamp   Reason = "STALE_TIMESTAMP"
	ReasonFutureTimestamp  Reason = "FUTURE_TIMESTAMP"
	ReasonRateLimited      Reason = "RATE_LIMITED"
	ReasonStoreUnavailable Reason = "STORE_UNAVAILABLE"
)

