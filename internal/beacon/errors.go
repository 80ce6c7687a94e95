// Package beacon holds the core rules of the anonymous reporting protocol:
// credential formats, the guided-flow step order, the display redaction
// filter, and the error taxonomy shared by services and handlers.
package beacon

import "errors"

var (
	// ErrInvalidCredentials covers every anonymous authentication failure:
	// wrong access token, wrong secret key, or a report/case that does not
	// exist. It is deliberately a single value so callers cannot tell which
	// part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadySubmitted is returned when finalize is called on a report
	// that already has credentials issued. Re-minting would orphan the
	// secret key already shown to the reporter.
	ErrAlreadySubmitted = errors.New("report already submitted")

	// ErrSessionClosed is returned for writes to a draft session that has
	// been closed without submission.
	ErrSessionClosed = errors.New("session is closed")

	// ErrQuotaExceeded is returned when an upload would push a report's
	// cumulative evidence size over the configured cap.
	ErrQuotaExceeded = errors.New("evidence quota exceeded")

	// ErrRewriteUnavailable is returned when the external paraphrase
	// collaborator fails. Publishing is blocked; raw text never falls
	// through to the public view.
	ErrRewriteUnavailable = errors.New("rewrite collaborator unavailable")

	// ErrCaseIDTaken is returned by the store when a finalize loses the
	// race for a Case ID to a concurrent submission. Callers re-read the
	// high-water mark and try again.
	ErrCaseIDTaken = errors.New("case id already allocated")

	// ErrNotFound is used on NGO-side lookups only, where resource
	// existence is not a secret.
	ErrNotFound = errors.New("not found")
)
