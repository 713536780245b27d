// Package common defines shared constants and sentinel errors used across
// cloudstash components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound reports that a referenced owner, folder, file or share
	// does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument reports malformed caller input: an empty name,
	// a non-future expiry, a move into itself or a descendant.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict reports a sibling-name collision under one parent.
	ErrConflict = errors.New("name conflict")

	// ErrUnavailable reports an internal inconsistency: a metadata row
	// points at a missing or unreadable blob.
	ErrUnavailable = errors.New("content unavailable")

	// ErrInternal reports an unexpected storage failure not attributable
	// to caller input.
	ErrInternal = errors.New("internal error")

	// Share lifecycle errors returned by the public resolution path.
	ErrShareRevoked = errors.New("share revoked")
	ErrShareExpired = errors.New("share expired")
)
