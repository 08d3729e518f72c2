// Package common defines the error taxonomy and small byte helpers shared by
// every layer of the vault core. Callers should use errors.Is to match the
// sentinel values; concrete failures wrap them together with their cause.
package common

import "errors"

var (
	// ErrConfigurationMissing means no home directory or no config file could
	// be found. It is user-actionable and never retried.
	ErrConfigurationMissing = errors.New("configuration missing")

	// Auth record outcomes. Both are absorbed by the authenticator and turned
	// into the "not set up" state.
	ErrRecordAbsent    = errors.New("auth record absent")
	ErrRecordMalformed = errors.New("auth record malformed")

	// ErrNotAuthenticated is returned by vault operations attempted without an
	// unlocked session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrCryptoFailure covers KDF and AEAD failures, including tag mismatches.
	ErrCryptoFailure = errors.New("crypto failure")

	// ErrStorageFailure wraps errors coming out of the relational store or the
	// auth record file.
	ErrStorageFailure = errors.New("storage failure")

	// ErrRemoteService is the base of every non-2xx identity service reply.
	ErrRemoteService = errors.New("remote service error")

	ErrNotFound = errors.New("not found")
)
