// Package authrecord persists the single AuthRecord of an installation.
//
// # Format
//
// The record is one JSON object with two base64 text fields:
//
//	{"hash": "<base64 of 32 bytes>", "salt": "<base64 of 16 bytes>"}
//
// # Load outcomes
//
// Load keeps three outcomes apart so callers can log them differently even
// though the authenticator treats all of them as "not set up":
//
//   - common.ErrRecordAbsent: the file does not exist
//   - common.ErrRecordMalformed: the file exists but is not a valid record
//   - any other error: the file could not be read
//
// Save creates the parent directory with 0700 permissions and replaces the
// file atomically with 0600 permissions.
package authrecord
