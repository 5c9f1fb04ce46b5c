// Package repository defines error values that are reused across
// multiple repositories and services. These sentinel values let
// higher layers such as handlers distinguish between failure
// scenarios without inspecting error strings. Entity-specific "not
// found" sentinels live next to their repository; the errors here cut
// across entities.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own and are not privileged to touch. Handlers
// should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a show's interval overlaps an existing
// active show in the same room. Handlers should translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("schedule conflict")

// ErrInsufficientFunds is returned when a wallet debit would drive
// the balance negative. The balance is left unchanged. Handlers
// should translate this into an HTTP 402 response.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidState is returned when an operation is attempted on an
// entity whose current state forbids it, such as scheduling a show in
// a room that is under maintenance. Handlers should translate this
// into an HTTP 422 response.
var ErrInvalidState = errors.New("invalid state")
