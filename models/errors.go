package models

import "errors"

var (
	// ErrInvalidInput marks a parameter that violates a model invariant.
	// Surfaced to the caller before any path is drawn; never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNumericalFault marks a simulation in which more than the tolerated
	// share of paths produced NaN or Inf.
	ErrNumericalFault = errors.New("numerical fault")

	// ErrCancelled marks a job that was cooperatively cancelled between
	// batches. No result is produced.
	ErrCancelled = errors.New("cancelled")

	// ErrCalibrationInput marks unusable candle input. The calibrator absorbs
	// this into a degraded default bundle rather than failing the caller.
	ErrCalibrationInput = errors.New("calibration input unavailable")
)
