// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gradcheck verifies the handgrad operators against independent
// references and finite differences.
//
// Example:
//
//	report, err := gradcheck.Run(gradcheck.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err) // invalid configuration
//	}
//	if !report.Passed() {
//	    log.Fatal(report.Err())
//	}
package gradcheck

import (
	"math/rand"

	"github.com/born-ml/handgrad/internal/gradcheck"
)

// Operator names, in run order.
const (
	CrossEntropy = gradcheck.CrossEntropy
	LayerNorm    = gradcheck.LayerNorm
	Linear       = gradcheck.Linear
	GELU         = gradcheck.GELU
	Add          = gradcheck.Add
	Embedding    = gradcheck.Embedding
)

// Checks performed per operator.
const (
	CheckForward  = gradcheck.CheckForward
	CheckGradient = gradcheck.CheckGradient
)

// ErrGradientContract reports a malformed set of gradients from Backward.
var ErrGradientContract = gradcheck.ErrGradientContract

// Config controls input generation and tolerances.
type Config = gradcheck.Config

// Case is one operator with its inputs and reference.
type Case = gradcheck.Case

// Check names the comparison that failed.
type Check = gradcheck.Check

// MismatchError reports the first element outside tolerance.
type MismatchError = gradcheck.MismatchError

// Result is the outcome for one operator.
type Result = gradcheck.Result

// Report collects the results of a run.
type Report = gradcheck.Report

// AllOperators returns every checked operator in run order.
func AllOperators() []string {
	return append([]string(nil), gradcheck.AllOperators...)
}

// DefaultConfig returns T=32, C=64, seed 42, atol = rtol = 1e-2, step 1e-6.
func DefaultConfig() Config {
	return gradcheck.DefaultConfig()
}

// Cases builds the seeded cases selected by cfg.
func Cases(cfg Config) []Case {
	return gradcheck.Cases(cfg)
}

// Run checks every selected operator.
func Run(cfg Config) (*Report, error) {
	return gradcheck.Run(cfg)
}

// RunCase runs the forward and gradient checks for a single case.
func RunCase(c Case, cfg Config, rng *rand.Rand) error {
	return gradcheck.RunCase(c, cfg, rng)
}
