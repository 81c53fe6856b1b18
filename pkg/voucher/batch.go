/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"context"
	"fmt"
)

// FailurePolicy decides what a batch does after a failed generation.
type FailurePolicy int

const (
	// AbortOnError stops the batch at the first failed generation.
	AbortOnError FailurePolicy = iota
	// ContinueOnError records the failure and runs the remaining generations.
	ContinueOnError
)

// BatchResult lists every generation attempted, in order.
type BatchResult struct {
	Generations []*Generation
	// Aborted is set when the batch stopped before running all generations.
	Aborted bool
}

// Issued returns the credentials of the verified generations.
func (r *BatchResult) Issued() []Credentials {
	var issued []Credentials

	for _, g := range r.Generations {
		if g.State() != StateVerified {
			continue
		}

		creds, _ := g.Credentials()
		issued = append(issued, creds)
	}

	return issued
}

// Failed returns the generations that did not reach StateVerified.
func (r *BatchResult) Failed() []*Generation {
	var failed []*Generation

	for _, g := range r.Generations {
		if g.State() != StateVerified {
			failed = append(failed, g)
		}
	}

	return failed
}

// GenerateBatch runs n generations of order one after another. With AbortOnError the first failure
// is returned; with ContinueOnError failures are only recorded in the result. A done ctx always
// stops the batch.
func (c *Client) GenerateBatch(ctx context.Context, n int, order Order, policy FailurePolicy) (*BatchResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatch, n)
	}

	result := &BatchResult{Generations: make([]*Generation, 0, n)}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			result.Aborted = true

			return result, fmt.Errorf("batch stopped before generation %d: %w", i+1, err)
		}

		g, err := c.Generate(ctx, order)
		result.Generations = append(result.Generations, g)

		if err == nil {
			logger.Infof("generation %d/%d verified", i+1, n)

			continue
		}

		logger.Errorf("generation %d/%d failed: %s", i+1, n, err)

		if policy == AbortOnError {
			result.Aborted = i < n-1

			return result, fmt.Errorf("generation %d/%d: %w", i+1, n, err)
		}
	}

	return result, nil
}
