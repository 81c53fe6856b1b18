/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"context"
	"fmt"
)

// State of a Generation.
type State int

// Idle -> Creating -> Created -> Verifying -> Verified, or Failed from either in-flight state.
const (
	StateIdle State = iota
	StateCreating
	StateCreated
	StateVerifying
	StateVerified
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCreating:
		return "creating"
	case StateCreated:
		return "created"
	case StateVerifying:
		return "verifying"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Generation is one create-then-verify exchange. It is not safe for concurrent use.
type Generation struct {
	client *Client
	order  Order
	state  State
	nonce  string
	creds  *Credentials
	err    error
}

// State returns the current state.
func (g *Generation) State() State {
	return g.state
}

// Nonce returns the nonce sent with the create request, once Create has started.
func (g *Generation) Nonce() string {
	return g.nonce
}

// Credentials returns the one-time code and password received from a successful create.
func (g *Generation) Credentials() (Credentials, bool) {
	if g.creds == nil {
		return Credentials{}, false
	}

	return *g.creds, true
}

// Err returns the error that failed the generation.
func (g *Generation) Err() error {
	return g.err
}

// Create sends the create request. It is only valid on an idle generation.
func (g *Generation) Create(ctx context.Context) error {
	if g.state != StateIdle {
		return fmt.Errorf("create: %w: %s", ErrInvalidState, g.state)
	}

	g.state = StateCreating
	g.nonce = g.client.newNonce()

	creds, err := g.client.create(ctx, g.nonce, g.order)
	if err != nil {
		return g.fail(fmt.Errorf("create: %w", err))
	}

	g.creds = creds
	g.state = StateCreated

	logger.Debugf("created voucher batch %s for source %d", creds.OTC, g.order.SourceID)

	return nil
}

// Verify confirms the one-time code. It is only valid after Create succeeded.
func (g *Generation) Verify(ctx context.Context) error {
	if g.state != StateCreated {
		return fmt.Errorf("verify: %w: %s", ErrInvalidState, g.state)
	}

	g.state = StateVerifying

	if err := g.client.verify(ctx, g.creds.OTC); err != nil {
		return g.fail(fmt.Errorf("verify: %w", err))
	}

	g.state = StateVerified

	logger.Debugf("verified voucher batch %s", g.creds.OTC)

	return nil
}

func (g *Generation) fail(err error) error {
	g.state = StateFailed
	g.err = err

	return err
}
