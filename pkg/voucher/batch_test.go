/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voucherkit/voucherkit/pkg/transport"
)

func TestGenerateBatch(t *testing.T) {
	ctx := context.Background()
	rejected := &transport.StatusError{URL: serverURL, StatusCode: 409, Status: "409 Conflict"}

	t.Run("all succeed with fresh nonces", func(t *testing.T) {
		m, keys := newMockCounterparty(t)

		c, err := New(m, keys, serverURL)
		require.NoError(t, err)

		res, err := c.GenerateBatch(ctx, 3, testOrder(1), AbortOnError)
		require.NoError(t, err)
		require.False(t, res.Aborted)
		require.Len(t, res.Generations, 3)
		require.Len(t, res.Issued(), 3)
		require.Empty(t, res.Failed())

		nonces := map[string]bool{}
		otcs := map[string]bool{}

		for _, g := range res.Generations {
			nonces[g.Nonce()] = true

			creds, _ := g.Credentials()
			otcs[creds.OTC.String()] = true
		}

		require.Len(t, nonces, 3)
		require.Len(t, otcs, 3)
	})

	t.Run("abort on error", func(t *testing.T) {
		m, keys := newMockCounterparty(t)
		m.createErr[2] = rejected

		c, err := New(m, keys, serverURL)
		require.NoError(t, err)

		res, err := c.GenerateBatch(ctx, 4, testOrder(1), AbortOnError)
		require.ErrorIs(t, err, transport.ErrTransport)
		require.Contains(t, err.Error(), "generation 2/4")
		require.True(t, res.Aborted)
		require.Len(t, res.Generations, 2)
		require.Len(t, res.Issued(), 1)
		require.Len(t, res.Failed(), 1)
		require.Len(t, m.createReqs, 2)
	})

	t.Run("failure on last generation is not an abort", func(t *testing.T) {
		m, keys := newMockCounterparty(t)
		m.createErr[2] = rejected

		c, err := New(m, keys, serverURL)
		require.NoError(t, err)

		res, err := c.GenerateBatch(ctx, 2, testOrder(1), AbortOnError)
		require.Error(t, err)
		require.False(t, res.Aborted)
	})

	t.Run("continue on error", func(t *testing.T) {
		m, keys := newMockCounterparty(t)
		m.createErr[2] = rejected

		c, err := New(m, keys, serverURL)
		require.NoError(t, err)

		res, err := c.GenerateBatch(ctx, 4, testOrder(1), ContinueOnError)
		require.NoError(t, err)
		require.False(t, res.Aborted)
		require.Len(t, res.Generations, 4)
		require.Len(t, res.Issued(), 3)

		failed := res.Failed()
		require.Len(t, failed, 1)
		require.Equal(t, StateFailed, failed[0].State())
		require.ErrorIs(t, failed[0].Err(), transport.ErrTransport)
	})

	t.Run("cancelled context stops the batch", func(t *testing.T) {
		m, keys := newMockCounterparty(t)

		c, err := New(m, keys, serverURL)
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res, err := c.GenerateBatch(cctx, 3, testOrder(1), ContinueOnError)
		require.ErrorIs(t, err, context.Canceled)
		require.True(t, res.Aborted)
		require.Empty(t, res.Generations)
		require.Empty(t, m.calls)
	})

	t.Run("invalid size", func(t *testing.T) {
		m, keys := newMockCounterparty(t)

		c, err := New(m, keys, serverURL)
		require.NoError(t, err)

		_, err = c.GenerateBatch(ctx, 0, testOrder(1), AbortOnError)
		require.ErrorIs(t, err, ErrInvalidBatch)
	})
}
