/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/voucherkit/voucherkit/pkg/transport"
)

// WaitReady polls healthURL with exponential backoff until it answers 2xx, maxWait elapses or
// ctx is done. A non-positive maxWait probes once. It only probes availability; protocol requests
// are never retried.
func (cs *OutboundHTTPClient) WaitReady(ctx context.Context, healthURL string, maxWait time.Duration) error {
	if maxWait <= 0 {
		if err := cs.probe(ctx, healthURL); err != nil {
			return &transport.RequestError{URL: healthURL, Err: err}
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond //nolint:gomnd
	b.MaxInterval = 2 * time.Second            //nolint:gomnd
	b.MaxElapsedTime = maxWait

	attempts := 0

	err := backoff.RetryNotify(
		func() error {
			attempts++

			return cs.probe(ctx, healthURL)
		},
		backoff.WithContext(b, ctx),
		func(retryErr error, t time.Duration) {
			logger.Warnf("counterparty at %s not ready, will sleep for %s before trying again : %s",
				healthURL, t, retryErr)
		},
	)
	if err != nil {
		return &transport.RequestError{
			URL: healthURL,
			Err: errors.Wrapf(err, "not ready after %d attempts", attempts),
		}
	}

	logger.Debugf("counterparty at %s ready after %d attempts", healthURL, attempts)

	return nil
}

func (cs *OutboundHTTPClient) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := cs.client.Do(req)
	if err != nil {
		return err
	}

	if e := resp.Body.Close(); e != nil {
		logger.Errorf("HTTP Transport - Error closing response body: %v", e)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &transport.StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return nil
}
