/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/pkg/errors"

	"github.com/voucherkit/voucherkit/pkg/transport"
)

var logger = log.New("voucherkit/pkg/transport/http")

const (
	contentType = "application/json"

	// DefaultTimeout bounds every exchange unless overridden.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
	maxErrorBodyLen  = 256
)

// outboundHTTPOpts holds options for the HTTP implementation of OutboundTransport.
type outboundHTTPOpts struct {
	client  *http.Client
	timeout time.Duration
}

// OutboundHTTPOpt is an outbound HTTP transport option.
type OutboundHTTPOpt func(opts *outboundHTTPOpts)

// WithOutboundHTTPClient option is for creating an Outbound HTTP transport using an http.Client instance.
func WithOutboundHTTPClient(client *http.Client) OutboundHTTPOpt {
	return func(opts *outboundHTTPOpts) {
		opts.client = client
	}
}

// WithOutboundTimeout sets the client timeout. Zero keeps DefaultTimeout.
func WithOutboundTimeout(timeout time.Duration) OutboundHTTPOpt {
	return func(opts *outboundHTTPOpts) {
		opts.timeout = timeout
	}
}

// WithOutboundTLSConfig option is for creating an Outbound HTTP transport using a tls.Config instance.
func WithOutboundTLSConfig(tlsConfig *tls.Config) OutboundHTTPOpt {
	return func(opts *outboundHTTPOpts) {
		opts.client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
		}
	}
}

// OutboundHTTPClient posts JSON to the counterparty over HTTP.
type OutboundHTTPClient struct {
	client *http.Client
}

// NewOutbound creates an Outbound HTTP transport. Requests always carry a timeout.
func NewOutbound(opts ...OutboundHTTPOpt) (*OutboundHTTPClient, error) {
	clOpts := &outboundHTTPOpts{client: &http.Client{}}

	for _, opt := range opts {
		opt(clOpts)
	}

	if clOpts.client == nil {
		return nil, errors.New("can't create an outbound transport without an HTTP client")
	}

	if clOpts.timeout < 0 {
		return nil, errors.Errorf("invalid outbound timeout %s", clOpts.timeout)
	}

	switch {
	case clOpts.timeout > 0:
		clOpts.client.Timeout = clOpts.timeout
	case clOpts.client.Timeout == 0:
		clOpts.client.Timeout = DefaultTimeout
	}

	return &OutboundHTTPClient{client: clOpts.client}, nil
}

// Timeout returns the per-request timeout in effect.
func (cs *OutboundHTTPClient) Timeout() time.Duration {
	return cs.client.Timeout
}

// Post sends body to url. Any 2xx status is a success; anything else is a *transport.StatusError.
func (cs *OutboundHTTPClient) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &transport.RequestError{URL: url, Err: errors.Wrap(err, "build request")}
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)

	resp, err := cs.client.Do(req)
	if err != nil {
		logger.Errorf("HTTP Transport - Error posting to [%s]: %v", url, err)

		return nil, &transport.RequestError{URL: url, Err: err}
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Errorf("HTTP Transport - Error closing response body: %v", e)
		}
	}()

	respBody, err := readBody(resp.Body)
	if err != nil {
		return nil, &transport.RequestError{URL: url, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.Warnf("HTTP Transport - Received non success POST HTTP status from [%s]: %s", url, resp.Status)

		return nil, &transport.StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(respBody), maxErrorBodyLen),
		}
	}

	logger.Debugf("HTTP Transport - POST [%s] returned %s with %d bytes", url, resp.Status, len(respBody))

	return respBody, nil
}

func readBody(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	if len(b) > maxResponseBytes {
		return nil, errors.Errorf("response body exceeds %d bytes", maxResponseBytes)
	}

	return b, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
