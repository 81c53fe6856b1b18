/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransport is matched by every failure to complete an exchange with the counterparty.
var ErrTransport = errors.New("transport error")

// OutboundTransport posts JSON documents to the counterparty.
type OutboundTransport interface {
	// Post sends body to url and returns the response body of a successful exchange.
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

// StatusError reports a response with a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	// Body holds the start of the response body, if any.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("non success status from %s: %s", e.URL, e.Status)
	}

	return fmt.Sprintf("non success status from %s: %s: %s", e.URL, e.Status, e.Body)
}

// Unwrap makes StatusError match ErrTransport.
func (e *StatusError) Unwrap() error {
	return ErrTransport
}

// RequestError reports a request that produced no usable response.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap makes RequestError match both ErrTransport and its cause.
func (e *RequestError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}
