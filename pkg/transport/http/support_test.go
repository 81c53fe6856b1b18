/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const clientTimeout = 5 * time.Second

// mockHTTPHandler echoes the request body; a body of "bad" gets a 400 and "slow" stalls.
type mockHTTPHandler struct{}

func (m mockHTTPHandler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	if req.Body == nil {
		res.WriteHeader(http.StatusBadRequest)

		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil || req.Header.Get("Content-Type") != contentType {
		res.WriteHeader(http.StatusUnsupportedMediaType)

		return
	}

	switch string(body) {
	case "bad":
		res.WriteHeader(http.StatusBadRequest)
		res.Write([]byte(`{"code":1,"message":"bad"}`)) //nolint:errcheck,gosec
	case "huge":
		res.Write([]byte(strings.Repeat("x", maxResponseBytes+1))) //nolint:errcheck,gosec
	case "slow":
		select {
		case <-req.Context().Done():
		case <-time.After(clientTimeout):
		}
	case "accepted":
		res.WriteHeader(http.StatusAccepted)
	default:
		res.Write(body) //nolint:errcheck,gosec
	}
}

// flakyHealthHandler fails the first `failures` health checks.
type flakyHealthHandler struct {
	failures int32
	calls    int32
}

func (h *flakyHealthHandler) ServeHTTP(res http.ResponseWriter, _ *http.Request) {
	if atomic.AddInt32(&h.calls, 1) <= h.failures {
		res.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	res.WriteHeader(http.StatusOK)
}
