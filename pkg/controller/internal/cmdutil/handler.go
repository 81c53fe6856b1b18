/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"net/http"

	"github.com/voucherkit/voucherkit/pkg/controller/command"
)

// HTTPHandlerOpt configures an HTTPHandler.
type HTTPHandlerOpt func(h *HTTPHandler)

// WithBodyLimit caps the request body at n bytes. Reads past the cap fail.
func WithBodyLimit(n int64) HTTPHandlerOpt {
	return func(h *HTTPHandler) {
		h.bodyLimit = n
	}
}

// WithOperatorOnly marks the route as an operator endpoint.
func WithOperatorOnly() HTTPHandlerOpt {
	return func(h *HTTPHandler) {
		h.operatorOnly = true
	}
}

// NewHTTPHandler returns instance of HTTPHandler which can be used handle
// http requests.
func NewHTTPHandler(path, method string, handle http.HandlerFunc, opts ...HTTPHandlerOpt) *HTTPHandler {
	h := &HTTPHandler{path: path, method: method, handle: handle}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HTTPHandler binds a handler func to a path and method.
type HTTPHandler struct {
	path         string
	method       string
	handle       http.HandlerFunc
	bodyLimit    int64
	operatorOnly bool
}

// Path returns http request path.
func (h *HTTPHandler) Path() string {
	return h.path
}

// Method returns http request method type.
func (h *HTTPHandler) Method() string {
	return h.method
}

// OperatorOnly reports whether the route is meant for operators rather than protocol clients.
func (h *HTTPHandler) OperatorOnly() bool {
	return h.operatorOnly
}

// Handle returns http request handle func, with the body limit applied when one is set.
func (h *HTTPHandler) Handle() http.HandlerFunc {
	if h.bodyLimit <= 0 {
		return h.handle
	}

	return func(rw http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(rw, req.Body, h.bodyLimit)

		h.handle(rw, req)
	}
}

// NewCommandHandler returns instance of CommandHandler which can be used handle
// controller commands.
func NewCommandHandler(name, method string, exec command.Exec) *CommandHandler {
	return &CommandHandler{name: name, method: method, handle: exec}
}

// CommandHandler binds a command exec func to a command name and method.
type CommandHandler struct {
	name   string
	method string
	handle command.Exec
}

// Name of the command.
func (c *CommandHandler) Name() string {
	return c.name
}

// Method name of the command.
func (c *CommandHandler) Method() string {
	return c.method
}

// Handle returns execute function of the command handler.
func (c *CommandHandler) Handle() command.Exec {
	return c.handle
}
