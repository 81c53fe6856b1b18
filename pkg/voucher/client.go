/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/voucherkit/voucherkit/pkg/codec"
	"github.com/voucherkit/voucherkit/pkg/kms"
	"github.com/voucherkit/voucherkit/pkg/transport"
)

var logger = log.New("voucherkit/pkg/voucher")

// Client runs voucher generations against one counterparty.
type Client struct {
	codec     *codec.Codec
	transport transport.OutboundTransport
	keys      *kms.KeyPair
	serverURL string
	newNonce  func() string
}

// Option configures a Client.
type Option func(c *Client)

// WithCodec replaces the default codec.
func WithCodec(cd *codec.Codec) Option {
	return func(c *Client) {
		c.codec = cd
	}
}

// WithNonceSource replaces the default random UUID nonce generator.
func WithNonceSource(fn func() string) Option {
	return func(c *Client) {
		c.newNonce = fn
	}
}

// New returns a Client that talks to serverURL through t using keys.
func New(t transport.OutboundTransport, keys *kms.KeyPair, serverURL string, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, errors.New("voucher: transport is required")
	}

	if keys == nil || keys.Private == nil || keys.Public == nil {
		return nil, errors.New("voucher: own private key and counterparty public key are required")
	}

	u, err := url.Parse(serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("voucher: invalid server url %q", serverURL)
	}

	c := &Client{
		codec:     codec.New(),
		transport: t,
		keys:      keys,
		serverURL: strings.TrimRight(serverURL, "/"),
		newNonce:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ServerURL returns the counterparty base URL.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// NewGeneration starts an idle generation for order.
func (c *Client) NewGeneration(order Order) *Generation {
	return &Generation{client: c, order: order, state: StateIdle}
}

// Generate runs create followed by verify. The generation is returned even on failure.
func (c *Client) Generate(ctx context.Context, order Order) (*Generation, error) {
	g := c.NewGeneration(order)

	if err := g.Create(ctx); err != nil {
		return g, err
	}

	if err := g.Verify(ctx); err != nil {
		return g, err
	}

	return g, nil
}

func (c *Client) create(ctx context.Context, nonce string, order Order) (*Credentials, error) {
	payload, err := codec.Encode(c.codec, Content{
		SourceID: order.SourceID,
		Nonce:    nonce,
		Password: order.Password,
		Vouchers: order.Vouchers,
	}, c.keys.Public)
	if err != nil {
		return nil, err
	}

	respBody, err := c.post(ctx, CreatePath, CreateRequest{
		SourceID: order.SourceID,
		Nonce:    nonce,
		Payload:  payload,
	})
	if err != nil {
		return nil, err
	}

	var resp CreateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: create response: %s", codec.ErrSerialization, err)
	}

	creds, err := codec.Decode[Credentials](c.codec, resp.Payload, c.keys.Private)
	if err != nil {
		return nil, err
	}

	if creds.OTC == uuid.Nil {
		return nil, fmt.Errorf("%w: create response carries no one-time code", codec.ErrSerialization)
	}

	return &creds, nil
}

func (c *Client) verify(ctx context.Context, otc uuid.UUID) error {
	payload, err := codec.Encode(c.codec, VerifyContent{OTC: otc}, c.keys.Public)
	if err != nil {
		return err
	}

	_, err = c.post(ctx, VerifyPath, VerifyRequest{Payload: payload})

	return err
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", codec.ErrSerialization, err)
	}

	logger.Debugf("posting %d bytes to %s", len(raw), path)

	return c.transport.Post(ctx, c.serverURL+path, raw)
}
