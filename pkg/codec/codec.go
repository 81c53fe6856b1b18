/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package codec turns structured payloads into encrypted text envelopes and back.
//
// Encoding serializes the payload, encrypts it in PKCS#1 v1.5 blocks for the recipient's public
// key, and renders the ciphertext as standard padded base64. Decoding runs the same steps in
// reverse with the recipient's private key.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/voucherkit/voucherkit/pkg/crypto/blockcipher"
	"github.com/voucherkit/voucherkit/pkg/kms"
)

var (
	// ErrSerialization is returned when a payload cannot be serialized, or when decrypted bytes are
	// not valid UTF-8 JSON of the requested shape.
	ErrSerialization = errors.New("serialization error")
	// ErrEncoding is returned when an envelope is not valid base64.
	ErrEncoding = errors.New("envelope encoding error")
)

// Cipher is the block encryption layer used by Codec.
type Cipher interface {
	EncryptBlocks(plaintext []byte, key kms.Key) ([]byte, error)
	DecryptBlocks(ciphertext []byte, key kms.Key) ([]byte, error)
}

// Codec encodes and decodes encrypted envelopes.
type Codec struct {
	cipher     Cipher
	serializer Serializer
}

// Option configures a Codec.
type Option func(c *Codec)

// WithCipher replaces the default block cipher engine.
func WithCipher(cipher Cipher) Option {
	return func(c *Codec) {
		c.cipher = cipher
	}
}

// WithSerializer replaces the default JSON serializer.
func WithSerializer(s Serializer) Option {
	return func(c *Codec) {
		c.serializer = s
	}
}

// New returns a Codec using blockcipher.New() and JSONSerializer by default.
func New(opts ...Option) *Codec {
	c := &Codec{
		cipher:     blockcipher.New(),
		serializer: JSONSerializer{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EncodeBytes encrypts raw plaintext for recipient and returns the base64 envelope.
func (c *Codec) EncodeBytes(plaintext []byte, recipient kms.Key) (string, error) {
	ct, err := c.cipher.EncryptBlocks(plaintext, recipient)
	if err != nil {
		return "", fmt.Errorf("codec encode: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ct), nil
}

// DecodeBytes decodes a base64 envelope and decrypts it with recipient.
func (c *Codec) DecodeBytes(envelope string, recipient kms.Key) ([]byte, error) {
	if recipient == nil || recipient.Role() != kms.RolePrivate {
		// Fail on the key before touching the envelope.
		return nil, fmt.Errorf("codec decode: %w", blockcipher.ErrKeyRoleMismatch)
	}

	ct, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("codec decode: %w: %s", ErrEncoding, err)
	}

	pt, err := c.cipher.DecryptBlocks(ct, recipient)
	if err != nil {
		return nil, fmt.Errorf("codec decode: %w", err)
	}

	return pt, nil
}

// Encode serializes payload and encrypts it for the recipient's public key.
func Encode[T any](c *Codec, payload T, recipient kms.Key) (string, error) {
	if recipient == nil || recipient.Role() != kms.RolePublic {
		return "", fmt.Errorf("codec encode: %w", blockcipher.ErrKeyRoleMismatch)
	}

	raw, err := c.serializer.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("codec encode: %w: %s", ErrSerialization, err)
	}

	return c.EncodeBytes(raw, recipient)
}

// Decode decrypts envelope with the recipient's private key and deserializes it as T.
func Decode[T any](c *Codec, envelope string, recipient kms.Key) (T, error) {
	var payload T

	raw, err := c.DecodeBytes(envelope, recipient)
	if err != nil {
		return payload, err
	}

	if !utf8.Valid(raw) {
		return payload, fmt.Errorf("codec decode: %w: payload is not valid UTF-8", ErrSerialization)
	}

	if err := c.serializer.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("codec decode: %w: %s", ErrSerialization, err)
	}

	return payload, nil
}
