/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package blockcipher encrypts and decrypts arbitrary-length buffers with RSA PKCS#1 v1.5 by
// splitting them into key-sized blocks.
//
// With a modulus of K bytes each block carries at most K-11 plaintext bytes and produces exactly
// K ciphertext bytes. Ciphertext is the plain concatenation of the encrypted blocks.
package blockcipher

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/voucherkit/voucherkit/pkg/kms"
)

var logger = log.New("voucherkit/pkg/crypto/blockcipher")

// pkcs1v15Overhead is the number of padding bytes PKCS#1 v1.5 adds to every block.
const pkcs1v15Overhead = 11

var (
	// ErrKeyRoleMismatch is returned when a private key is used to encrypt or a public key to decrypt.
	ErrKeyRoleMismatch = errors.New("key role mismatch")
	// ErrMalformedCiphertext is returned when ciphertext is not a whole number of blocks.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	// ErrDecryption is returned when a block fails to decrypt or unpad.
	ErrDecryption = errors.New("decryption error")
)

// Engine performs chunked RSA PKCS#1 v1.5 encryption.
type Engine struct {
	randSource io.Reader
}

// Opt configures an Engine.
type Opt func(e *Engine)

// WithRandSource sets the entropy source used for padding.
func WithRandSource(r io.Reader) Opt {
	return func(e *Engine) {
		e.randSource = r
	}
}

// New returns an Engine reading padding randomness from crypto/rand unless overridden.
func New(opts ...Opt) *Engine {
	e := &Engine{randSource: rand.Reader}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// BlockSizes returns the plaintext and ciphertext block sizes for key.
func BlockSizes(key kms.Key) (inputBlockSize, outputBlockSize int, err error) {
	k := key.Size()
	if k <= pkcs1v15Overhead {
		return 0, 0, fmt.Errorf("blockcipher: %d-byte modulus too small for PKCS#1 v1.5", k)
	}

	return k - pkcs1v15Overhead, k, nil
}

// EncryptBlocks encrypts plaintext with a public key. The result is exactly
// ceil(len(plaintext)/inputBlockSize) blocks of outputBlockSize bytes; empty input gives empty output.
func (e *Engine) EncryptBlocks(plaintext []byte, key kms.Key) ([]byte, error) {
	pub, ok := key.(*kms.PublicKey)
	if !ok || pub == nil || pub.RSA() == nil {
		return nil, fmt.Errorf("blockcipher EncryptBlocks: %w: need a public key, got %s",
			ErrKeyRoleMismatch, roleOf(key))
	}

	in, out, err := BlockSizes(pub)
	if err != nil {
		return nil, err
	}

	blocks := (len(plaintext) + in - 1) / in
	ciphertext := make([]byte, blocks*out)

	for i := 0; i < blocks; i++ {
		end := (i + 1) * in
		if end > len(plaintext) {
			end = len(plaintext)
		}

		chunk, err := rsa.EncryptPKCS1v15(e.randSource, pub.RSA(), plaintext[i*in:end])
		if err != nil {
			return nil, fmt.Errorf("blockcipher EncryptBlocks: block %d: %w", i, err)
		}

		copy(ciphertext[i*out:], chunk)
	}

	logger.Debugf("encrypted %d bytes into %d blocks", len(plaintext), blocks)

	return ciphertext, nil
}

// DecryptBlocks decrypts ciphertext produced by EncryptBlocks with the matching private key.
// Decrypted blocks vary in length, so each one is written right after the previous one.
func (e *Engine) DecryptBlocks(ciphertext []byte, key kms.Key) ([]byte, error) {
	priv, ok := key.(*kms.PrivateKey)
	if !ok || priv == nil || priv.RSA() == nil {
		return nil, fmt.Errorf("blockcipher DecryptBlocks: %w: need a private key, got %s",
			ErrKeyRoleMismatch, roleOf(key))
	}

	in, out, err := BlockSizes(priv)
	if err != nil {
		return nil, err
	}

	if len(ciphertext)%out != 0 {
		return nil, fmt.Errorf("blockcipher DecryptBlocks: %w: %d bytes is not a multiple of %d",
			ErrMalformedCiphertext, len(ciphertext), out)
	}

	blocks := len(ciphertext) / out
	plaintext := make([]byte, blocks*in)
	n := 0

	for i := 0; i < blocks; i++ {
		chunk, err := rsa.DecryptPKCS1v15(nil, priv.RSA(), ciphertext[i*out:(i+1)*out])
		if err != nil {
			return nil, fmt.Errorf("blockcipher DecryptBlocks: block %d: %w", i, ErrDecryption)
		}

		n += copy(plaintext[n:], chunk)
	}

	logger.Debugf("decrypted %d blocks into %d bytes", blocks, n)

	return plaintext[:n], nil
}

func roleOf(key kms.Key) string {
	if key == nil {
		return "no key"
	}

	return key.Role().String() + " key"
}
