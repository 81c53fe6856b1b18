/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package kms defines the role-tagged RSA key handles used by the payload codec.
//
// A key is tagged public or private at construction time. Encryption accepts only public keys and
// decryption accepts only private keys; the tag is checked before any cryptographic work is done.
package kms

import (
	"crypto/rsa"
)

// Role identifies whether a key may be used to encrypt or to decrypt.
type Role int

const (
	// RolePublic keys encrypt.
	RolePublic Role = iota + 1
	// RolePrivate keys decrypt.
	RolePrivate
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RolePublic:
		return "public"
	case RolePrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Key is an RSA key tagged with its role.
type Key interface {
	// Role returns the role the key was loaded for.
	Role() Role
	// Size returns the modulus size in bytes.
	Size() int
}

// PublicKey is an RSA public key usable for encryption.
type PublicKey struct {
	key *rsa.PublicKey
}

// NewPublicKey wraps pub as a public-role key.
func NewPublicKey(pub *rsa.PublicKey) *PublicKey {
	return &PublicKey{key: pub}
}

// Role returns RolePublic.
func (k *PublicKey) Role() Role {
	return RolePublic
}

// Size returns the modulus size in bytes, or 0 for an empty key.
func (k *PublicKey) Size() int {
	if k == nil || k.key == nil || k.key.N == nil {
		return 0
	}

	return k.key.Size()
}

// RSA returns the underlying key.
func (k *PublicKey) RSA() *rsa.PublicKey {
	return k.key
}

// PrivateKey is an RSA private key usable for decryption.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// NewPrivateKey wraps priv as a private-role key.
func NewPrivateKey(priv *rsa.PrivateKey) *PrivateKey {
	return &PrivateKey{key: priv}
}

// Role returns RolePrivate.
func (k *PrivateKey) Role() Role {
	return RolePrivate
}

// Size returns the modulus size in bytes, or 0 for an empty key.
func (k *PrivateKey) Size() int {
	if k == nil || k.key == nil || k.key.N == nil {
		return 0
	}

	return k.key.Size()
}

// RSA returns the underlying key.
func (k *PrivateKey) RSA() *rsa.PrivateKey {
	return k.key
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	return NewPublicKey(&k.key.PublicKey)
}

// KeyPair holds this party's private key and the counterparty's public key.
// It is loaded once and never mutated; pass it explicitly to whatever needs it.
type KeyPair struct {
	// Private decrypts payloads addressed to us.
	Private *PrivateKey
	// Public encrypts payloads addressed to the counterparty.
	Public *PublicKey
}
