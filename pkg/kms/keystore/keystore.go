/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/go-jose/go-jose/v3"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/voucherkit/voucherkit/pkg/kms"
)

var logger = log.New("voucherkit/pkg/kms/keystore")

// ErrKeyFormat is returned when key material cannot be parsed as an RSA key of the expected role.
var ErrKeyFormat = errors.New("unsupported key format")

const (
	pemPKCS1Private = "RSA PRIVATE KEY"
	pemPKCS8Private = "PRIVATE KEY"
	pemPKIXPublic   = "PUBLIC KEY"
	pemPKCS1Public  = "RSA PUBLIC KEY"
)

// LoadKeyPair reads our private key and the counterparty's public key from disk.
func LoadKeyPair(privateKeyPath, publicKeyPath string) (*kms.KeyPair, error) {
	priv, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, err
	}

	pub, err := LoadPublicKey(publicKeyPath)
	if err != nil {
		return nil, err
	}

	return &kms.KeyPair{Private: priv, Public: pub}, nil
}

// LoadPrivateKey reads a PEM (PKCS#1 or PKCS#8) or JWK encoded RSA private key file.
func LoadPrivateKey(path string) (*kms.PrivateKey, error) {
	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("keystore: read private key %s: %w", path, err)
	}

	key, err := ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("keystore: %s: %w", path, err)
	}

	logger.Debugf("loaded %d-bit private key from %s", key.Size()*8, path)

	return key, nil
}

// LoadPublicKey reads a PEM (PKIX or PKCS#1) or JWK encoded RSA public key file.
func LoadPublicKey(path string) (*kms.PublicKey, error) {
	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("keystore: read public key %s: %w", path, err)
	}

	key, err := ParsePublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("keystore: %s: %w", path, err)
	}

	logger.Debugf("loaded %d-bit public key from %s", key.Size()*8, path)

	return key, nil
}

// ParsePrivateKey parses RSA private key material.
func ParsePrivateKey(raw []byte) (*kms.PrivateKey, error) {
	if isJWK(raw) {
		k, err := parseJWK(raw)
		if err != nil {
			return nil, err
		}

		priv, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: JWK is not an RSA private key", ErrKeyFormat)
		}

		return kms.NewPrivateKey(priv), nil
	}

	block, err := decodePEM(raw)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case pemPKCS1Private:
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyFormat, err)
		}

		return kms.NewPrivateKey(priv), nil
	case pemPKCS8Private:
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyFormat, err)
		}

		priv, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS#8 key is %T, not RSA", ErrKeyFormat, k)
		}

		return kms.NewPrivateKey(priv), nil
	default:
		return nil, fmt.Errorf("%w: PEM block %q is not a private key", ErrKeyFormat, block.Type)
	}
}

// ParsePublicKey parses RSA public key material.
func ParsePublicKey(raw []byte) (*kms.PublicKey, error) {
	if isJWK(raw) {
		k, err := parseJWK(raw)
		if err != nil {
			return nil, err
		}

		pub, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: JWK is not an RSA public key", ErrKeyFormat)
		}

		return kms.NewPublicKey(pub), nil
	}

	block, err := decodePEM(raw)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case pemPKIXPublic:
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyFormat, err)
		}

		pub, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: public key is %T, not RSA", ErrKeyFormat, k)
		}

		return kms.NewPublicKey(pub), nil
	case pemPKCS1Public:
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyFormat, err)
		}

		return kms.NewPublicKey(pub), nil
	default:
		return nil, fmt.Errorf("%w: PEM block %q is not a public key", ErrKeyFormat, block.Type)
	}
}

func decodePEM(raw []byte) (*pem.Block, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyFormat)
	}

	return block, nil
}

func isJWK(raw []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}

func parseJWK(raw []byte) (interface{}, error) {
	var jwk jose.JSONWebKey

	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyFormat, err)
	}

	if !jwk.Valid() {
		return nil, fmt.Errorf("%w: invalid JWK", ErrKeyFormat)
	}

	return jwk.Key, nil
}
