/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/require"

	"github.com/voucherkit/voucherkit/pkg/kms"
)

func TestLoadKeyPair(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	peer, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()

	privPath := writePEM(t, dir, "own.pem", "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))

	pubDER, err := x509.MarshalPKIXPublicKey(&peer.PublicKey)
	require.NoError(t, err)

	pubPath := writePEM(t, dir, "peer.pem", "PUBLIC KEY", pubDER)

	kp, err := LoadKeyPair(privPath, pubPath)
	require.NoError(t, err)
	require.Equal(t, kms.RolePrivate, kp.Private.Role())
	require.Equal(t, kms.RolePublic, kp.Public.Role())
	require.True(t, priv.Equal(kp.Private.RSA()))
	require.True(t, peer.PublicKey.Equal(kp.Public.RSA()))

	t.Run("missing private key file", func(t *testing.T) {
		_, err := LoadKeyPair(filepath.Join(dir, "nope.pem"), pubPath)
		require.Error(t, err)
		require.Contains(t, err.Error(), "read private key")
	})

	t.Run("missing public key file", func(t *testing.T) {
		_, err := LoadKeyPair(privPath, filepath.Join(dir, "nope.pem"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "read public key")
	})

	t.Run("keys swapped", func(t *testing.T) {
		_, err := LoadKeyPair(pubPath, privPath)
		require.ErrorIs(t, err, ErrKeyFormat)
	})
}

func TestParsePrivateKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ecPKCS8, err := x509.MarshalPKCS8PrivateKey(ec)
	require.NoError(t, err)

	jwk, err := jose.JSONWebKey{Key: priv}.MarshalJSON()
	require.NoError(t, err)

	pubJWK, err := jose.JSONWebKey{Key: &priv.PublicKey}.MarshalJSON()
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  []byte
		err  bool
	}{
		{name: "PKCS#1 PEM", raw: encodePEM("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))},
		{name: "PKCS#8 PEM", raw: encodePEM("PRIVATE KEY", pkcs8)},
		{name: "JWK", raw: jwk},
		{name: "public JWK", raw: pubJWK, err: true},
		{name: "EC PKCS#8", raw: encodePEM("PRIVATE KEY", ecPKCS8), err: true},
		{name: "wrong PEM type", raw: encodePEM("CERTIFICATE", []byte{1}), err: true},
		{name: "garbage DER", raw: encodePEM("RSA PRIVATE KEY", []byte{1, 2, 3}), err: true},
		{name: "garbage PKCS#8", raw: encodePEM("PRIVATE KEY", []byte{1, 2, 3}), err: true},
		{name: "not PEM", raw: []byte("hello"), err: true},
		{name: "bad JWK", raw: []byte(`{"kty":"RSA"}`), err: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			k, err := ParsePrivateKey(tc.raw)
			if tc.err {
				require.ErrorIs(t, err, ErrKeyFormat)
				require.Nil(t, k)

				return
			}

			require.NoError(t, err)
			require.True(t, priv.Equal(k.RSA()))
		})
	}
}

func TestParsePublicKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	pkix, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ecPKIX, err := x509.MarshalPKIXPublicKey(&ec.PublicKey)
	require.NoError(t, err)

	jwk, err := jose.JSONWebKey{Key: &priv.PublicKey}.MarshalJSON()
	require.NoError(t, err)

	privJWK, err := jose.JSONWebKey{Key: priv}.MarshalJSON()
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  []byte
		err  bool
	}{
		{name: "PKIX PEM", raw: encodePEM("PUBLIC KEY", pkix)},
		{name: "PKCS#1 PEM", raw: encodePEM("RSA PUBLIC KEY", x509.MarshalPKCS1PublicKey(&priv.PublicKey))},
		{name: "JWK", raw: jwk},
		{name: "private JWK", raw: privJWK, err: true},
		{name: "EC PKIX", raw: encodePEM("PUBLIC KEY", ecPKIX), err: true},
		{name: "private PEM", raw: encodePEM("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv)), err: true},
		{name: "garbage PKIX", raw: encodePEM("PUBLIC KEY", []byte{1, 2, 3}), err: true},
		{name: "garbage PKCS#1", raw: encodePEM("RSA PUBLIC KEY", []byte{1, 2, 3}), err: true},
		{name: "empty", raw: nil, err: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			k, err := ParsePublicKey(tc.raw)
			if tc.err {
				require.ErrorIs(t, err, ErrKeyFormat)
				require.Nil(t, k)

				return
			}

			require.NoError(t, err)
			require.True(t, priv.PublicKey.Equal(k.RSA()))
		})
	}
}

func encodePEM(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}

func writePEM(t *testing.T, dir, name, blockType string, der []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, encodePEM(blockType, der), 0o600))

	return path
}
