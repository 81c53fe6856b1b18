/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyRoles(t *testing.T) {
	t.Parallel()

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	t.Run("private key", func(t *testing.T) {
		k := NewPrivateKey(priv)
		require.Equal(t, RolePrivate, k.Role())
		require.Equal(t, 128, k.Size())
		require.Same(t, priv, k.RSA())
		require.Equal(t, "private", k.Role().String())
	})

	t.Run("public half", func(t *testing.T) {
		k := NewPrivateKey(priv).Public()
		require.Equal(t, RolePublic, k.Role())
		require.Equal(t, 128, k.Size())
		require.Equal(t, &priv.PublicKey, k.RSA())
		require.Equal(t, "public", k.Role().String())
	})

	t.Run("empty keys have no size", func(t *testing.T) {
		var pub *PublicKey
		require.Zero(t, pub.Size())
		require.Zero(t, NewPrivateKey(nil).Size())
		require.Equal(t, "unknown", Role(0).String())
	})
}
