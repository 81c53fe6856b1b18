/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voucherkit/voucherkit/pkg/codec"
)

func TestContentEnvelope(t *testing.T) {
	keys, issuer := testKeys(t)
	c := codec.New()

	t.Run("single voucher fits one block", func(t *testing.T) {
		order := testOrder(1)
		content := Content{
			SourceID: order.SourceID,
			Nonce:    uuid.NewString(),
			Password: order.Password,
			Vouchers: order.Vouchers,
		}

		raw, err := json.Marshal(content)
		require.NoError(t, err)
		require.Greater(t, len(raw), 120)
		require.LessOrEqual(t, len(raw), 245)

		env, err := codec.Encode(c, content, keys.Public)
		require.NoError(t, err)
		require.Len(t, env, 344)

		ct, err := base64.StdEncoding.DecodeString(env)
		require.NoError(t, err)
		require.Len(t, ct, 256)

		got, err := codec.Decode[Content](c, env, issuer)
		require.NoError(t, err)
		require.Equal(t, content, got)
	})

	t.Run("five vouchers span three blocks", func(t *testing.T) {
		order := testOrder(5)
		content := Content{
			SourceID: order.SourceID,
			Nonce:    uuid.NewString(),
			Password: order.Password,
			Vouchers: order.Vouchers,
		}

		raw, err := json.Marshal(content)
		require.NoError(t, err)
		require.Greater(t, len(raw), 2*245)
		require.LessOrEqual(t, len(raw), 3*245)

		env, err := codec.Encode(c, content, keys.Public)
		require.NoError(t, err)

		ct, err := base64.StdEncoding.DecodeString(env)
		require.NoError(t, err)
		require.Len(t, ct, 3*256)

		plain, err := c.DecodeBytes(env, issuer)
		require.NoError(t, err)
		require.Equal(t, raw, plain)

		got, err := codec.Decode[Content](c, env, issuer)
		require.NoError(t, err)
		require.Equal(t, content, got)
	})
}

func TestWireNames(t *testing.T) {
	order := testOrder(1)

	raw, err := json.Marshal(Content{SourceID: 1, Nonce: "n", Password: "p", Vouchers: order.Vouchers})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"sourceId": 1, "nonce": "n", "password": "p",
		"vouchers": [{
			"aim": "city-centre-parking-zone-00", "latitude": 48.2082, "longitude": 16.3738,
			"timestamp": "2024-05-01T12:00:00Z", "count": 1
		}]
	}`, string(raw))

	otc := uuid.MustParse("6f1c3f52-4d5e-4f36-9a1b-0c2d3e4f5a6b")

	raw, err = json.Marshal(Credentials{OTC: otc, Password: "p"})
	require.NoError(t, err)
	require.JSONEq(t, `{"otc":"6f1c3f52-4d5e-4f36-9a1b-0c2d3e4f5a6b","password":"p"}`, string(raw))

	raw, err = json.Marshal(CreateRequest{SourceID: 2, Nonce: "n", Payload: "AA=="})
	require.NoError(t, err)
	require.JSONEq(t, `{"sourceId":2,"nonce":"n","payload":"AA=="}`, string(raw))
}
