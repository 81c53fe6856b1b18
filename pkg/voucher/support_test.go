/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voucherkit/voucherkit/pkg/codec"
	"github.com/voucherkit/voucherkit/pkg/kms"
	"github.com/voucherkit/voucherkit/pkg/transport"
)

const serverURL = "http://issuer.example"

var (
	keysOnce  sync.Once
	clientKey *rsa.PrivateKey
	issuerKey *rsa.PrivateKey
)

// testKeys returns the client's key pair and the issuer's private key.
func testKeys(t *testing.T) (*kms.KeyPair, *kms.PrivateKey) {
	t.Helper()

	keysOnce.Do(func() {
		var err error

		clientKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		issuerKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
	})

	issuer := kms.NewPrivateKey(issuerKey)

	return &kms.KeyPair{Private: kms.NewPrivateKey(clientKey), Public: issuer.Public()}, issuer
}

func testOrder(n int) Order {
	specs := make([]Spec, n)

	for i := range specs {
		specs[i] = Spec{
			Aim:       fmt.Sprintf("city-centre-parking-zone-%02d", i),
			Latitude:  48.2082,
			Longitude: 16.3738,
			Timestamp: time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
			Count:     int32(i + 1),
		}
	}

	return Order{SourceID: 4711, Password: "s3cret", Vouchers: specs}
}

// mockCounterparty plays the issuer side of the protocol in memory.
type mockCounterparty struct {
	t      *testing.T
	codec  *codec.Codec
	issuer *kms.PrivateKey
	client *kms.PublicKey

	mu         sync.Mutex
	calls      []string
	createReqs []CreateRequest
	contents   []Content
	verified   []uuid.UUID

	// createErr fails the n-th create call (1-based).
	createErr map[int]error
	verifyErr error
	// respond overrides the create response body.
	respond func(creds Credentials) []byte
}

func newMockCounterparty(t *testing.T) (*mockCounterparty, *kms.KeyPair) {
	keys, issuer := testKeys(t)

	return &mockCounterparty{
		t:         t,
		codec:     codec.New(),
		issuer:    issuer,
		client:    keys.Private.Public(),
		createErr: map[int]error{},
	}, keys
}

func (m *mockCounterparty) Post(_ context.Context, url string, body []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := strings.TrimPrefix(url, serverURL)
	m.calls = append(m.calls, path)

	switch path {
	case CreatePath:
		return m.create(body)
	case VerifyPath:
		return m.verify(body)
	default:
		return nil, &transport.StatusError{URL: url, StatusCode: 404, Status: "404 Not Found"}
	}
}

func (m *mockCounterparty) create(body []byte) ([]byte, error) {
	var req CreateRequest
	require.NoError(m.t, json.Unmarshal(body, &req))

	m.createReqs = append(m.createReqs, req)

	if err, ok := m.createErr[len(m.createReqs)]; ok {
		return nil, err
	}

	content, err := codec.Decode[Content](m.codec, req.Payload, m.issuer)
	require.NoError(m.t, err)

	m.contents = append(m.contents, content)

	creds := Credentials{OTC: uuid.New(), Password: "issued-" + content.Nonce[:8]}

	if m.respond != nil {
		return m.respond(creds), nil
	}

	payload, err := codec.Encode(m.codec, creds, m.client)
	require.NoError(m.t, err)

	resp, err := json.Marshal(CreateResponse{Payload: payload})
	require.NoError(m.t, err)

	return resp, nil
}

func (m *mockCounterparty) verify(body []byte) ([]byte, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}

	var req VerifyRequest
	require.NoError(m.t, json.Unmarshal(body, &req))

	content, err := codec.Decode[VerifyContent](m.codec, req.Payload, m.issuer)
	require.NoError(m.t, err)

	m.verified = append(m.verified, content.OTC)

	return nil, nil
}
