/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"time"

	"github.com/google/uuid"
)

// Counterparty endpoints, relative to the server URL.
const (
	CreatePath = "/api/v1/voucher/create"
	VerifyPath = "/api/v1/voucher/verify"
	HealthPath = "/api/v1/health"
)

// Spec describes one kind of voucher to issue.
type Spec struct {
	Aim       string    `json:"aim"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Count     int32     `json:"count"`
}

// Content is the encrypted part of a create request.
type Content struct {
	SourceID int64  `json:"sourceId"`
	Nonce    string `json:"nonce"`
	Password string `json:"password"`
	Vouchers []Spec `json:"vouchers"`
}

// CreateRequest is the body of a create call. SourceID and Nonce repeat the encrypted values in clear.
type CreateRequest struct {
	SourceID int64  `json:"sourceId"`
	Nonce    string `json:"nonce"`
	Payload  string `json:"payload"`
}

// CreateResponse is the body returned by a create call; Payload decrypts to Credentials.
type CreateResponse struct {
	Payload string `json:"payload"`
}

// Credentials identify an issued voucher batch.
type Credentials struct {
	OTC      uuid.UUID `json:"otc"`
	Password string    `json:"password"`
}

// VerifyContent is the encrypted part of a verify request.
type VerifyContent struct {
	OTC uuid.UUID `json:"otc"`
}

// VerifyRequest is the body of a verify call.
type VerifyRequest struct {
	Payload string `json:"payload"`
}

// Order is what the caller wants issued in one generation.
type Order struct {
	SourceID int64
	Password string
	Vouchers []Spec
}
