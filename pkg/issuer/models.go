/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"time"

	"github.com/google/uuid"

	"github.com/voucherkit/voucherkit/pkg/voucher"
)

// Status of an issued voucher batch.
type Status string

// Record statuses, in lifecycle order.
const (
	StatusCreated  Status = "created"
	StatusVerified Status = "verified"
	StatusRedeemed Status = "redeemed"
)

// Record is the issuer's view of one voucher batch.
type Record struct {
	OTC          uuid.UUID      `json:"otc"`
	SourceID     int64          `json:"sourceId"`
	Nonce        string         `json:"nonce"`
	Vouchers     []voucher.Spec `json:"vouchers"`
	PasswordHash []byte         `json:"passwordHash,omitempty"`
	Status       Status         `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	VerifiedAt   *time.Time     `json:"verifiedAt,omitempty"`
	RedeemedAt   *time.Time     `json:"redeemedAt,omitempty"`
}

// RedeemRequest asks to redeem a verified batch with its password.
type RedeemRequest struct {
	OTC      uuid.UUID `json:"otc"`
	Password string    `json:"password"`
}
