/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"github.com/voucherkit/voucherkit/pkg/issuer"
)

// ListRecordsRequest selects the records of one source.
type ListRecordsRequest struct {
	SourceID int64 `json:"sourceId"`
}

// ListRecordsResponse lists voucher records without password hashes.
type ListRecordsResponse struct {
	Records []*issuer.Record `json:"records"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
}
