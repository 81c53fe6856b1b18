/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package render

import (
	"fmt"
	"io"
	"net/url"

	"github.com/google/uuid"
)

// OTCQueryParam is the query parameter carrying the one-time code in a redemption URL.
const OTCQueryParam = "otc"

// Voucher is what gets printed for one issued batch.
type Voucher struct {
	OTC      uuid.UUID
	Password string
	// Aim is an optional caption.
	Aim string
	// URL is the redemption link encoded in the QR image.
	URL string
}

// Renderer writes printable vouchers.
type Renderer interface {
	Render(w io.Writer, vouchers []Voucher) error
}

// RedemptionURL appends otc to base as a query parameter, keeping any existing query.
func RedemptionURL(base string, otc uuid.UUID) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("render: invalid redemption url %q: %w", base, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("render: redemption url %q must be absolute", base)
	}

	q := u.Query()
	q.Set(OTCQueryParam, otc.String())
	u.RawQuery = q.Encode()

	return u.String(), nil
}
