/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pdf

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voucherkit/voucherkit/pkg/render"
)

func testVouchers(t *testing.T, n int) []render.Voucher {
	t.Helper()

	vouchers := make([]render.Voucher, n)

	for i := range vouchers {
		otc := uuid.New()

		u, err := render.RedemptionURL("https://vouchers.example/redeem", otc)
		require.NoError(t, err)

		vouchers[i] = render.Voucher{OTC: otc, Password: "pw-" + otc.String()[:6], Aim: "parking", URL: u}
	}

	return vouchers
}

func TestRender(t *testing.T) {
	vouchers := testVouchers(t, 3)

	var b bytes.Buffer
	require.NoError(t, New(WithCompression(false), WithTitle("Parking voucher")).Render(&b, vouchers))

	out := b.String()
	require.True(t, strings.HasPrefix(out, "%PDF-"))
	require.Equal(t, 3, strings.Count(out, "/Type /Page\n"))

	for _, v := range vouchers {
		require.Contains(t, out, "Password: "+v.Password)
		require.Contains(t, out, v.OTC.String())
	}

	require.Contains(t, out, "Parking voucher")
}

func TestRenderErrors(t *testing.T) {
	var b bytes.Buffer

	require.Error(t, New().Render(&b, nil))

	v := testVouchers(t, 1)
	v[0].URL = ""
	require.ErrorContains(t, New().Render(&b, v), "no redemption url")

	require.Error(t, New().Render(&failingWriter{}, testVouchers(t, 1)))
}

type failingWriter struct{}

func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
