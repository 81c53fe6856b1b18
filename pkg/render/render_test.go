/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package render

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRedemptionURL(t *testing.T) {
	t.Parallel()

	otc := uuid.MustParse("6f1c3f52-4d5e-4f36-9a1b-0c2d3e4f5a6b")

	tests := []struct {
		base string
		want string
		err  bool
	}{
		{base: "https://vouchers.example/redeem", want: "https://vouchers.example/redeem?otc=" + otc.String()},
		{base: "https://vouchers.example/r?lang=de", want: "https://vouchers.example/r?lang=de&otc=" + otc.String()},
		{base: "/relative", err: true},
		{base: "http://[::1", err: true},
	}

	for _, tc := range tests {
		got, err := RedemptionURL(tc.base, otc)
		if tc.err {
			require.Error(t, err, tc.base)

			continue
		}

		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}
