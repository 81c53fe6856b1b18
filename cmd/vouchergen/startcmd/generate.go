/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voucherkit/voucherkit/pkg/kms/keystore"
	"github.com/voucherkit/voucherkit/pkg/render"
	"github.com/voucherkit/voucherkit/pkg/render/pdf"
	transporthttp "github.com/voucherkit/voucherkit/pkg/transport/http"
	"github.com/voucherkit/voucherkit/pkg/voucher"
)

func generate(cmd *cobra.Command, params *parameters) error {
	ctx := cmd.Context()

	keys, err := keystore.LoadKeyPair(params.privateKeyPath, params.publicKeyPath)
	if err != nil {
		return err
	}

	outbound, err := transporthttp.NewOutbound(transporthttp.WithOutboundTimeout(params.timeout))
	if err != nil {
		return err
	}

	if params.waitReady > 0 {
		err = outbound.WaitReady(ctx, params.serverURL+voucher.HealthPath, params.waitReady)
		if err != nil {
			return fmt.Errorf("issuer not ready: %w", err)
		}
	}

	client, err := voucher.New(outbound, keys, params.serverURL)
	if err != nil {
		return err
	}

	policy := voucher.AbortOnError
	if params.continueOnError {
		policy = voucher.ContinueOnError
	}

	result, batchErr := client.GenerateBatch(ctx, params.count, params.order, policy)
	if result == nil {
		return batchErr
	}

	issued := result.Issued()

	// Verified batches are written out even when a later one failed.
	if len(issued) > 0 {
		if err = writeVouchers(params, issued); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d voucher batch(es) to %s\n", len(issued), params.output)
	}

	if batchErr != nil {
		return batchErr
	}

	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d generations failed, first: %w", len(failed), params.count, failed[0].Err())
	}

	return nil
}

func writeVouchers(params *parameters, issued []voucher.Credentials) error {
	vouchers := make([]render.Voucher, 0, len(issued))

	for _, creds := range issued {
		u, err := render.RedemptionURL(params.redeemURL, creds.OTC)
		if err != nil {
			return err
		}

		vouchers = append(vouchers, render.Voucher{
			OTC:      creds.OTC,
			Password: creds.Password,
			Aim:      params.order.Vouchers[0].Aim,
			URL:      u,
		})
	}

	f, err := os.Create(params.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", params.output, err)
	}

	if err = pdf.New().Render(f, vouchers); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}
