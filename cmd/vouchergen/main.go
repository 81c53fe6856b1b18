/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main vouchergen.
//
// vouchergen requests voucher batches from an issuer over the encrypted create/verify protocol
// and prints them to a PDF.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/voucherkit/voucherkit/cmd/vouchergen/startcmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	rootCmd := startcmd.Cmd()

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "vouchergen: %s: %s\n", startcmd.ErrorKind(err), err)
	}

	os.Exit(startcmd.ExitCode(err))
}
