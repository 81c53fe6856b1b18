/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package voucherkit requests printable voucher batches from an issuer over an RSA encrypted
// two-step protocol.
//
// Packages for end developer usage
//
// pkg/codec: Turns a structured payload into a base64 envelope encrypted with PKCS#1 v1.5 block by
// block, and back.
//
// pkg/voucher: The create/verify protocol client, one Generation per voucher batch.
//
// pkg/issuer: The counterparty service that mints one-time codes and records batches.
//
// pkg/controller/rest/issuer: The issuer endpoints over HTTP.
//
// Basic workflow
//
//      1) Load the key pair with pkg/kms/keystore.
//      2) Create an outbound transport with pkg/transport/http.
//      3) Create a voucher client with voucher.New, passing the transport and keys.
//      4) Call Generate or GenerateBatch and render the issued credentials with pkg/render/pdf.
package voucherkit
