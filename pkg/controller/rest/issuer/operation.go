/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/voucherkit/voucherkit/pkg/controller/command"
	cmdissuer "github.com/voucherkit/voucherkit/pkg/controller/command/issuer"
	"github.com/voucherkit/voucherkit/pkg/controller/internal/cmdutil"
	"github.com/voucherkit/voucherkit/pkg/controller/rest"
	"github.com/voucherkit/voucherkit/pkg/voucher"
)

// constants for issuer operations.
const (
	VoucherOperationID = "/api/v1/voucher"
	CreatePath         = voucher.CreatePath
	VerifyPath         = voucher.VerifyPath
	HealthPath         = voucher.HealthPath
	RedeemPath         = VoucherOperationID + "/redeem"
	RecordsPath        = VoucherOperationID + "/records/{sourceId}"

	// MaxRequestBytes caps request bodies. Envelopes for any realistic batch are far smaller.
	MaxRequestBytes = 1 << 20
)

type issuerCommand interface {
	CreateVoucher(rw io.Writer, req io.Reader) command.Error
	VerifyVoucher(rw io.Writer, req io.Reader) command.Error
	RedeemVoucher(rw io.Writer, req io.Reader) command.Error
	ListRecords(rw io.Writer, req io.Reader) command.Error
	Health(rw io.Writer, req io.Reader) command.Error
}

// Operation exposes the issuer commands as REST endpoints.
type Operation struct {
	handlers []rest.Handler
	command  issuerCommand
}

// New returns new issuer operations rest client instance.
func New(cmd *cmdissuer.Command) *Operation {
	o := &Operation{command: cmd}
	o.registerHandler()

	return o
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(CreatePath, http.MethodPost, o.CreateVoucher, cmdutil.WithBodyLimit(MaxRequestBytes)),
		cmdutil.NewHTTPHandler(VerifyPath, http.MethodPost, o.VerifyVoucher, cmdutil.WithBodyLimit(MaxRequestBytes)),
		cmdutil.NewHTTPHandler(RedeemPath, http.MethodPost, o.RedeemVoucher,
			cmdutil.WithBodyLimit(MaxRequestBytes), cmdutil.WithOperatorOnly()),
		cmdutil.NewHTTPHandler(RecordsPath, http.MethodGet, o.ListRecords, cmdutil.WithOperatorOnly()),
		cmdutil.NewHTTPHandler(HealthPath, http.MethodGet, o.Health),
	}
}

// CreateVoucher swagger:route POST /api/v1/voucher/create voucher createVoucher
//
// Issues a voucher batch.
//
// Responses:
//    default: genericError
//        200: createVoucherRes
func (o *Operation) CreateVoucher(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.CreateVoucher, rw, req.Body)
}

// VerifyVoucher swagger:route POST /api/v1/voucher/verify voucher verifyVoucher
//
// Verifies a one-time code.
//
// Responses:
//    default: genericError
func (o *Operation) VerifyVoucher(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.VerifyVoucher, rw, req.Body)
}

// RedeemVoucher swagger:route POST /api/v1/voucher/redeem voucher redeemVoucher
//
// Redeems a verified voucher batch.
//
// Responses:
//    default: genericError
//        200: voucherRecordRes
func (o *Operation) RedeemVoucher(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.RedeemVoucher, rw, req.Body)
}

// ListRecords swagger:route GET /api/v1/voucher/records/{sourceId} voucher listRecords
//
// Lists the voucher records of a source.
//
// Responses:
//    default: genericError
//        200: listRecordsRes
func (o *Operation) ListRecords(rw http.ResponseWriter, req *http.Request) {
	sourceID, err := strconv.ParseInt(mux.Vars(req)["sourceId"], 10, 64)
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmdissuer.InvalidRequestErrorCode,
			fmt.Errorf("invalid source id: %w", err))

		return
	}

	request := fmt.Sprintf(`{"sourceId":%d}`, sourceID)

	rest.Execute(o.command.ListRecords, rw, bytes.NewBufferString(request))
}

// Health swagger:route GET /api/v1/health voucher health
//
// Reports issuer health.
//
// Responses:
//        200: healthRes
func (o *Operation) Health(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.Health, rw, req.Body)
}
