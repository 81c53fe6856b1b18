/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/voucherkit/voucherkit/pkg/controller/command"
	"github.com/voucherkit/voucherkit/pkg/controller/internal/cmdutil"
	"github.com/voucherkit/voucherkit/pkg/internal/logutil"
	"github.com/voucherkit/voucherkit/pkg/issuer"
	"github.com/voucherkit/voucherkit/pkg/voucher"
)

var logger = log.New("voucherkit/command/issuer")

var outcomes = logutil.NewCommandLogger(logger, CommandName, "password")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.Issuer)
	// CreateVoucherErrorCode is for failures while issuing a voucher batch.
	CreateVoucherErrorCode
	// VerifyVoucherErrorCode is for failures while verifying a one-time code.
	VerifyVoucherErrorCode
	// RedeemVoucherErrorCode is for failures while redeeming a voucher batch.
	RedeemVoucherErrorCode
	// ListRecordsErrorCode is for failures while listing records.
	ListRecordsErrorCode
)

// constants for issuer commands.
const (
	// command name.
	CommandName = "issuer"

	// command methods.
	CreateVoucherCommandMethod = "CreateVoucher"
	VerifyVoucherCommandMethod = "VerifyVoucher"
	RedeemVoucherCommandMethod = "RedeemVoucher"
	ListRecordsCommandMethod   = "ListRecords"
	HealthCommandMethod        = "Health"
)

// service is the issuer domain logic used by the commands.
type service interface {
	Create(req *voucher.CreateRequest) (*voucher.CreateResponse, error)
	Verify(req *voucher.VerifyRequest) (*issuer.Record, error)
	Redeem(req *issuer.RedeemRequest) (*issuer.Record, error)
	Records(sourceID int64) ([]*issuer.Record, error)
}

// Command contains the voucher issuer command operations.
type Command struct {
	svc service
}

// New returns new issuer command instance.
func New(svc service) *Command {
	return &Command{svc: svc}
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, CreateVoucherCommandMethod, c.CreateVoucher),
		cmdutil.NewCommandHandler(CommandName, VerifyVoucherCommandMethod, c.VerifyVoucher),
		cmdutil.NewCommandHandler(CommandName, RedeemVoucherCommandMethod, c.RedeemVoucher),
		cmdutil.NewCommandHandler(CommandName, ListRecordsCommandMethod, c.ListRecords),
		cmdutil.NewCommandHandler(CommandName, HealthCommandMethod, c.Health),
	}
}

// CreateVoucher issues a voucher batch and returns its encrypted credentials.
func (c *Command) CreateVoucher(rw io.Writer, req io.Reader) command.Error {
	var request voucher.CreateRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		outcomes.Rejected(CreateVoucherCommandMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("failed request decode : %w", err))
	}

	resp, err := c.svc.Create(&request)
	if err != nil {
		return c.fail(CreateVoucherCommandMethod, CreateVoucherErrorCode, err,
			logutil.KV("sourceId", request.SourceID))
	}

	command.WriteNillableResponse(rw, resp, logger)

	outcomes.Succeeded(CreateVoucherCommandMethod, logutil.KV("sourceId", request.SourceID))

	return nil
}

// VerifyVoucher confirms a pending one-time code. The response body is empty.
func (c *Command) VerifyVoucher(rw io.Writer, req io.Reader) command.Error {
	var request voucher.VerifyRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		outcomes.Rejected(VerifyVoucherCommandMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("failed request decode : %w", err))
	}

	rec, err := c.svc.Verify(&request)
	if err != nil {
		return c.fail(VerifyVoucherCommandMethod, VerifyVoucherErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	outcomes.Succeeded(VerifyVoucherCommandMethod, logutil.KV("otc", rec.OTC))

	return nil
}

// RedeemVoucher redeems a verified batch.
func (c *Command) RedeemVoucher(rw io.Writer, req io.Reader) command.Error {
	var request issuer.RedeemRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		outcomes.Rejected(RedeemVoucherCommandMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("failed request decode : %w", err))
	}

	rec, err := c.svc.Redeem(&request)
	if err != nil {
		return c.fail(RedeemVoucherCommandMethod, RedeemVoucherErrorCode, err, logutil.KV("otc", request.OTC))
	}

	command.WriteNillableResponse(rw, redact(rec), logger)

	outcomes.Succeeded(RedeemVoucherCommandMethod, logutil.KV("otc", rec.OTC))

	return nil
}

// ListRecords lists the records issued to a source.
func (c *Command) ListRecords(rw io.Writer, req io.Reader) command.Error {
	var request ListRecordsRequest

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		outcomes.Rejected(ListRecordsCommandMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("failed request decode : %w", err))
	}

	records, err := c.svc.Records(request.SourceID)
	if err != nil {
		return c.fail(ListRecordsCommandMethod, ListRecordsErrorCode, err,
			logutil.KV("sourceId", request.SourceID))
	}

	resp := ListRecordsResponse{Records: make([]*issuer.Record, 0, len(records))}

	for _, rec := range records {
		resp.Records = append(resp.Records, redact(rec))
	}

	command.WriteNillableResponse(rw, resp, logger)

	return nil
}

// Health reports that the issuer is serving.
func (c *Command) Health(rw io.Writer, _ io.Reader) command.Error {
	command.WriteNillableResponse(rw, HealthResponse{Status: "ok"}, logger)

	return nil
}

// fail maps err to a command error and logs it as rejected or, for our own failures, as failed.
func (c *Command) fail(method string, code command.Code, err error, fields ...logutil.Field) command.Error {
	cmdErr := toCommandError(code, err)

	if cmdErr.Type() == command.ExecuteError {
		outcomes.Failed(method, err, fields...)
	} else {
		outcomes.Rejected(method, err, fields...)
	}

	return cmdErr
}

func redact(rec *issuer.Record) *issuer.Record {
	r := *rec
	r.PasswordHash = nil

	return &r
}

func toCommandError(code command.Code, err error) command.Error {
	switch {
	case errors.Is(err, issuer.ErrInvalidRequest):
		return command.NewValidationError(code, err)
	case errors.Is(err, issuer.ErrUnauthorized):
		return command.NewError(command.UnauthorizedError, code, err)
	case errors.Is(err, issuer.ErrUnknownOTC):
		return command.NewError(command.NotFoundError, code, err)
	case errors.Is(err, issuer.ErrNonceReplay), errors.Is(err, issuer.ErrNotRedeemable):
		return command.NewError(command.ConflictError, code, err)
	default:
		return command.NewExecuteError(code, err)
	}
}
