/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"

	"github.com/voucherkit/voucherkit/pkg/voucher"
)

var logger = log.New("voucherkit/vouchergen")

const (
	// server url flag.
	serverURLFlagName  = "server-url"
	serverURLEnvKey    = "VOUCHERGEN_SERVER_URL"
	serverURLFlagUsage = "Base URL of the voucher issuer, e.g. https://issuer.example." +
		" Alternatively, this can be set with the following environment variable: " + serverURLEnvKey

	// iteration count flag.
	countFlagName  = "count"
	countEnvKey    = "VOUCHERGEN_COUNT"
	countFlagUsage = "Number of voucher batches to generate. Defaults to 1." +
		" Alternatively, this can be set with the following environment variable: " + countEnvKey

	sourceIDFlagName  = "source-id"
	sourceIDEnvKey    = "VOUCHERGEN_SOURCE_ID"
	sourceIDFlagUsage = "Numeric id of the voucher source." +
		" Alternatively, this can be set with the following environment variable: " + sourceIDEnvKey

	passwordFlagName  = "password"
	passwordEnvKey    = "VOUCHERGEN_PASSWORD" //nolint:gosec
	passwordFlagUsage = "Password of the voucher source." +
		" Alternatively, this can be set with the following environment variable: " + passwordEnvKey

	aimFlagName  = "aim"
	aimEnvKey    = "VOUCHERGEN_AIM"
	aimFlagUsage = "What the vouchers are for." +
		" Alternatively, this can be set with the following environment variable: " + aimEnvKey

	latitudeFlagName  = "latitude"
	latitudeEnvKey    = "VOUCHERGEN_LATITUDE"
	latitudeFlagUsage = "Latitude where the vouchers apply. Defaults to 0." +
		" Alternatively, this can be set with the following environment variable: " + latitudeEnvKey

	longitudeFlagName  = "longitude"
	longitudeEnvKey    = "VOUCHERGEN_LONGITUDE"
	longitudeFlagUsage = "Longitude where the vouchers apply. Defaults to 0." +
		" Alternatively, this can be set with the following environment variable: " + longitudeEnvKey

	voucherCountFlagName  = "voucher-count"
	voucherCountEnvKey    = "VOUCHERGEN_VOUCHER_COUNT"
	voucherCountFlagUsage = "Number of vouchers in each batch. Defaults to 1." +
		" Alternatively, this can be set with the following environment variable: " + voucherCountEnvKey

	timestampFlagName  = "timestamp"
	timestampEnvKey    = "VOUCHERGEN_TIMESTAMP"
	timestampFlagUsage = "RFC3339 time the vouchers are valid from. Defaults to now." +
		" Alternatively, this can be set with the following environment variable: " + timestampEnvKey

	timeoutFlagName  = "timeout"
	timeoutEnvKey    = "VOUCHERGEN_TIMEOUT"
	timeoutFlagUsage = "Timeout of each request to the issuer, e.g. 10s. Defaults to 30s." +
		" Alternatively, this can be set with the following environment variable: " + timeoutEnvKey

	waitReadyFlagName  = "wait-ready"
	waitReadyEnvKey    = "VOUCHERGEN_WAIT_READY"
	waitReadyFlagUsage = "How long to wait for the issuer health endpoint before starting, e.g. 1m." +
		" Defaults to 0, which skips the check." +
		" Alternatively, this can be set with the following environment variable: " + waitReadyEnvKey

	continueOnErrorFlagName  = "continue-on-error"
	continueOnErrorEnvKey    = "VOUCHERGEN_CONTINUE_ON_ERROR"
	continueOnErrorFlagUsage = "Keep generating after a failed batch (true/false). Defaults to false." +
		" Alternatively, this can be set with the following environment variable: " + continueOnErrorEnvKey

	outputFlagName      = "output"
	outputEnvKey        = "VOUCHERGEN_OUTPUT"
	outputFlagShorthand = "o"
	outputFlagUsage     = "Path of the PDF to write. Defaults to vouchers.pdf." +
		" Alternatively, this can be set with the following environment variable: " + outputEnvKey

	redeemURLFlagName  = "redeem-url"
	redeemURLEnvKey    = "VOUCHERGEN_REDEEM_URL"
	redeemURLFlagUsage = "Redemption URL printed as QR code; the one-time code is appended as ?otc=." +
		" Defaults to <server-url>/redeem." +
		" Alternatively, this can be set with the following environment variable: " + redeemURLEnvKey

	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "VOUCHERGEN_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	defaultOutput  = "vouchers.pdf"
	defaultTimeout = 30 * time.Second
)

// Exit codes.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitFailure = 2
)

// UsageError reports an invalid invocation.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error returned by the command to a process exit code.
func ExitCode(err error) int {
	var ue *UsageError

	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ue):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// ErrorKind names the class of a command error for reporting.
func ErrorKind(err error) string {
	var ue *UsageError
	if errors.As(err, &ue) {
		return "UsageError"
	}

	return voucher.ErrorKind(err)
}

type parameters struct {
	privateKeyPath  string
	publicKeyPath   string
	serverURL       string
	count           int
	order           voucher.Order
	timeout         time.Duration
	waitReady       time.Duration
	continueOnError bool
	output          string
	redeemURL       string
}

// Cmd returns the vouchergen command.
func Cmd() *cobra.Command {
	cmd := createCmd()

	createFlags(cmd)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{msg: err.Error()}
	})

	return cmd
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vouchergen <private-key-file> <public-key-file>",
		Short: "Generate voucher batches",
		Long: "Requests voucher batches from an issuer and renders them as a PDF. The private key decrypts " +
			"the issuer's responses; the public key is the issuer's and encrypts our requests.",
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 { //nolint:gomnd
				return usageErrorf("expected 2 arguments (private key file, public key file), got %d", len(args))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			if err = setLogLevel(logLevel); err != nil {
				return &UsageError{msg: err.Error()}
			}

			params, err := getParameters(cmd, args)
			if err != nil {
				return err
			}

			// Invocation is valid from here on; failures are not usage problems.
			cmd.SilenceUsage = true

			return generate(cmd, params)
		},
	}
}

func createFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(serverURLFlagName, "", "", serverURLFlagUsage)
	cmd.Flags().StringP(countFlagName, "", "", countFlagUsage)
	cmd.Flags().StringP(sourceIDFlagName, "", "", sourceIDFlagUsage)
	cmd.Flags().StringP(passwordFlagName, "", "", passwordFlagUsage)
	cmd.Flags().StringP(aimFlagName, "", "", aimFlagUsage)
	cmd.Flags().StringP(latitudeFlagName, "", "", latitudeFlagUsage)
	cmd.Flags().StringP(longitudeFlagName, "", "", longitudeFlagUsage)
	cmd.Flags().StringP(voucherCountFlagName, "", "", voucherCountFlagUsage)
	cmd.Flags().StringP(timestampFlagName, "", "", timestampFlagUsage)
	cmd.Flags().StringP(timeoutFlagName, "", "", timeoutFlagUsage)
	cmd.Flags().StringP(waitReadyFlagName, "", "", waitReadyFlagUsage)
	cmd.Flags().StringP(continueOnErrorFlagName, "", "", continueOnErrorFlagUsage)
	cmd.Flags().StringP(outputFlagName, outputFlagShorthand, "", outputFlagUsage)
	cmd.Flags().StringP(redeemURLFlagName, "", "", redeemURLFlagUsage)
	cmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
}

func getParameters(cmd *cobra.Command, args []string) (*parameters, error) { //nolint:funlen,gocyclo
	params := &parameters{privateKeyPath: args[0], publicKeyPath: args[1]}

	var err error

	params.serverURL, err = getUserSetVar(cmd, serverURLFlagName, serverURLEnvKey, false)
	if err != nil {
		return nil, err
	}

	params.serverURL = strings.TrimRight(params.serverURL, "/")

	if params.count, err = getInt(cmd, countFlagName, countEnvKey, 1); err != nil {
		return nil, err
	}

	if params.count < 1 {
		return nil, usageErrorf("%s must be at least 1", countFlagName)
	}

	sourceID, err := getUserSetVar(cmd, sourceIDFlagName, sourceIDEnvKey, false)
	if err != nil {
		return nil, err
	}

	if params.order.SourceID, err = strconv.ParseInt(sourceID, 10, 64); err != nil {
		return nil, usageErrorf("invalid %s %q", sourceIDFlagName, sourceID)
	}

	if params.order.Password, err = getUserSetVar(cmd, passwordFlagName, passwordEnvKey, false); err != nil {
		return nil, err
	}

	spec := voucher.Spec{}

	if spec.Aim, err = getUserSetVar(cmd, aimFlagName, aimEnvKey, false); err != nil {
		return nil, err
	}

	if spec.Latitude, err = getFloat(cmd, latitudeFlagName, latitudeEnvKey); err != nil {
		return nil, err
	}

	if spec.Longitude, err = getFloat(cmd, longitudeFlagName, longitudeEnvKey); err != nil {
		return nil, err
	}

	voucherCount, err := getInt(cmd, voucherCountFlagName, voucherCountEnvKey, 1)
	if err != nil {
		return nil, err
	}

	if voucherCount < 1 || voucherCount > 1<<31-1 {
		return nil, usageErrorf("%s must be between 1 and %d", voucherCountFlagName, 1<<31-1)
	}

	spec.Count = int32(voucherCount)

	if spec.Timestamp, err = getTime(cmd, timestampFlagName, timestampEnvKey); err != nil {
		return nil, err
	}

	params.order.Vouchers = []voucher.Spec{spec}

	if params.timeout, err = getDuration(cmd, timeoutFlagName, timeoutEnvKey, defaultTimeout); err != nil {
		return nil, err
	}

	if params.waitReady, err = getDuration(cmd, waitReadyFlagName, waitReadyEnvKey, 0); err != nil {
		return nil, err
	}

	continueOnError, err := getUserSetVar(cmd, continueOnErrorFlagName, continueOnErrorEnvKey, true)
	if err != nil {
		return nil, err
	}

	if continueOnError != "" {
		if params.continueOnError, err = strconv.ParseBool(continueOnError); err != nil {
			return nil, usageErrorf("invalid %s %q", continueOnErrorFlagName, continueOnError)
		}
	}

	if params.output, err = getUserSetVar(cmd, outputFlagName, outputEnvKey, true); err != nil {
		return nil, err
	}

	if params.output == "" {
		params.output = defaultOutput
	}

	if params.redeemURL, err = getUserSetVar(cmd, redeemURLFlagName, redeemURLEnvKey, true); err != nil {
		return nil, err
	}

	if params.redeemURL == "" {
		params.redeemURL = params.serverURL + "/redeem"
	}

	return params, nil
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", &UsageError{msg: "Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set."}
}

func getInt(cmd *cobra.Command, flagName, envKey string, defaultValue int) (int, error) {
	value, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return 0, err
	}

	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, usageErrorf("invalid %s %q", flagName, value)
	}

	return n, nil
}

func getFloat(cmd *cobra.Command, flagName, envKey string) (float64, error) {
	value, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil || value == "" {
		return 0, err
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, usageErrorf("invalid %s %q", flagName, value)
	}

	return f, nil
}

func getDuration(cmd *cobra.Command, flagName, envKey string, defaultValue time.Duration) (time.Duration, error) {
	value, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return 0, err
	}

	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, usageErrorf("invalid %s %q", flagName, value)
	}

	return d, nil
}

func getTime(cmd *cobra.Command, flagName, envKey string) (time.Time, error) {
	value, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return time.Time{}, err
	}

	if value == "" {
		return time.Now().UTC().Truncate(time.Second), nil
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, usageErrorf("invalid %s %q, want RFC3339", flagName, value)
	}

	return ts, nil
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}
