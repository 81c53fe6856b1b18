/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	cmdissuer "github.com/voucherkit/voucherkit/pkg/controller/command/issuer"
	"github.com/voucherkit/voucherkit/pkg/controller/rest"
	restissuer "github.com/voucherkit/voucherkit/pkg/controller/rest/issuer"
	"github.com/voucherkit/voucherkit/pkg/issuer"
	"github.com/voucherkit/voucherkit/pkg/kms"
	"github.com/voucherkit/voucherkit/pkg/kms/keystore"
)

const (
	// api host flag.
	hostFlagName      = "api-host"
	hostEnvKey        = "VOUCHER_ISSUER_API_HOST"
	hostFlagShorthand = "a"
	hostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + hostEnvKey

	// key flags.
	privateKeyFlagName  = "private-key"
	privateKeyEnvKey    = "VOUCHER_ISSUER_PRIVATE_KEY"
	privateKeyFlagUsage = "Path of the issuer's RSA private key (PEM or JWK). It decrypts incoming requests." +
		" Alternatively, this can be set with the following environment variable: " + privateKeyEnvKey

	clientPublicKeyFlagName  = "client-public-key"
	clientPublicKeyEnvKey    = "VOUCHER_ISSUER_CLIENT_PUBLIC_KEY"
	clientPublicKeyFlagUsage = "Path of the generator's RSA public key (PEM or JWK). It encrypts issued credentials." +
		" Alternatively, this can be set with the following environment variable: " + clientPublicKeyEnvKey

	otcTTLFlagName  = "otc-ttl"
	otcTTLEnvKey    = "VOUCHER_ISSUER_OTC_TTL"
	otcTTLFlagUsage = "How long an issued one-time code may wait for verification, e.g. 5m. Defaults to 10m." +
		" Alternatively, this can be set with the following environment variable: " + otcTTLEnvKey

	maxPendingFlagName  = "max-pending"
	maxPendingEnvKey    = "VOUCHER_ISSUER_MAX_PENDING"
	maxPendingFlagUsage = "Maximum number of unverified one-time codes kept at once. Defaults to 10000." +
		" Alternatively, this can be set with the following environment variable: " + maxPendingEnvKey

	sourceFlagName  = "source"
	sourceEnvKey    = "VOUCHER_ISSUER_SOURCES"
	sourceFlagUsage = "Accepted voucher source as <id>:<bcrypt hash of password>." +
		" Repeat or separate with commas for several. When none is set any source is accepted." +
		" Alternatively, this can be set with the following environment variable (comma separated): " + sourceEnvKey

	tokenFlagName  = "api-token"
	tokenEnvKey    = "VOUCHER_ISSUER_API_TOKEN" //nolint:gosec
	tokenFlagUsage = "Bearer token required on the redeem and records endpoints." +
		" Without it those endpoints are not served." +
		" Alternatively, this can be set with the following environment variable: " + tokenEnvKey

	tlsCertFileFlagName  = "tls-cert-file"
	tlsCertFileEnvKey    = "VOUCHER_ISSUER_TLS_CERT_FILE"
	tlsCertFileFlagUsage = "TLS certificate file." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	tlsKeyFileFlagName  = "tls-key-file"
	tlsKeyFileEnvKey    = "VOUCHER_ISSUER_TLS_KEY_FILE"
	tlsKeyFileFlagUsage = "TLS key file." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey

	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "VOUCHER_ISSUER_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("voucherkit/voucher-issuer")
)

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router) //nolint:gosec
}

type issuerParameters struct {
	server      server
	host        string
	keys        *kms.KeyPair
	opts        []issuer.Option
	token       string
	tlsCertFile string
	tlsKeyFile  string
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command { //nolint:funlen,gocyclo
	return &cobra.Command{
		Use:   "start",
		Short: "Start the voucher issuer",
		Long:  `Start the voucher issuer serving the create, verify and redeem endpoints`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			err = setLogLevel(logLevel)
			if err != nil {
				return err
			}

			host, err := getUserSetVar(cmd, hostFlagName, hostEnvKey, false)
			if err != nil {
				return err
			}

			privateKeyPath, err := getUserSetVar(cmd, privateKeyFlagName, privateKeyEnvKey, false)
			if err != nil {
				return err
			}

			clientPublicKeyPath, err := getUserSetVar(cmd, clientPublicKeyFlagName, clientPublicKeyEnvKey, false)
			if err != nil {
				return err
			}

			keys, err := keystore.LoadKeyPair(privateKeyPath, clientPublicKeyPath)
			if err != nil {
				return err
			}

			opts, err := getIssuerOpts(cmd)
			if err != nil {
				return err
			}

			token, err := getUserSetVar(cmd, tokenFlagName, tokenEnvKey, true)
			if err != nil {
				return err
			}

			tlsCertFile, err := getUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
			if err != nil {
				return err
			}

			tlsKeyFile, err := getUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
			if err != nil {
				return err
			}

			parameters := &issuerParameters{
				server:      server,
				host:        host,
				keys:        keys,
				opts:        opts,
				token:       token,
				tlsCertFile: tlsCertFile,
				tlsKeyFile:  tlsKeyFile,
			}

			return startIssuer(parameters)
		},
	}
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(hostFlagName, hostFlagShorthand, "", hostFlagUsage)
	startCmd.Flags().StringP(privateKeyFlagName, "", "", privateKeyFlagUsage)
	startCmd.Flags().StringP(clientPublicKeyFlagName, "", "", clientPublicKeyFlagUsage)
	startCmd.Flags().StringP(otcTTLFlagName, "", "", otcTTLFlagUsage)
	startCmd.Flags().StringP(maxPendingFlagName, "", "", maxPendingFlagUsage)
	startCmd.Flags().StringSliceP(sourceFlagName, "", []string{}, sourceFlagUsage)
	startCmd.Flags().StringP(tokenFlagName, "", "", tokenFlagUsage)
	startCmd.Flags().StringP(tlsCertFileFlagName, "", "", tlsCertFileFlagUsage)
	startCmd.Flags().StringP(tlsKeyFileFlagName, "", "", tlsKeyFileFlagUsage)
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
}

func getIssuerOpts(cmd *cobra.Command) ([]issuer.Option, error) {
	var opts []issuer.Option

	ttl, err := getUserSetVar(cmd, otcTTLFlagName, otcTTLEnvKey, true)
	if err != nil {
		return nil, err
	}

	if ttl != "" {
		d, e := time.ParseDuration(ttl)
		if e != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s '%s'", otcTTLFlagName, ttl)
		}

		opts = append(opts, issuer.WithOTCTTL(d))
	}

	maxPending, err := getUserSetVar(cmd, maxPendingFlagName, maxPendingEnvKey, true)
	if err != nil {
		return nil, err
	}

	if maxPending != "" {
		n, e := strconv.Atoi(maxPending)
		if e != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s '%s'", maxPendingFlagName, maxPending)
		}

		opts = append(opts, issuer.WithMaxPending(n))
	}

	sources, err := getUserSetVars(cmd, sourceFlagName, sourceEnvKey, true)
	if err != nil {
		return nil, err
	}

	if len(sources) > 0 {
		credentials, e := parseSources(sources)
		if e != nil {
			return nil, e
		}

		opts = append(opts, issuer.WithSourceCredentials(credentials))
	}

	return opts, nil
}

func parseSources(sources []string) (map[int64][]byte, error) {
	credentials := make(map[int64][]byte, len(sources))

	for _, source := range sources {
		id, hash, ok := strings.Cut(strings.TrimSpace(source), ":")
		if !ok || hash == "" {
			return nil, fmt.Errorf("invalid source '%s', want <id>:<bcrypt hash>", source)
		}

		sourceID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid source id '%s': %w", id, err)
		}

		credentials[sourceID] = []byte(hash)
	}

	return credentials, nil
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

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
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

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

// newRouter serves the protocol endpoints openly. Operator endpoints are served behind the api
// token, and not at all when no token is set.
func newRouter(svc *issuer.Service, token string) *mux.Router {
	router := mux.NewRouter()

	for _, handler := range restissuer.New(cmdissuer.New(svc)).GetRESTHandlers() {
		var h http.Handler = handler.Handle()

		if rest.IsOperatorOnly(handler) {
			if token == "" {
				logger.Warnf("operator endpoint %s %s disabled: no %s set", handler.Method(), handler.Path(),
					tokenFlagName)

				continue
			}

			h = authorizationMiddleware(token)(h)
		}

		router.Handle(handler.Path(), h).Methods(handler.Method())
	}

	return router
}

func startIssuer(parameters *issuerParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	svc, err := issuer.New(parameters.keys, mem.NewProvider(), parameters.opts...)
	if err != nil {
		return fmt.Errorf("failed to create issuer service: %w", err)
	}

	router := newRouter(svc, parameters.token)

	logger.Infof("Starting voucher issuer on host [%s]", parameters.host)

	handler := cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start voucher issuer on host [%s], cause:  %w", parameters.host, err)
	}

	return nil
}
