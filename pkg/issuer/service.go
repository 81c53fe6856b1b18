/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuer implements the counterparty side of the voucher protocol.
//
// A create request is decrypted with the issuer's private key, checked against its cleartext
// correlation fields and answered with a fresh one-time code and password encrypted for the
// client. The one-time code stays pending until it is verified or its TTL runs out.
package issuer

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"golang.org/x/crypto/bcrypt"

	"github.com/voucherkit/voucherkit/pkg/codec"
	"github.com/voucherkit/voucherkit/pkg/kms"
	"github.com/voucherkit/voucherkit/pkg/voucher"
)

var logger = log.New("voucherkit/pkg/issuer")

// StoreName is the storage namespace holding voucher records.
const StoreName = "voucher_records"

const (
	sourceIDTag = "sourceId"
	statusTag   = "status"

	passwordBytes = 9

	// DefaultOTCTTL is how long a one-time code waits for verification.
	DefaultOTCTTL = 10 * time.Minute
	// DefaultMaxPending bounds the number of unverified one-time codes and remembered nonces.
	DefaultMaxPending = 10000
)

var (
	// ErrInvalidRequest is returned for requests that cannot be decrypted or are inconsistent.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized is returned when a source's password does not match.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNonceReplay is returned when a nonce is seen twice.
	ErrNonceReplay = errors.New("nonce already used")
	// ErrUnknownOTC is returned for one-time codes that are unknown, expired or no longer pending.
	ErrUnknownOTC = errors.New("unknown one-time code")
	// ErrNotRedeemable is returned when redeeming a batch that is not verified.
	ErrNotRedeemable = errors.New("voucher batch not redeemable")
)

// Service issues and verifies voucher batches.
type Service struct {
	// mu serializes load-check-store sequences on nonces and records.
	mu sync.Mutex

	codec   *codec.Codec
	keys    *kms.KeyPair
	store   storage.Store
	pending gcache.Cache
	nonces  gcache.Cache

	sources    map[int64][]byte
	bcryptCost int
	now        func() time.Time
}

type options struct {
	ttl        time.Duration
	maxPending int
	sources    map[int64][]byte
	bcryptCost int
	clock      gcache.Clock
	now        func() time.Time
}

// Option configures a Service.
type Option func(opts *options)

// WithOTCTTL sets how long a one-time code stays verifiable. Nonces are remembered four times as long.
func WithOTCTTL(ttl time.Duration) Option {
	return func(opts *options) {
		opts.ttl = ttl
	}
}

// WithMaxPending bounds the pending one-time code and nonce caches.
func WithMaxPending(n int) Option {
	return func(opts *options) {
		opts.maxPending = n
	}
}

// WithSourceCredentials restricts create requests to the given sources, keyed to bcrypt hashes of
// their passwords.
func WithSourceCredentials(sources map[int64][]byte) Option {
	return func(opts *options) {
		opts.sources = sources
	}
}

// WithBcryptCost sets the cost used to hash issued passwords.
func WithBcryptCost(cost int) Option {
	return func(opts *options) {
		opts.bcryptCost = cost
	}
}

// WithClock sets the time source for cache expiry and record timestamps.
func WithClock(clock gcache.Clock) Option {
	return func(opts *options) {
		opts.clock = clock
		opts.now = clock.Now
	}
}

// New creates the issuer. keys holds the issuer's private key and the client's public key.
func New(keys *kms.KeyPair, provider storage.Provider, opts ...Option) (*Service, error) {
	o := &options{
		ttl:        DefaultOTCTTL,
		maxPending: DefaultMaxPending,
		bcryptCost: bcrypt.DefaultCost,
		clock:      gcache.NewRealClock(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	if keys == nil || keys.Private == nil || keys.Public == nil {
		return nil, errors.New("issuer: private key and client public key are required")
	}

	if o.ttl <= 0 || o.maxPending <= 0 {
		return nil, fmt.Errorf("issuer: invalid ttl %s or cache size %d", o.ttl, o.maxPending)
	}

	store, err := provider.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("issuer: open store: %w", err)
	}

	if err := provider.SetStoreConfig(StoreName,
		storage.StoreConfiguration{TagNames: []string{sourceIDTag, statusTag}}); err != nil {
		return nil, fmt.Errorf("issuer: set store config: %w", err)
	}

	return &Service{
		codec:      codec.New(),
		keys:       keys,
		store:      store,
		pending:    gcache.New(o.maxPending).LRU().Expiration(o.ttl).Clock(o.clock).Build(),
		nonces:     gcache.New(o.maxPending).LRU().Expiration(4 * o.ttl).Clock(o.clock).Build(),
		sources:    o.sources,
		bcryptCost: o.bcryptCost,
		now:        o.now,
	}, nil
}

// Create issues a voucher batch for a create request.
func (s *Service) Create(req *voucher.CreateRequest) (*voucher.CreateResponse, error) {
	if req.Payload == "" || req.Nonce == "" {
		return nil, fmt.Errorf("%w: payload and nonce are required", ErrInvalidRequest)
	}

	content, err := codec.Decode[voucher.Content](s.codec, req.Payload, s.keys.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := s.validate(req, &content); err != nil {
		return nil, err
	}

	if err := s.reserveNonce(content.Nonce); err != nil {
		return nil, err
	}

	resp, err := s.issue(&content)
	if err != nil {
		// Nothing was issued, so a retry with the same nonce is allowed.
		s.nonces.Remove(content.Nonce)

		return nil, err
	}

	return resp, nil
}

func (s *Service) reserveNonce(nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.nonces.Get(nonce); err == nil {
		return fmt.Errorf("%w: %s", ErrNonceReplay, nonce)
	}

	if err := s.nonces.Set(nonce, struct{}{}); err != nil {
		return fmt.Errorf("issuer: remember nonce: %w", err)
	}

	return nil
}

func (s *Service) issue(content *voucher.Content) (*voucher.CreateResponse, error) {
	password, err := newPassword()
	if err != nil {
		return nil, err
	}

	creds := voucher.Credentials{OTC: uuid.New(), Password: password}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("issuer: hash password: %w", err)
	}

	rec := &Record{
		OTC:          creds.OTC,
		SourceID:     content.SourceID,
		Nonce:        content.Nonce,
		Vouchers:     content.Vouchers,
		PasswordHash: hash,
		Status:       StatusCreated,
		CreatedAt:    s.now().UTC(),
	}

	payload, err := codec.Encode(s.codec, creds, s.keys.Public)
	if err != nil {
		return nil, err
	}

	if err := s.put(rec); err != nil {
		return nil, err
	}

	if err := s.pending.Set(creds.OTC.String(), struct{}{}); err != nil {
		if e := s.store.Delete(creds.OTC.String()); e != nil {
			logger.Warnf("failed to remove untracked batch %s: %s", creds.OTC, e)
		}

		return nil, fmt.Errorf("issuer: track one-time code: %w", err)
	}

	logger.Infof("issued batch %s with %d voucher specs for source %d", creds.OTC, len(content.Vouchers),
		content.SourceID)

	return &voucher.CreateResponse{Payload: payload}, nil
}

// Verify confirms a pending one-time code.
func (s *Service) Verify(req *voucher.VerifyRequest) (*Record, error) {
	content, err := codec.Decode[voucher.VerifyContent](s.codec, req.Payload, s.keys.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	key := content.OTC.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.pending.Get(key); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOTC, key)
	}

	rec, err := s.Record(content.OTC)
	if err != nil {
		return nil, err
	}

	verifiedAt := s.now().UTC()
	rec.Status = StatusVerified
	rec.VerifiedAt = &verifiedAt

	if err := s.put(rec); err != nil {
		return nil, err
	}

	s.pending.Remove(key)

	logger.Infof("verified batch %s", key)

	return rec, nil
}

// Redeem marks a verified batch as redeemed if password matches. A batch is redeemed at most once.
func (s *Service) Redeem(req *RedeemRequest) (*Record, error) {
	rec, err := s.Record(req.OTC)
	if err != nil {
		return nil, err
	}

	if rec.Status != StatusVerified {
		return nil, fmt.Errorf("%w: batch %s is %s", ErrNotRedeemable, req.OTC, rec.Status)
	}

	// The hash never changes after issue, so it is checked outside the lock.
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: wrong password for batch %s", ErrUnauthorized, req.OTC)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err = s.Record(req.OTC)
	if err != nil {
		return nil, err
	}

	if rec.Status != StatusVerified {
		return nil, fmt.Errorf("%w: batch %s is %s", ErrNotRedeemable, req.OTC, rec.Status)
	}

	redeemedAt := s.now().UTC()
	rec.Status = StatusRedeemed
	rec.RedeemedAt = &redeemedAt

	if err := s.put(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// Record loads the record for otc.
func (s *Service) Record(otc uuid.UUID) (*Record, error) {
	raw, err := s.store.Get(otc.String())
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOTC, otc)
	} else if err != nil {
		return nil, fmt.Errorf("issuer: get record: %w", err)
	}

	rec := &Record{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("issuer: decode record: %w", err)
	}

	return rec, nil
}

// Records lists every record issued to sourceID.
func (s *Service) Records(sourceID int64) ([]*Record, error) {
	iter, err := s.store.Query(sourceIDTag + ":" + strconv.FormatInt(sourceID, 10))
	if err != nil {
		return nil, fmt.Errorf("issuer: query records: %w", err)
	}

	defer func() {
		if e := iter.Close(); e != nil {
			logger.Warnf("failed to close record iterator: %s", e)
		}
	}()

	var records []*Record

	for {
		more, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("issuer: iterate records: %w", err)
		}

		if !more {
			return records, nil
		}

		raw, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("issuer: read record: %w", err)
		}

		rec := &Record{}
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, fmt.Errorf("issuer: decode record: %w", err)
		}

		records = append(records, rec)
	}
}

func (s *Service) validate(req *voucher.CreateRequest, content *voucher.Content) error {
	if content.SourceID != req.SourceID || content.Nonce != req.Nonce {
		return fmt.Errorf("%w: cleartext source id or nonce does not match payload", ErrInvalidRequest)
	}

	if len(content.Vouchers) == 0 {
		return fmt.Errorf("%w: no vouchers requested", ErrInvalidRequest)
	}

	for i, v := range content.Vouchers {
		if v.Count <= 0 {
			return fmt.Errorf("%w: voucher %d has count %d", ErrInvalidRequest, i, v.Count)
		}
	}

	if s.sources == nil {
		return nil
	}

	hash, ok := s.sources[content.SourceID]
	if !ok {
		return fmt.Errorf("%w: unknown source %d", ErrUnauthorized, content.SourceID)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(content.Password)); err != nil {
		return fmt.Errorf("%w: wrong password for source %d", ErrUnauthorized, content.SourceID)
	}

	return nil
}

func (s *Service) put(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("issuer: encode record: %w", err)
	}

	err = s.store.Put(rec.OTC.String(), raw,
		storage.Tag{Name: sourceIDTag, Value: strconv.FormatInt(rec.SourceID, 10)},
		storage.Tag{Name: statusTag, Value: string(rec.Status)},
	)
	if err != nil {
		return fmt.Errorf("issuer: store record: %w", err)
	}

	return nil
}

func newPassword() (string, error) {
	b := make([]byte, passwordBytes)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("issuer: generate password: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
