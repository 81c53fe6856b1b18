/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package voucher

import (
	"errors"

	"github.com/voucherkit/voucherkit/pkg/codec"
	"github.com/voucherkit/voucherkit/pkg/crypto/blockcipher"
	"github.com/voucherkit/voucherkit/pkg/transport"
)

var (
	// ErrInvalidState is returned when a step is attempted out of order.
	ErrInvalidState = errors.New("invalid generation state")
	// ErrInvalidBatch is returned for a batch size below one.
	ErrInvalidBatch = errors.New("invalid batch size")
)

// Error kinds reported by ErrorKind.
const (
	KindKeyRoleMismatch     = "KeyRoleMismatch"
	KindMalformedCiphertext = "MalformedCiphertext"
	KindDecryption          = "DecryptionError"
	KindSerialization       = "SerializationError"
	KindTransport           = "TransportError"
	KindInvalidState        = "InvalidState"
	KindUnknown             = "Error"
)

// ErrorKind names the class of err for reporting to users.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, blockcipher.ErrKeyRoleMismatch):
		return KindKeyRoleMismatch
	case errors.Is(err, blockcipher.ErrMalformedCiphertext):
		return KindMalformedCiphertext
	case errors.Is(err, blockcipher.ErrDecryption):
		return KindDecryption
	case errors.Is(err, codec.ErrSerialization), errors.Is(err, codec.ErrEncoding):
		return KindSerialization
	case errors.Is(err, transport.ErrTransport):
		return KindTransport
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	default:
		return KindUnknown
	}
}
