/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package codec

import (
	"bytes"
	"encoding/json"
)

// Serializer converts payload values to and from their canonical byte form.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// JSONSerializer is the canonical UTF-8 JSON serializer.
type JSONSerializer struct {
	// Strict rejects objects carrying fields the target type does not declare.
	Strict bool
}

// Marshal encodes v as compact JSON.
func (s JSONSerializer) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes a single JSON value from data into v.
func (s JSONSerializer) Unmarshal(data []byte, v interface{}) error {
	if !s.Strict {
		return json.Unmarshal(data, v)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}
