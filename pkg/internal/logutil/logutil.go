/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil writes one structured line per command outcome.
//
// Lines look like
//
//	command=[issuer] action=[CreateVoucher] outcome=[rejected] sourceId=[4711] errMsg=[nonce already used]
//
// Values of secret fields are masked.
package logutil

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

const masked = "***"

// Outcomes written to the outcome field.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Field is one key=[value] pair of a log line.
type Field struct {
	Key   string
	Value string
}

// KV returns a Field rendering v with %v.
func KV(key string, v interface{}) Field {
	return Field{Key: key, Value: fmt.Sprint(v)}
}

// CommandLogger logs the outcomes of one command's actions.
type CommandLogger struct {
	logger  log.Logger
	command string
	secrets map[string]struct{}
}

// NewCommandLogger returns a CommandLogger for command. Fields named in secrets are masked.
func NewCommandLogger(logger log.Logger, command string, secrets ...string) *CommandLogger {
	s := make(map[string]struct{}, len(secrets))
	for _, k := range secrets {
		s[strings.ToLower(k)] = struct{}{}
	}

	return &CommandLogger{logger: logger, command: command, secrets: s}
}

// Succeeded logs a completed action at debug level.
func (l *CommandLogger) Succeeded(action string, fields ...Field) {
	l.logger.Debugf("%s", l.line(action, OutcomeSucceeded, "", fields))
}

// Rejected logs an action refused because of the caller's input, at info level.
func (l *CommandLogger) Rejected(action string, err error, fields ...Field) {
	l.logger.Infof("%s", l.line(action, OutcomeRejected, errMsg(err), fields))
}

// Failed logs an action that failed on our side, at error level.
func (l *CommandLogger) Failed(action string, err error, fields ...Field) {
	l.logger.Errorf("%s", l.line(action, OutcomeFailed, errMsg(err), fields))
}

func (l *CommandLogger) line(action, outcome, msg string, fields []Field) string {
	var b strings.Builder

	fmt.Fprintf(&b, "command=[%s] action=[%s] outcome=[%s]", l.command, action, outcome)

	for _, f := range fields {
		v := f.Value
		if _, ok := l.secrets[strings.ToLower(f.Key)]; ok {
			v = masked
		}

		fmt.Fprintf(&b, " %s=[%s]", f.Key, v)
	}

	if msg != "" {
		fmt.Fprintf(&b, " errMsg=[%s]", msg)
	}

	return b.String()
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
