package ckpool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{"nil", nil, KindNone},
		{"transport", &TransportError{Endpoint: "x", Err: errors.New("refused")}, KindTransport},
		{"endpoint", &EndpointError{Base: "x", Err: ErrEmptyIdentifier}, KindInvalidEndpoint},
		{"not found", &NotFoundError{Identifier: "x"}, KindUserNotFound},
		{"decode", &DecodeError{Field: "workers", Err: ErrMissingField}, KindDecode},
		{"upstream", &UpstreamError{StatusCode: 503}, KindUpstream},
		{"wrapped", fmt.Errorf("harvest: %w", &NotFoundError{Identifier: "x"}), KindUserNotFound},
		{"foreign", errors.New("other"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "ok", KindNone.String())
	assert.Equal(t, "user_not_found", KindUserNotFound.String())
	assert.Equal(t, "upstream", KindUpstream.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "ckpool API error (HTTP 500) at /users/x: boom",
		(&UpstreamError{StatusCode: 500, Endpoint: "/users/x", Message: "boom"}).Error())
	assert.Equal(t, "ckpool API error (HTTP 502) at /users/x",
		(&UpstreamError{StatusCode: 502, Endpoint: "/users/x"}).Error())
	assert.Equal(t, "user not found: bc1q",
		(&NotFoundError{Identifier: "bc1q"}).Error())
	assert.Equal(t, "decode user stats: field workers: missing required field",
		(&DecodeError{Field: "workers", Err: ErrMissingField}).Error())
}

func TestTransportErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Endpoint: "http://x/users/y", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrUpstream)
}
