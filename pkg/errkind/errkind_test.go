package errkind_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	testCases := []struct {
		name    string
		code    int
		message string
		kind    errkind.Kind
		wantMsg string
	}{
		{"400 carries server message", 400, "symbol missing", errkind.InvalidRequest, "symbol missing"},
		{"400 default message", 400, "", errkind.InvalidRequest, "Invalid request"},
		{"401", 401, "ignored", errkind.Unauthorized, "Authentication failed. Please sign in again."},
		{"403 subscription reason", 403, "Monthly view limit reached", errkind.Forbidden, "Monthly view limit reached"},
		{"403 default message", 403, "", errkind.Forbidden, "Access forbidden"},
		{"404", 404, "", errkind.NotFound, ""},
		{"500", 500, "", errkind.ServerError, ""},
		{"503", 503, "", errkind.ServerError, ""},
		{"418", 418, "", errkind.HTTPError, ""},
		{"302", 302, "", errkind.HTTPError, ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			e := errkind.FromStatus(tc.code, tc.message)
			require.NotNil(t, e)
			assert.Equal(t, tc.kind, e.Kind)
			assert.Equal(t, tc.code, e.Code)
			assert.Equal(t, tc.wantMsg, e.Message)
		})
	}

	t.Run("2xx is not an error", func(t *testing.T) {
		assert.Nil(t, errkind.FromStatus(200, ""))
		assert.Nil(t, errkind.FromStatus(204, ""))
		assert.Nil(t, errkind.FromStatus(299, ""))
	})
}

func TestFrom(t *testing.T) {
	t.Run("keeps an existing kind through wrapping", func(t *testing.T) {
		inner := errkind.New(errkind.NoAuthToken, "no token")
		err := fmt.Errorf("fetch stock list: %w", inner)

		assert.Equal(t, errkind.NoAuthToken, errkind.KindOf(err))
		assert.Same(t, inner, errkind.From(err))
	})

	t.Run("classifies context errors", func(t *testing.T) {
		assert.Equal(t, errkind.Timeout, errkind.KindOf(context.DeadlineExceeded))
		assert.Equal(t, errkind.Canceled, errkind.KindOf(fmt.Errorf("wrapped: %w", context.Canceled)))
	})

	t.Run("classifies network errors", func(t *testing.T) {
		err := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		assert.Equal(t, errkind.NetworkUnreachable, errkind.KindOf(err))
	})

	t.Run("unknown for anything else", func(t *testing.T) {
		assert.Equal(t, errkind.Unknown, errkind.KindOf(errors.New("boom")))
		assert.Nil(t, errkind.From(nil))
	})
}

func TestError_Predicates(t *testing.T) {
	assert.True(t, errkind.FromStatus(502, "").Retryable())
	assert.True(t, errkind.New(errkind.Timeout, "").Retryable())
	assert.False(t, errkind.FromStatus(404, "").Retryable())

	assert.True(t, errkind.FromStatus(401, "").RequiresReauth())
	assert.True(t, errkind.New(errkind.NoAuthToken, "").RequiresReauth())
	assert.False(t, errkind.FromStatus(403, "").RequiresReauth())

	assert.True(t, errkind.FromStatus(403, "limit").IsSubscriptionLimit())
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", errkind.FromStatus(503, ""))
	assert.ErrorIs(t, err, errkind.New(errkind.ServerError, ""))
	assert.NotErrorIs(t, err, errkind.New(errkind.NotFound, ""))
	assert.Equal(t, "outer: server error (503)", err.Error())
}
