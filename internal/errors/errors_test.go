package errors_test

import (
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := apperrors.New(apperrors.KindSessionNotFound, "no session for that token")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	require.NotErrorIs(t, err, apperrors.ErrNoSessionsFound)
}

func TestKindSurvivesWrapping(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	err := pkgerrors.Wrap(apperrors.WithCause(apperrors.KindUnableToReachProvider, "exchange failed", cause), "[Test]")

	require.Equal(t, apperrors.KindUnableToReachProvider, apperrors.KindOf(err))
	require.ErrorIs(t, err, apperrors.ErrUnableToReachProvider)
	require.ErrorIs(t, err, cause)
}

func TestIsAuthentication(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "expired", err: apperrors.ErrExpiredToken, want: true},
		{name: "unknown", err: apperrors.ErrUnknownToken, want: true},
		{name: "session not found", err: apperrors.ErrSessionNotFound, want: false},
		{name: "plain", err: fmt.Errorf("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, apperrors.IsAuthentication(tt.err))
		})
	}
}

func TestWrapfNil(t *testing.T) {
	require.NoError(t, apperrors.Wrapf(nil, "context %d", 1))
	require.EqualError(t, apperrors.Wrapf(fmt.Errorf("x"), "context %d", 1), "context 1: x")
}
