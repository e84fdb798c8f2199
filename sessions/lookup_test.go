package sessions_test

import (
	"testing"

	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/stretchr/testify/require"
)

func TestFindByToken(t *testing.T) {
	verify := func(secret, hashed string) bool { return "h(" + secret + ")" == hashed }
	candidates := []*sessions.Session{
		{ID: "1", AccessTokenHash: "h(a1)", RefreshTokenHash: "h(r1)"},
		{ID: "2", AccessTokenHash: "h(a2)", RefreshTokenHash: "h(r2)"},
	}

	require.Equal(t, "2", sessions.FindByToken(candidates, sessions.AccessHash, "a2", verify).ID)
	require.Equal(t, "1", sessions.FindByToken(candidates, sessions.RefreshHash, "r1", verify).ID)
	require.Nil(t, sessions.FindByToken(candidates, sessions.AccessHash, "r1", verify))
	require.Nil(t, sessions.FindByToken(nil, sessions.AccessHash, "a1", verify))
}
