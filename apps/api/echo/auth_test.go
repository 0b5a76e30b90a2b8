package echoapi

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"

	"github.com/tsakani/alama/core/user"
)

// The auth middleware and our claims must share the same jwt library;
// a minted token has to come back out of the request context intact.
func TestTokenRoundTripThroughMiddleware(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "Awa", "awa123", "awa@test.com", "s3cr3tpwd", []string{user.RoleStudent})

	rec := app.request(http.MethodPost, "/v1/users/token-refresh", app.getToken(t, usr))
	checkCode(t, rec, http.StatusOK)

	var res LoginResponse
	decodeBody(t, rec, &res)
	if res.Token == "" {
		t.Fatal("expected a refreshed token")
	}

	claims := new(Claims)
	_, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testConf.SecretKey), nil
	})
	if err != nil {
		t.Fatalf("parsing refreshed token: %v", err)
	}
	assert.Equal(t, usr.ID, claims.Subject)
	assert.Equal(t, usr.Username, claims.Username)
	assert.True(t, claims.IsStudent)
}
