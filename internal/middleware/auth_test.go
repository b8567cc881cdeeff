package middleware

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TianUrien/playr-chat/pkg/errcode"
	"github.com/TianUrien/playr-chat/pkg/jwt"
)

type stubValidator struct {
	claims *jwt.Claims
	err    error
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func newAuthEngine(v TokenValidator) *route.Engine {
	e := route.NewEngine(hertzconfig.NewOptions(nil))
	e.GET("/protected", JWTAuth(v), func(ctx context.Context, c *app.RequestContext) {
		c.JSON(200, map[string]string{"user_id": GetUserId(c)})
	})
	return e
}

func performGet(t *testing.T, e *route.Engine, headers ...ut.Header) map[string]interface{} {
	t.Helper()
	w := ut.PerformRequest(e, "GET", "/protected", nil, headers...)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	return body
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	e := newAuthEngine(&stubValidator{})

	body := performGet(t, e)
	assert.Equal(t, float64(errcode.ErrTokenMissing.Code), body["code"])
	assert.NotContains(t, body, "user_id")
}

func TestJWTAuthRejectsMalformedHeader(t *testing.T) {
	e := newAuthEngine(&stubValidator{})

	body := performGet(t, e, ut.Header{Key: AuthorizationHeader, Value: "Token abc"})
	assert.Equal(t, float64(errcode.ErrTokenInvalid.Code), body["code"])
}

func TestJWTAuthRejectsRevokedToken(t *testing.T) {
	// The validator sees a well-formed JWT whose status was revoked on logout
	e := newAuthEngine(&stubValidator{err: errcode.ErrTokenInvalid})

	body := performGet(t, e, ut.Header{Key: AuthorizationHeader, Value: "Bearer revoked-token"})
	assert.Equal(t, float64(errcode.ErrTokenInvalid.Code), body["code"])
	assert.NotContains(t, body, "user_id")
}

func TestJWTAuthPassesValidToken(t *testing.T) {
	e := newAuthEngine(&stubValidator{claims: &jwt.Claims{UserId: "pl__42", PlatformId: 5}})

	body := performGet(t, e, ut.Header{Key: AuthorizationHeader, Value: "Bearer good-token"})
	assert.Equal(t, "pl__42", body["user_id"])
}
