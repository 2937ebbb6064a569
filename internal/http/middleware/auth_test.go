package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/http/middleware"
)

func contextWithAuthorization(t *testing.T, header string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c.Request = req
	return c
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
	}{
		"missing":           {"", ""},
		"bare token":        {"abc.def.ghi", "abc.def.ghi"},
		"bearer prefix":     {"Bearer abc.def.ghi", "abc.def.ghi"},
		"lowercase bearer":  {"bearer abc.def.ghi", "abc.def.ghi"},
		"quoted token":      {`Bearer "abc.def.ghi"`, "abc.def.ghi"},
		"quoted bare token": {`"abc.def.ghi"`, "abc.def.ghi"},
		"wrong scheme":      {"Basic abc.def.ghi", ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := contextWithAuthorization(t, tc.header)
			require.Equal(t, tc.want, middleware.BearerToken(c))
		})
	}
}

func TestStripQuotes(t *testing.T) {
	require.Equal(t, "token", middleware.StripQuotes(`"token"`))
	require.Equal(t, "token", middleware.StripQuotes(` "token" `))
	require.Equal(t, "token", middleware.StripQuotes("token"))
	require.Equal(t, "", middleware.StripQuotes(`""`))
}
