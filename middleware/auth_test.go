package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/qalamhq/qalam/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/secret", AuthRequired(), func(ctx *gin.Context) {
		id, ok := UserID(ctx)
		if !ok {
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "missing identity"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func request(t *testing.T, r *gin.Engine, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredRejects(t *testing.T) {
	r := protectedRouter()

	expired := expiredToken(t)
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"no token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := request(t, r, tc.header)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	r := protectedRouter()

	token, err := utils.GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := request(t, r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func expiredToken(t *testing.T) string {
	t.Helper()
	claims := utils.Claims{
		UserID:   42,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	return token
}
