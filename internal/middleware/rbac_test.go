package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pedago-hub/campus-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, params gin.Params, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = params
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	called := false
	RBAC(allowed...)(c)
	if !c.IsAborted() {
		called = true
	}
	if called {
		return http.StatusOK
	}
	return w.Code
}

func TestRBACRoles(t *testing.T) {
	instructor := &models.JWTClaims{UserID: "ins1", Role: models.RoleInstructor}
	student := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent}

	require.Equal(t, http.StatusOK, performRBAC(t, instructor, nil, "INSTRUCTOR", "DIRECTOR"))
	require.Equal(t, http.StatusForbidden, performRBAC(t, student, nil, "INSTRUCTOR", "DIRECTOR"))
	require.Equal(t, http.StatusUnauthorized, performRBAC(t, nil, nil, "INSTRUCTOR"))
}

func TestRBACSelf(t *testing.T) {
	student := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent}

	own := gin.Params{{Key: "studentId", Value: "stu1"}}
	other := gin.Params{{Key: "studentId", Value: "stu2"}}

	require.Equal(t, http.StatusOK, performRBAC(t, student, own, "SELF", "DIRECTOR"))
	require.Equal(t, http.StatusForbidden, performRBAC(t, student, other, "SELF", "DIRECTOR"))

	director := &models.JWTClaims{UserID: "dir1", Role: models.RoleDirector}
	require.Equal(t, http.StatusOK, performRBAC(t, director, other, "SELF", "DIRECTOR"))
}
