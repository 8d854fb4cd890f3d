package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
)

func reviewRouter(roles ...models.UserRole) (*gin.Engine, func(role models.UserRole) int) {
	router := gin.New()
	router.PATCH("/bitacoras/:id/revision",
		func(c *gin.Context) {
			if role := c.GetHeader("X-Test-Role"); role != "" {
				c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.UserRole(role)})
			}
		},
		RequireRoles(roles...),
		func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		},
	)

	do := func(role models.UserRole) int {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/bitacoras/wl-1/revision", nil)
		if role != "" {
			req.Header.Set("X-Test-Role", string(role))
		}
		router.ServeHTTP(recorder, req)
		return recorder.Code
	}
	return router, do
}

func TestRequireRolesAllowsEveryListedRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, do := reviewRouter(models.RoleTeacher, models.RoleAdmin)

	if code := do(models.RoleTeacher); code != http.StatusNoContent {
		t.Fatalf("teacher should pass review gate, got %d", code)
	}
	if code := do(models.RoleAdmin); code != http.StatusNoContent {
		t.Fatalf("administrator should pass review gate, got %d", code)
	}
}

func TestRequireRolesRejectsUnlistedRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, do := reviewRouter(models.RoleTeacher, models.RoleAdmin)

	if code := do(models.RoleStudent); code != http.StatusForbidden {
		t.Fatalf("student should be rejected, got %d", code)
	}
}

func TestRequireRolesRejectsMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, do := reviewRouter(models.RoleTeacher)

	if code := do(""); code != http.StatusUnauthorized {
		t.Fatalf("missing claims should be unauthorized, got %d", code)
	}
}

func TestRequireRolesDoesNotMatchResourceOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// claims.UserID equals the :id param; role membership alone must decide
	router := gin.New()
	router.GET("/recurso/:id",
		func(c *gin.Context) {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})
		},
		RequireRoles(models.RoleTeacher),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		},
	)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/recurso/user-1", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("ownership must not bypass role check, got %d", recorder.Code)
	}
}
