package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runRequireRole(session *Session, roles ...Role) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if session != nil {
		req = req.WithContext(WithSession(req.Context(), session))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	return RequireRole(roles...)(handler)(c)
}

func TestRequireRole_Allowed(t *testing.T) {
	if err := runRequireRole(&Session{SubjectID: 1, Role: RoleDoctor}, RoleDoctor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_AdminPassesEveryGate(t *testing.T) {
	if err := runRequireRole(&Session{SubjectID: 1, Role: RoleAdmin}, RoleDoctor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	err := runRequireRole(&Session{SubjectID: 1, Role: RolePatient}, RoleDoctor)
	expectStatus(t, err, http.StatusForbidden)
	if msg := err.(*echo.HTTPError).Message; msg != "required role: doctor" {
		t.Errorf("unexpected message %v", msg)
	}
}

func TestRequireRole_NoSession(t *testing.T) {
	expectStatus(t, runRequireRole(nil, RoleAdmin), http.StatusUnauthorized)
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		have Role
		want []Role
		ok   bool
	}{
		{RolePatient, []Role{RolePatient}, true},
		{RolePatient, []Role{RoleDoctor, RoleAdmin}, false},
		{RoleDoctor, []Role{RolePatient, RoleDoctor}, true},
		{RoleAdmin, []Role{RolePatient}, true},
		{"", []Role{RolePatient}, false},
	}
	for _, tt := range tests {
		if got := HasRole(tt.have, tt.want...); got != tt.ok {
			t.Errorf("HasRole(%q, %v) = %v, want %v", tt.have, tt.want, got, tt.ok)
		}
	}
}
