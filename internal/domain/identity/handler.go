package identity

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/auth"
)

// TokenIssuer is satisfied by *auth.SessionManager.
type TokenIssuer interface {
	Issue(subjectID int64, role auth.Role) (string, time.Time, error)
}

type Handler struct {
	svc    *Service
	tokens TokenIssuer
}

func NewHandler(svc *Service, tokens TokenIssuer) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// RegisterRoutes mounts the /auth endpoints on g. requireAuth guards the
// endpoints that need an existing session.
func (h *Handler) RegisterRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.RegisterByEmail)
	g.POST("/register-phone", h.RegisterByPhone)
	g.POST("/login", h.LoginByEmail)
	g.POST("/login-phone", h.LoginByPhone)
	g.GET("/me", h.Me, requireAuth)
}

// RegisterPatientRoutes mounts the /patients endpoints on g, which must
// already require authentication.
func (h *Handler) RegisterPatientRoutes(g *echo.Group) {
	g.GET("/:id", h.GetPatientProfile)
}

type sessionResponse struct {
	User      *Identity `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type emailLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type phoneLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) RegisterByEmail(c echo.Context) error {
	var req EmailRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	i, err := h.svc.RegisterByEmail(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusCreated, i)
}

func (h *Handler) RegisterByPhone(c echo.Context) error {
	var req PhoneRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	i, err := h.svc.RegisterByPhone(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusCreated, i)
}

func (h *Handler) LoginByEmail(c echo.Context) error {
	var req emailLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	i, err := h.svc.LoginByEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, i)
}

func (h *Handler) LoginByPhone(c echo.Context) error {
	var req phoneLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	i, err := h.svc.LoginByPhone(c.Request().Context(), req.Phone, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, i)
}

// Me returns the identity behind the bearer token.
func (h *Handler) Me(c echo.Context) error {
	id := auth.SubjectIDFromContext(c.Request().Context())
	if id == 0 {
		return apperr.ErrUnauthenticated
	}
	i, err := h.svc.GetIdentity(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, i)
}

// GetPatientProfile returns a patient's profile. Patients may only read their
// own; other ids look missing to them.
func (h *Handler) GetPatientProfile(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperr.Invalid("id", "id must be a positive integer")
	}
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RolePatient && auth.SubjectIDFromContext(ctx) != id {
		return apperr.NotFound("patient")
	}
	p, err := h.svc.GetPatientProfile(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) respondWithSession(c echo.Context, status int, i *Identity) error {
	token, expiresAt, err := h.tokens.Issue(i.ID, i.Role)
	if err != nil {
		return err
	}
	return c.JSON(status, sessionResponse{User: i, Token: token, ExpiresAt: expiresAt})
}
