package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"orderhub/internal/logger"
	"orderhub/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	log         *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthHandler{authService: authService, log: log}
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Activated *bool  `json:"activated"`
	Admin     bool   `json:"admin"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// MessageResponse is the plain confirmation body.
type MessageResponse struct {
	Response string `json:"response"`
}

// IndexResponse is returned by the auth index route.
type IndexResponse struct {
	Response string `json:"response"`
	Auth     bool   `json:"auth"`
}

// LoginResponse carries both tokens.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AccessTokenResponse carries a single access token.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Index godoc
// @Summary Authentication index
// @Tags auth
// @Produce json
// @Success 200 {object} IndexResponse
// @Router /auth [get]
func (h *AuthHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, IndexResponse{
		Response: "You have accessed the default authentication route",
		Auth:     false,
	})
}

// Signup godoc
// @Summary Register a new user
// @Description Anyone may register a regular user. The first admin may be created anonymously; later admins require an admin bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Registration data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	user, err := h.authService.Signup(c.Request().Context(), service.SignupInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Activated: req.Activated,
		Admin:     req.Admin,
	}, principalFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, MessageResponse{
		Response: fmt.Sprintf("User %s registered successfully.", user.Email),
	})
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	})
}

// LoginForm godoc
// @Summary Login with an OAuth2 password form
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email"
// @Param password formData string true "Password"
// @Success 200 {object} AccessTokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login_form [post]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return badRequest("username and password are required")
	}

	pair, err := h.authService.Login(c.Request().Context(), username, password)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, AccessTokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
	})
}

// Refresh godoc
// @Summary Issue a new access token
// @Tags auth
// @Produce json
// @Success 200 {object} AccessTokenResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /auth/refresh [get]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token, err := h.authService.Refresh(c.Request().Context(), principalFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, AccessTokenResponse{
		AccessToken: token,
		TokenType:   service.TokenTypeBearer,
	})
}
