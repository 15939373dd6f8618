// Package auth logs internal users in through the gateway's directory
// endpoint. Supplier tokens never pass through here.
package auth

import (
	"context"
	"strings"

	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/gateway"
	"github.com/compranal/supplier_portal/internal/logging"
)

// appName identifies this application to the directory service.
const appName = "supplier-portal"

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	AppName  string `json:"appName"`
}

// User is the directory profile returned on a successful login. Token is
// the bearer the internal screens forward upstream.
type User struct {
	Token           string `json:"token"`
	CN              string `json:"cn"`
	DisplayName     string `json:"displayName"`
	Mail            string `json:"mail"`
	GivenName       string `json:"givenName"`
	Surname         string `json:"sn"`
	TelephoneNumber string `json:"telephoneNumber"`
}

// LoginResult carries the gateway's message alongside the profile.
type LoginResult struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Service authenticates internal users against the gateway.
type Service struct {
	gw     *gateway.Client
	logger *logging.Logger
}

// NewService creates the auth service.
func NewService(gw *gateway.Client, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefault("auth")
	}
	return &Service{gw: gw, logger: logger}
}

// Login exchanges directory credentials for a bearer token and profile.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.ValidationFailed("username", "El usuario es requerido")
	}
	if password == "" {
		return nil, errors.ValidationFailed("password", "La contraseña es requerida")
	}

	creds := Credentials{Username: username, Password: password, AppName: appName}
	var result LoginResult
	if err := s.gw.Post(ctx, "auth.login", "/login-by-da", creds, &result); err != nil {
		s.logger.WithContext(ctx).WithField("username", username).
			Warn("login rechazado por el directorio")
		return nil, errors.Unauthorized("Usuario o contraseña inválidos")
	}
	if result.User.Token == "" {
		return nil, errors.Unauthorized("Usuario o contraseña inválidos")
	}
	return &result, nil
}
