// Package admin implements the internally authenticated management flows:
// the message-type taxonomy and the allowed-users list. Both are thin
// passthroughs to the external API gateway; the caller's bearer token is
// forwarded on every request and authorization stays upstream.
package admin

import (
	"context"
	"net/url"
	"strconv"

	"github.com/compranal/supplier_portal/internal/gateway"
	"github.com/compranal/supplier_portal/internal/logging"
)

// MessageType is a taxonomy entry as the admin endpoints return it.
type MessageType struct {
	MensajeID   int    `json:"mensaje_id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Estado      string `json:"estado"`
}

// MessageTypeInput is the create/update payload for a taxonomy entry.
type MessageTypeInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	State       string `json:"state"`
}

// AllowedUser is one entry of the allowed-users list.
type AllowedUser struct {
	UsuarioID    int    `json:"usuario_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	NumDocumento string `json:"num_documento"`
	Estado       string `json:"estado"`
}

// AllowedUserInput is the create/update payload for an allowed user.
type AllowedUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	NumDoc   string `json:"numDoc"`
	State    string `json:"state"`
}

// Service is the admin passthrough client.
type Service struct {
	gw     *gateway.Client
	logger *logging.Logger
}

// NewService creates the admin service.
func NewService(gw *gateway.Client, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefault("admin")
	}
	return &Service{gw: gw, logger: logger}
}

// MessageTypes lists all taxonomy entries, active and inactive.
func (s *Service) MessageTypes(ctx context.Context, bearer string) ([]MessageType, error) {
	var resp struct {
		Messages []MessageType `json:"messages"`
	}
	err := s.gw.GetWithBearer(ctx, "admin.messages.list", "/messages", bearer, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// CreateMessageType creates a taxonomy entry and returns the gateway's
// confirmation message.
func (s *Service) CreateMessageType(ctx context.Context, bearer string, input MessageTypeInput) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := s.gw.PostWithBearer(ctx, "admin.messages.create", "/messages", input, bearer, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// UpdateMessageType updates a taxonomy entry. Deactivation is an update to
// Estado; entries are never deleted so historic comments keep their labels.
func (s *Service) UpdateMessageType(ctx context.Context, bearer string, id int, input MessageTypeInput) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := s.gw.PatchWithBearer(ctx, "admin.messages.update",
		"/messages/"+strconv.Itoa(id), input, bearer, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// AllowedUsers lists the users allowed into the internal screens.
func (s *Service) AllowedUsers(ctx context.Context, bearer string) ([]AllowedUser, error) {
	var resp struct {
		Users []AllowedUser `json:"users"`
	}
	err := s.gw.GetWithBearer(ctx, "admin.users.list", "/users-allowed", bearer, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// GiveAccess adds a user to the allowed list.
func (s *Service) GiveAccess(ctx context.Context, bearer string, input AllowedUserInput) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := s.gw.PostWithBearer(ctx, "admin.users.create", "/users-allowed", input, bearer, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// UpdateAccess updates an allowed user's data or state.
func (s *Service) UpdateAccess(ctx context.Context, bearer string, userID int, input AllowedUserInput) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := s.gw.PatchWithBearer(ctx, "admin.users.update",
		"/users-allowed/"+url.PathEscape(strconv.Itoa(userID)), input, bearer, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
