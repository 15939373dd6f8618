package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/compranal/supplier_portal/internal/admin"
	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/httputil"
	"github.com/compranal/supplier_portal/internal/middleware"
	"github.com/compranal/supplier_portal/internal/npo"
)

const maxAdminBodyBytes = 64 << 10

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeBody(r, &req, maxAdminBodyBytes); err != nil {
		httputil.WriteError(w, errors.ValidationFailed("body", "Cuerpo de la solicitud inválido"))
		return
	}

	result, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// ============================================================================
// Message-type taxonomy administration
// ============================================================================

func (s *Server) handleAdminMessageTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.adminSvc.MessageTypes(r.Context(), middleware.Bearer(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if types == nil {
		types = []admin.MessageType{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{"messages": types})
}

func (s *Server) handleAdminCreateMessageType(w http.ResponseWriter, r *http.Request) {
	var input admin.MessageTypeInput
	if err := httputil.DecodeBody(r, &input, maxAdminBodyBytes); err != nil {
		httputil.WriteError(w, errors.ValidationFailed("body", "Cuerpo de la solicitud inválido"))
		return
	}
	if input.Name == "" {
		httputil.WriteError(w, errors.ValidationFailed("name", "El nombre es requerido"))
		return
	}

	msg, err := s.adminSvc.CreateMessageType(r.Context(), middleware.Bearer(r.Context()), input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"message": msg})
}

func (s *Server) handleAdminUpdateMessageType(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		httputil.WriteError(w, errors.ValidationFailed("id", "Identificador inválido"))
		return
	}

	var input admin.MessageTypeInput
	if err := httputil.DecodeBody(r, &input, maxAdminBodyBytes); err != nil {
		httputil.WriteError(w, errors.ValidationFailed("body", "Cuerpo de la solicitud inválido"))
		return
	}

	msg, err := s.adminSvc.UpdateMessageType(r.Context(), middleware.Bearer(r.Context()), id, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"message": msg})
}

// ============================================================================
// Allowed-users administration
// ============================================================================

func (s *Server) handleAdminUsersAllowed(w http.ResponseWriter, r *http.Request) {
	users, err := s.adminSvc.AllowedUsers(r.Context(), middleware.Bearer(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if users == nil {
		users = []admin.AllowedUser{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{"users": users})
}

func (s *Server) handleAdminGiveAccess(w http.ResponseWriter, r *http.Request) {
	var input admin.AllowedUserInput
	if err := httputil.DecodeBody(r, &input, maxAdminBodyBytes); err != nil {
		httputil.WriteError(w, errors.ValidationFailed("body", "Cuerpo de la solicitud inválido"))
		return
	}
	if input.Username == "" {
		httputil.WriteError(w, errors.ValidationFailed("username", "El usuario es requerido"))
		return
	}

	msg, err := s.adminSvc.GiveAccess(r.Context(), middleware.Bearer(r.Context()), input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"message": msg})
}

func (s *Server) handleAdminUpdateAccess(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil || userID <= 0 {
		httputil.WriteError(w, errors.ValidationFailed("userId", "Identificador inválido"))
		return
	}

	var input admin.AllowedUserInput
	if err := httputil.DecodeBody(r, &input, maxAdminBodyBytes); err != nil {
		httputil.WriteError(w, errors.ValidationFailed("body", "Cuerpo de la solicitud inválido"))
		return
	}

	msg, err := s.adminSvc.UpdateAccess(r.Context(), middleware.Bearer(r.Context()), userID, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"message": msg})
}

// ============================================================================
// Consultation screens
// ============================================================================

func paging(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

func (s *Server) handleNpoOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := paging(r)
	filters := npo.SearchFilters{
		Value:           q.Get("value"),
		OrderDate:       q.Get("orderDate"),
		OrderDateType:   npo.DateFilterMode(q.Get("orderDateType")),
		ArrivalDate:     q.Get("arrivalDate"),
		ArrivalDateType: npo.DateFilterMode(q.Get("arrivalDateType")),
	}

	result, err := s.npoSvc.SearchOrders(r.Context(), middleware.Bearer(r.Context()), page, limit, filters)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (s *Server) handleNpoSuppliers(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r)
	result, err := s.npoSvc.Suppliers(r.Context(), middleware.Bearer(r.Context()), page, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (s *Server) handleNpoSupplierMessages(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r)
	result, err := s.npoSvc.SupplierMessages(r.Context(), middleware.Bearer(r.Context()),
		page, limit, r.URL.Query().Get("value"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (s *Server) handleNpoEmailLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := paging(r)
	result, err := s.npoSvc.EmailLogs(r.Context(), middleware.Bearer(r.Context()), page, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}
