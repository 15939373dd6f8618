package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/httputil"
	"github.com/compranal/supplier_portal/internal/supplier"
)

const maxCommentBodyBytes = 64 << 10

func (s *Server) session(r *http.Request) *supplier.Session {
	return s.sessions.Session(mux.Vars(r)["token"])
}

// handleSession validates the token and reports the access state. The
// outcome is data for the frontend, not an error, so denied tokens still
// get a 200 success envelope.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	state := sess.Validate(r.Context())

	httputil.WriteSuccess(w, map[string]interface{}{
		"state":   string(state),
		"granted": state == supplier.GateGranted,
	})
}

// writeScoped writes data as a success envelope, or a failure envelope
// that still carries the last good data when the upstream read failed.
func writeScoped(w http.ResponseWriter, data interface{}, err error) {
	if err != nil {
		svcErr := errors.AsServiceError(err)
		httputil.WriteJSON(w, svcErr.HTTPStatus, httputil.Envelope{
			Success: false,
			Message: svcErr.Message,
			Details: svcErr.Details,
			Data:    data,
		})
		return
	}
	httputil.WriteSuccess(w, data)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.session(r).Orders(r.Context())
	if orders == nil {
		orders = []supplier.PurchaseOrder{}
	}
	writeScoped(w, map[string]interface{}{"npos": orders}, err)
}

func (s *Server) handleOrderItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.session(r).Items(r.Context(), mux.Vars(r)["orderId"])
	if items == nil {
		items = []supplier.OrderItem{}
	}
	writeScoped(w, map[string]interface{}{"items": items}, err)
}

// handleMessageTypes returns the comment taxonomy. canComment mirrors
// whether any types exist; an empty taxonomy hides the comment form.
func (s *Server) handleMessageTypes(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	types, err := sess.MessageTypes(r.Context())
	if types == nil {
		types = []supplier.MessageType{}
	}
	writeScoped(w, map[string]interface{}{
		"messages":   types,
		"canComment": sess.CanComment(),
	}, err)
}

func (s *Server) handleItemComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.session(r).Comments(r.Context(), mux.Vars(r)["itemId"])
	if comments == nil {
		comments = []supplier.Comment{}
	}
	writeScoped(w, map[string]interface{}{"comments": comments}, err)
}

func (s *Server) handleSubmitComment(w http.ResponseWriter, r *http.Request) {
	var req supplier.SubmitCommentRequest
	if err := httputil.DecodeBody(r, &req, maxCommentBodyBytes); err != nil {
		httputil.WriteError(w, errors.ValidationFailed("body", "Cuerpo de la solicitud inválido"))
		return
	}

	message, comments, err := s.session(r).SubmitComment(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if comments == nil {
		comments = []supplier.Comment{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"message":  message,
		"comments": comments,
	})
}
