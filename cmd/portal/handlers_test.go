package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/compranal/supplier_portal/internal/admin"
	"github.com/compranal/supplier_portal/internal/auth"
	"github.com/compranal/supplier_portal/internal/config"
	"github.com/compranal/supplier_portal/internal/gateway"
	"github.com/compranal/supplier_portal/internal/logging"
	"github.com/compranal/supplier_portal/internal/metrics"
	"github.com/compranal/supplier_portal/internal/npo"
	"github.com/compranal/supplier_portal/internal/supplier"
)

// fakeUpstream speaks the external gateway's wire protocol for one valid
// supplier token.
type fakeUpstream struct {
	validToken string
	posts      atomic.Int32
	requests   atomic.Int32
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /supplier-orders/validate/{token}", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if r.PathValue("token") != f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Token inválido"})
			return
		}
		json.NewEncoder(w).Encode(map[string]bool{"valid": true})
	})

	mux.HandleFunc("GET /supplier-orders/pending/{token}", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"npos": []map[string]any{
			{"consec_docto": 4500123, "RazonSocial": "Aceros del Norte", "estado": 1},
			{"consec_docto": 4500124, "RazonSocial": "Sumival", "estado": 2},
			{"consec_docto": 4500125, "RazonSocial": "Ferretería Central", "estado": 1},
		}})
	})

	mux.HandleFunc("GET /supplier-orders/pending/{token}/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{
			{"rowid_item": 991, "consec_docto": r.PathValue("orderId"), "Cantidad": 10.0},
		}})
	})

	mux.HandleFunc("GET /messages/by-token/{token}", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]any{
			{"mensaje_id": 7, "tipoMensaje": "Cantidad", "estado": "Activo"},
		}})
	})

	mux.HandleFunc("GET /supplier-orders/commets/item/{token}/{itemId}", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"comments": []map[string]any{
			{"item_comentario_id": 1, "rowid_item": 991, "mensaje_id": 7, "comentario": "Revisar cantidad enviada"},
		}})
	})

	mux.HandleFunc("POST /supplier-orders/{token}", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.posts.Add(1)
		var req supplier.SubmitCommentRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MessageID != 7 || req.ItemID != 991 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "Solicitud inválida"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Comentario guardado"})
	})

	return mux
}

func newTestServer(t *testing.T) (*Server, *fakeUpstream) {
	t.Helper()

	upstream := &fakeUpstream{validToken: "tok-acero-2026"}
	backend := httptest.NewServer(upstream.handler())
	t.Cleanup(backend.Close)

	logger := logging.New(logging.Config{Service: "portal-test", Level: "error"})
	m := metrics.New()

	gw, err := gateway.New(gateway.Config{BaseURL: backend.URL, HTTPClient: &http.Client{}, Logger: logger, Metrics: m})
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}

	cfg := config.Default()
	cfg.Upstream.BaseURL = backend.URL
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Server.EnableRateLimiter = false

	api := supplier.NewAPI(gw, logger)
	srv := NewServer(cfg, logger, m, supplier.NewManager(api, logger),
		admin.NewService(gw, logger), auth.NewService(gw, logger), npo.NewService(gw, logger))
	return srv, upstream
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestPortal_DeniedTokenBlocksEverything(t *testing.T) {
	srv, upstream := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/v1/portal/abc123/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d, want 200", rec.Code)
	}
	data := body["data"].(map[string]any)
	if data["state"] != "denied" || data["granted"] != false {
		t.Fatalf("session data = %v", data)
	}

	calls := upstream.requests.Load()

	rec, body = doJSON(t, srv, http.MethodGet, "/api/v1/portal/abc123/orders", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("orders status = %d, want 403", rec.Code)
	}
	if body["success"] != false {
		t.Error("orders must return a failure envelope")
	}
	if upstream.requests.Load() != calls {
		t.Error("denied session must not reach the upstream again")
	}
}

func TestPortal_FullSupplierFlow(t *testing.T) {
	srv, upstream := newTestServer(t)
	base := "/api/v1/portal/tok-acero-2026"

	rec, body := doJSON(t, srv, http.MethodGet, base+"/session", "")
	if rec.Code != http.StatusOK || body["data"].(map[string]any)["state"] != "granted" {
		t.Fatalf("session = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, srv, http.MethodGet, base+"/orders", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("orders status = %d", rec.Code)
	}
	npos := body["data"].(map[string]any)["npos"].([]any)
	if len(npos) != 3 {
		t.Fatalf("orders = %d, want 3", len(npos))
	}

	rec, body = doJSON(t, srv, http.MethodGet, base+"/orders/4500123/items", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("items status = %d", rec.Code)
	}
	items := body["data"].(map[string]any)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	rec, body = doJSON(t, srv, http.MethodGet, base+"/message-types", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("message-types status = %d", rec.Code)
	}
	if body["data"].(map[string]any)["canComment"] != true {
		t.Error("canComment = false with a non-empty taxonomy")
	}

	rec, body = doJSON(t, srv, http.MethodPost, base+"/comments",
		`{"itemID":991,"messageID":7,"commentText":"Revisar cantidad enviada"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body = %v", rec.Code, body)
	}
	data := body["data"].(map[string]any)
	if data["message"] != "Comentario guardado" {
		t.Errorf("message = %v", data["message"])
	}
	if comments := data["comments"].([]any); len(comments) != 1 {
		t.Errorf("comments = %d, want refreshed history", len(comments))
	}
	if upstream.posts.Load() != 1 {
		t.Errorf("upstream posts = %d, want 1", upstream.posts.Load())
	}
}

func TestPortal_SubmitRejectsInvalidMessageTypeBeforeUpstream(t *testing.T) {
	srv, upstream := newTestServer(t)
	base := "/api/v1/portal/tok-acero-2026"

	doJSON(t, srv, http.MethodGet, base+"/session", "")
	doJSON(t, srv, http.MethodGet, base+"/message-types", "")

	rec, body := doJSON(t, srv, http.MethodPost, base+"/comments",
		`{"itemID":991,"messageID":0,"commentText":"Revisar cantidad enviada"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if body["success"] != false {
		t.Error("validation failure must be a failure envelope")
	}
	if upstream.posts.Load() != 0 {
		t.Error("invalid submission must never reach the upstream")
	}
}

func TestPortal_SubmitRejectsShortComment(t *testing.T) {
	srv, upstream := newTestServer(t)
	base := "/api/v1/portal/tok-acero-2026"

	doJSON(t, srv, http.MethodGet, base+"/session", "")

	rec, _ := doJSON(t, srv, http.MethodPost, base+"/comments",
		`{"itemID":991,"messageID":7,"commentText":"corto"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if upstream.posts.Load() != 0 {
		t.Error("too-short comment must never reach the upstream")
	}
}

func TestAdminRoutes_RequireBearer(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/v1/admin/message-types", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body["success"] != false {
		t.Error("rejection must be a failure envelope")
	}

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/v1/npo/suppliers", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("npo status = %d, want 401", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/v1/npo/supplier-messages", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("supplier-messages status = %d, want 401", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["data"].(map[string]any)["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
}
