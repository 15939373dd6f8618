package npo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/compranal/supplier_portal/internal/gateway"
)

func newServiceAgainst(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw, err := gateway.New(gateway.Config{BaseURL: server.URL, HTTPClient: &http.Client{}})
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}
	return NewService(gw, nil)
}

func TestService_SearchOrders_QueryAndDecoding(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/np-orders/search/" {
			t.Errorf("Path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "25" {
			t.Errorf("paging = %s", r.URL.RawQuery)
		}
		if q.Get("value") != "4500123" {
			t.Errorf("value = %q", q.Get("value"))
		}
		if q.Get("orderDate") != "2026-08-01" || q.Get("orderDateType") != "after" {
			t.Errorf("order date filter = %s", r.URL.RawQuery)
		}
		if q.Has("arrivalDate") {
			t.Error("unset arrival filter must be omitted")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-jwt" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]int{"page": 2, "limit": 25, "total": 51, "totalPages": 3},
			"results": []map[string]any{
				{"consec_docto": 4500123, "RazonSocial": "Aceros del Norte", "Fecha": "2026-08-10", "estado": 1},
			},
		})
	}))

	page, err := svc.SearchOrders(context.Background(), "admin-jwt", 2, 25, SearchFilters{
		Value:         "4500123",
		OrderDate:     "2026-08-01",
		OrderDateType: DateAfter,
	})
	if err != nil {
		t.Fatalf("SearchOrders() error = %v", err)
	}
	if page.Meta.TotalPages != 3 {
		t.Errorf("TotalPages = %d", page.Meta.TotalPages)
	}
	if len(page.Results) != 1 || page.Results[0].ConsecDocto != 4500123 {
		t.Errorf("results = %+v", page.Results)
	}
}

func TestService_SearchOrders_ClampsPaging(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "1" || q.Get("limit") != "100" {
			t.Errorf("paging = %s, want page=1 limit=100", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"meta": map[string]int{}, "results": []any{}})
	}))

	if _, err := svc.SearchOrders(context.Background(), "admin-jwt", 0, 5000, SearchFilters{}); err != nil {
		t.Fatalf("SearchOrders() error = %v", err)
	}
}

func TestService_Suppliers(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/suppliers/" {
			t.Errorf("Path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]int{"page": 1, "limit": 10, "total": 1, "totalPages": 1},
			"results": []map[string]string{
				{"nit": "900123456", "RazonSocial": "Aceros del Norte", "email": "ventas@acerosdelnorte.com", "estado": "Activo"},
			},
		})
	}))

	page, err := svc.Suppliers(context.Background(), "admin-jwt", 1, 10)
	if err != nil {
		t.Fatalf("Suppliers() error = %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].Nit != "900123456" {
		t.Errorf("results = %+v", page.Results)
	}
}

func TestService_SupplierMessages_BrowseWithoutSearch(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/suppliers/messages/" {
			t.Errorf("Path = %s", r.URL.Path)
		}
		if r.URL.Query().Has("value") {
			t.Error("blank search must not send a value param")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]int{"page": 1, "limit": 10, "total": 2, "totalPages": 1},
			"comments": []map[string]any{
				{"item_id": 991, "tipoMensaje": "Cantidad", "descripcionTipoMensaje": "Novedad de cantidad", "comentario": "Revisar cantidad enviada", "fecha": "2026-08-12T10:00:00Z"},
				{"item_id": 992, "tipoMensaje": "Precio", "comentario": "Precio no corresponde", "fecha": "2026-08-12T11:00:00Z"},
			},
		})
	}))

	page, err := svc.SupplierMessages(context.Background(), "admin-jwt", 1, 10, "   ")
	if err != nil {
		t.Fatalf("SupplierMessages() error = %v", err)
	}
	if len(page.Comments) != 2 {
		t.Fatalf("len = %d, want 2", len(page.Comments))
	}
	if page.Comments[0].ItemID != 991 || page.Comments[0].TipoMensaje != "Cantidad" {
		t.Errorf("first comment = %+v", page.Comments[0])
	}
}

func TestService_SupplierMessages_SearchUsesSearchEndpoint(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/suppliers/messages/search/" {
			t.Errorf("Path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("value"); got != "cantidad" {
			t.Errorf("value = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meta":     map[string]int{"page": 1, "limit": 10, "total": 1, "totalPages": 1},
			"comments": []map[string]any{{"item_id": 991, "comentario": "Revisar cantidad enviada"}},
		})
	}))

	page, err := svc.SupplierMessages(context.Background(), "admin-jwt", 1, 10, "cantidad")
	if err != nil {
		t.Fatalf("SupplierMessages() error = %v", err)
	}
	if page.Meta.Total != 1 {
		t.Errorf("Total = %d", page.Meta.Total)
	}
}

func TestService_EmailLogs(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/email/logs" {
			t.Errorf("Path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meta": map[string]int{"page": 1, "limit": 10, "total": 2, "totalPages": 1},
			"results": []map[string]any{
				{"email_log_id": 12, "email": "ventas@acerosdelnorte.com", "estado": "SUCCESS", "fecha": "2026-08-11T09:30:00Z"},
				{"email_log_id": 13, "email": "compras@sumival.co", "estado": "ERROR", "error_mensaje": "mailbox unavailable", "fecha": "2026-08-11T09:31:00Z"},
			},
		})
	}))

	page, err := svc.EmailLogs(context.Background(), "admin-jwt", 1, 10)
	if err != nil {
		t.Fatalf("EmailLogs() error = %v", err)
	}
	if len(page.Results) != 2 {
		t.Fatalf("len = %d, want 2", len(page.Results))
	}
	if page.Results[1].Estado != "ERROR" || page.Results[1].ErrorMensaje == "" {
		t.Errorf("failed entry = %+v", page.Results[1])
	}
}
