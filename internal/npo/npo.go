// Package npo exposes the internal consultation screens over national
// purchase orders: paged order search, the supplier directory, and the
// notification email log.
package npo

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/compranal/supplier_portal/internal/gateway"
	"github.com/compranal/supplier_portal/internal/logging"
)

// Page bounds. The gateway caps results server side; these keep obviously
// bad requests from reaching it.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Meta is the paging block the gateway returns with every list.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Order is one national purchase order row in the consultation list.
type Order struct {
	ConsecDocto  int    `json:"consec_docto"`
	RazonSocial  string `json:"RazonSocial"`
	Fecha        string `json:"Fecha"`
	FechaLlegada string `json:"FechaLlegada"`
	Estado       int    `json:"estado"`
	Emails       string `json:"emails"`
}

// Supplier is one supplier directory row.
type Supplier struct {
	Nit         string `json:"nit"`
	RazonSocial string `json:"RazonSocial"`
	Email       string `json:"email"`
	Estado      string `json:"estado"`
}

// EmailLog is one entry of the notification delivery log. Estado is
// SUCCESS or ERROR; ErrorMensaje is only set on failures.
type EmailLog struct {
	EmailLogID   int    `json:"email_log_id"`
	Email        string `json:"email"`
	Asunto       string `json:"asunto"`
	Estado       string `json:"estado"`
	ErrorMensaje string `json:"error_mensaje"`
	Fecha        string `json:"fecha"`
}

// SupplierMessage is one supplier-submitted comment as the browse page
// shows it, denormalized with its message-type name and description.
type SupplierMessage struct {
	ItemID                 int    `json:"item_id"`
	TipoMensaje            string `json:"tipoMensaje"`
	DescripcionTipoMensaje string `json:"descripcionTipoMensaje"`
	Comentario             string `json:"comentario"`
	Fecha                  string `json:"fecha"`
}

// DateFilterMode selects which side of a date an order filter matches.
type DateFilterMode string

const (
	DateBefore DateFilterMode = "before"
	DateAfter  DateFilterMode = "after"
)

// SearchFilters narrows the order search. Zero values are omitted from
// the query so the gateway applies no filter for them.
type SearchFilters struct {
	Value           string
	OrderDate       string
	OrderDateType   DateFilterMode
	ArrivalDate     string
	ArrivalDateType DateFilterMode
}

// OrderPage is one page of the order search.
type OrderPage struct {
	Meta    Meta    `json:"meta"`
	Results []Order `json:"results"`
}

// SupplierPage is one page of the supplier directory.
type SupplierPage struct {
	Meta    Meta       `json:"meta"`
	Results []Supplier `json:"results"`
}

// SupplierMessagePage is one page of the supplier-comment browse.
type SupplierMessagePage struct {
	Meta     Meta              `json:"meta"`
	Comments []SupplierMessage `json:"comments"`
}

// EmailLogPage is one page of the email log.
type EmailLogPage struct {
	Meta    Meta       `json:"meta"`
	Results []EmailLog `json:"results"`
}

// Service is the consultation client.
type Service struct {
	gw     *gateway.Client
	logger *logging.Logger
}

// NewService creates the consultation service.
func NewService(gw *gateway.Client, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefault("npo")
	}
	return &Service{gw: gw, logger: logger}
}

func clampPaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func pagedQuery(page, limit int) url.Values {
	page, limit = clampPaging(page, limit)
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// SearchOrders returns one page of orders matching the filters.
func (s *Service) SearchOrders(ctx context.Context, bearer string, page, limit int, filters SearchFilters) (*OrderPage, error) {
	q := pagedQuery(page, limit)
	if v := strings.TrimSpace(filters.Value); v != "" {
		q.Set("value", v)
	}
	if filters.OrderDate != "" {
		q.Set("orderDate", filters.OrderDate)
		q.Set("orderDateType", string(filters.OrderDateType))
	}
	if filters.ArrivalDate != "" {
		q.Set("arrivalDate", filters.ArrivalDate)
		q.Set("arrivalDateType", string(filters.ArrivalDateType))
	}

	var result OrderPage
	err := s.gw.GetWithBearer(ctx, "npo.orders.search", "/np-orders/search/?"+q.Encode(), bearer, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Suppliers returns one page of the supplier directory.
func (s *Service) Suppliers(ctx context.Context, bearer string, page, limit int) (*SupplierPage, error) {
	q := pagedQuery(page, limit)
	var result SupplierPage
	err := s.gw.GetWithBearer(ctx, "npo.suppliers.list", "/suppliers/?"+q.Encode(), bearer, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SupplierMessages returns one page of all supplier-submitted comments.
// A non-blank search term switches to the search endpoint; a blank one
// browses everything.
func (s *Service) SupplierMessages(ctx context.Context, bearer string, page, limit int, search string) (*SupplierMessagePage, error) {
	q := pagedQuery(page, limit)

	path := "/suppliers/messages/?"
	if v := strings.TrimSpace(search); v != "" {
		q.Set("value", v)
		path = "/suppliers/messages/search/?"
	}

	var result SupplierMessagePage
	err := s.gw.GetWithBearer(ctx, "npo.suppliers.messages", path+q.Encode(), bearer, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// EmailLogs returns one page of the notification email log.
func (s *Service) EmailLogs(ctx context.Context, bearer string, page, limit int) (*EmailLogPage, error) {
	q := pagedQuery(page, limit)
	var result EmailLogPage
	err := s.gw.GetWithBearer(ctx, "npo.emails.logs", "/email/logs?"+q.Encode(), bearer, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
