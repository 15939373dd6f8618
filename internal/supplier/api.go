package supplier

import (
	"context"
	"fmt"
	"net/url"

	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/gateway"
	"github.com/compranal/supplier_portal/internal/logging"
)

// API is the typed client for the token-scoped gateway endpoints. The token
// rides as a path segment on every call; no header or cookie is ever sent
// in this flow.
type API struct {
	gw     *gateway.Client
	logger *logging.Logger
}

// NewAPI creates the supplier API client.
func NewAPI(gw *gateway.Client, logger *logging.Logger) *API {
	if logger == nil {
		logger = logging.NewDefault("supplier")
	}
	return &API{gw: gw, logger: logger}
}

// validateResponse tolerates both an empty 2xx body and an explicit verdict.
// A success-shaped response the server marked invalid still denies access.
type validateResponse struct {
	Valid   *bool  `json:"valid"`
	Message string `json:"message"`
}

// ValidateToken asks the gateway whether token currently grants access.
// Network errors, non-2xx statuses and explicit invalid verdicts all
// collapse into the same denial; the distinguishing message is logged for
// diagnostics only.
func (a *API) ValidateToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.InvalidToken(fmt.Errorf("no token supplied"))
	}

	var resp validateResponse
	err := a.gw.Get(ctx, "supplier.validate",
		"/supplier-orders/validate/"+url.PathEscape(token), &resp)
	if err != nil {
		a.logger.WithContext(ctx).WithError(err).Warn("token validation failed")
		return errors.InvalidToken(err)
	}
	if resp.Valid != nil && !*resp.Valid {
		a.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"reason": resp.Message,
		}).Warn("token rejected by gateway")
		return errors.InvalidToken(fmt.Errorf("gateway verdict: invalid"))
	}
	return nil
}

// PendingOrders fetches the full set of pending orders visible under the
// token. No pagination is sent; the gateway returns the whole scoped set,
// and the client never filters or un-filters it.
func (a *API) PendingOrders(ctx context.Context, token string) ([]PurchaseOrder, error) {
	var resp struct {
		Npos []PurchaseOrder `json:"npos"`
	}
	err := a.gw.Get(ctx, "supplier.pending",
		"/supplier-orders/pending/"+url.PathEscape(token), &resp)
	if err != nil {
		return nil, err
	}
	return resp.Npos, nil
}

// OrderItems fetches every line item of one order under the token's scope.
// Zero items is a valid result, not an error.
func (a *API) OrderItems(ctx context.Context, token, orderID string) ([]OrderItem, error) {
	var resp struct {
		Items []OrderItem `json:"items"`
	}
	err := a.gw.Get(ctx, "supplier.items",
		"/supplier-orders/pending/"+url.PathEscape(token)+"/"+url.PathEscape(orderID), &resp)
	if err != nil {
		return nil, err
	}

	for _, item := range resp.Items {
		if !item.LineTotalConsistent() {
			a.logger.WithContext(ctx).WithFields(map[string]interface{}{
				"rowid_item":  item.RowIDItem,
				"total_linea": item.TotalLinea,
				"expected":    item.PrecioUnitario * item.Cantidad,
			}).Warn("line total mismatch from gateway")
		}
	}
	return resp.Items, nil
}

// MessageTypes fetches the comment categories usable for new submissions
// under this token's scope. The gateway is the source of truth for activity
// and scoping; the client does not second-guess the returned set.
func (a *API) MessageTypes(ctx context.Context, token string) ([]MessageType, error) {
	var resp struct {
		Messages []MessageType `json:"messages"`
	}
	err := a.gw.Get(ctx, "supplier.messagetypes",
		"/messages/by-token/"+url.PathEscape(token), &resp)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// ItemComments fetches the comment history for one order line, in the
// gateway's order. The path segment "commets" is the gateway's own spelling.
func (a *API) ItemComments(ctx context.Context, token, itemID string) ([]Comment, error) {
	var resp struct {
		Comments []Comment `json:"comments"`
	}
	err := a.gw.Get(ctx, "supplier.comments",
		"/supplier-orders/commets/item/"+url.PathEscape(token)+"/"+url.PathEscape(itemID), &resp)
	if err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

// SendComment posts one comment and returns the gateway's confirmation
// message. Validation happens in the session before this is called; a
// gateway rejection (token revoked mid-session, item no longer eligible)
// surfaces the gateway's message verbatim.
func (a *API) SendComment(ctx context.Context, token string, req SubmitCommentRequest) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := a.gw.Post(ctx, "supplier.sendcomment",
		"/supplier-orders/"+url.PathEscape(token), req, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
