// Package supplier implements the token-gated supplier flow: an opaque
// access token grants scoped, time-bound visibility into a supplier's own
// pending purchase orders and lets the supplier attach categorized comments
// to order lines. The token is never parsed and never persisted; every
// request presents it verbatim to the external API gateway, which owns all
// scoping decisions.
package supplier

// Order status codes as delivered by the gateway.
const (
	OrderStatusApproved = 1
	OrderStatusPartial  = 2
)

// PurchaseOrder is one national purchase order visible to the token holder.
// Field names follow the gateway wire format.
type PurchaseOrder struct {
	ConsecDocto     int      `json:"consec_docto"`
	Estado          int      `json:"estado"`
	Fecha           string   `json:"Fecha"`
	FechaEntrega    string   `json:"FechaEntrega"`
	CodigoProveedor string   `json:"CodigoProveedor"`
	RazonSocial     string   `json:"RazonSocial"`
	TotalItems      int      `json:"TotalItems"`
	TotalCantidad   float64  `json:"TotalCantidad"`
	Emails          []string `json:"emails"`
}

// StatusLabel translates the numeric status code.
func (o PurchaseOrder) StatusLabel() string {
	switch o.Estado {
	case OrderStatusApproved:
		return "Aprobada"
	case OrderStatusPartial:
		return "Parcial"
	default:
		return "Desconocido"
	}
}

// OrderItem is one line of a purchase order. RowIDItem is the primary key
// comments attach to.
type OrderItem struct {
	RowIDItem       int      `json:"rowid_item"`
	Item            string   `json:"item"`
	Referencia      string   `json:"Referencia"`
	Descripcion     string   `json:"Descripcion"`
	IDTipoDocto     string   `json:"id_tipo_docto"`
	ConsecDocto     string   `json:"consec_docto"`
	Estado          int      `json:"estado"`
	Fecha           string   `json:"Fecha"`
	FechaEntrega    string   `json:"FechaEntrega"`
	CodigoProveedor string   `json:"CodigoProveedor"`
	RazonSocial     string   `json:"RazonSocial"`
	Emails          []string `json:"emails"`
	CodigoBodega    string   `json:"CodigoBodega"`
	PrecioUnitario  float64  `json:"PrecioUnitario"`
	Cantidad        float64  `json:"Cantidad"`
	CriterioMayor   string   `json:"CriterioMayor"`
	TotalLinea      float64  `json:"TotalLinea"`
}

// LineTotalConsistent reports whether TotalLinea matches PrecioUnitario
// times Cantidad within rounding tolerance. A mismatch is a server data
// quality signal; it is logged, never rejected.
func (i OrderItem) LineTotalConsistent() bool {
	diff := i.TotalLinea - i.PrecioUnitario*i.Cantidad
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}

// MessageType is one entry of the comment taxonomy. Only Activo entries may
// be offered for new submissions; Inactivo ones remain valid for rendering
// historic comments.
type MessageType struct {
	MensajeID   int    `json:"mensaje_id"`
	TipoMensaje string `json:"tipoMensaje"`
	Descripcion string `json:"descripcion"`
	Estado      string `json:"estado"`
}

// IsActive reports whether the type may be used for new submissions.
func (m MessageType) IsActive() bool {
	return m.Estado == "Activo"
}

// Comment is one supplier remark on one order line, immutable once created.
// The message type name and description are denormalized at display time.
type Comment struct {
	ItemComentarioID       int    `json:"item_comentario_id"`
	RowIDItem              int    `json:"rowid_item"`
	MensajeID              int    `json:"mensaje_id"`
	TipoMensaje            string `json:"tipoMensaje"`
	DescripcionTipoMensaje string `json:"descripcionTipoMensaje"`
	Comentario             string `json:"comentario"`
	Fecha                  string `json:"fecha"`
}

// SubmitCommentRequest is the comment submission payload, posted to the
// gateway as-is after client-side validation.
type SubmitCommentRequest struct {
	ItemID      int    `json:"itemID"`
	MessageID   int    `json:"messageID"`
	CommentText string `json:"commentText"`
}

// Comment length bounds, in runes.
const (
	CommentMinLen = 10
	CommentMaxLen = 500
)
