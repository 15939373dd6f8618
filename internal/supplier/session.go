package supplier

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/logging"
)

// OrdersAPI is the gateway surface the session consumes. *API implements it;
// tests substitute a double.
type OrdersAPI interface {
	TokenValidator
	PendingOrders(ctx context.Context, token string) ([]PurchaseOrder, error)
	OrderItems(ctx context.Context, token, orderID string) ([]OrderItem, error)
	MessageTypes(ctx context.Context, token string) ([]MessageType, error)
	ItemComments(ctx context.Context, token, itemID string) ([]Comment, error)
	SendComment(ctx context.Context, token string, req SubmitCommentRequest) (string, error)
}

// Session is the per-token view state: the gate verdict and the collections
// last loaded for this token. It mirrors what the browser kept in component
// state, not a cache; every load goes back to the gateway, and the held
// collections only serve to keep previously displayed data visible through
// transient failures.
type Session struct {
	token  string
	api    OrdersAPI
	logger *logging.Logger
	gate   *Gate

	mu           sync.Mutex
	orders       []PurchaseOrder
	items        map[string][]OrderItem
	messageTypes []MessageType
	comments     map[string][]Comment
	submitting   bool
	lastSeen     time.Time
}

// NewSession creates a session for one token. The gate starts Pending; no
// network traffic happens until Validate.
func NewSession(token string, api OrdersAPI, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewDefault("supplier")
	}
	return &Session{
		token:    token,
		api:      api,
		logger:   logger,
		gate:     NewGate(api, logger),
		items:    make(map[string][]OrderItem),
		comments: make(map[string][]Comment),
		lastSeen: time.Now(),
	}
}

// Token returns the opaque token this session is bound to.
func (s *Session) Token() string { return s.token }

// State returns the gate state.
func (s *Session) State() GateState { return s.gate.State() }

// Validate runs the gate for this session's token.
func (s *Session) Validate(ctx context.Context) GateState {
	s.touch()
	return s.gate.Bind(ctx, s.token)
}

// requireGranted refuses every protected operation until the gate has
// granted access, regardless of prior state.
func (s *Session) requireGranted() error {
	if !s.gate.Granted() {
		return errors.AccessDenied("acceso denegado")
	}
	return nil
}

// Orders re-fetches the pending orders. On a transient failure the
// previously loaded list is returned alongside the error so the caller
// never flashes a false empty state.
func (s *Session) Orders(ctx context.Context) ([]PurchaseOrder, error) {
	s.touch()
	if err := s.requireGranted(); err != nil {
		return nil, err
	}

	orders, err := s.api.PendingOrders(ctx, s.token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return s.orders, err
	}
	s.orders = orders
	return orders, nil
}

// Items re-fetches the line items of one order. A zero-item order is a
// valid empty result.
func (s *Session) Items(ctx context.Context, orderID string) ([]OrderItem, error) {
	s.touch()
	if err := s.requireGranted(); err != nil {
		return nil, err
	}

	items, err := s.api.OrderItems(ctx, s.token, orderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return s.items[orderID], err
	}
	s.items[orderID] = items
	return items, nil
}

// MessageTypes re-fetches the comment categories currently usable for new
// submissions. The loaded set is what SubmitComment checks membership
// against.
func (s *Session) MessageTypes(ctx context.Context) ([]MessageType, error) {
	s.touch()
	if err := s.requireGranted(); err != nil {
		return nil, err
	}

	types, err := s.api.MessageTypes(ctx, s.token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return s.messageTypes, err
	}
	s.messageTypes = types
	return types, nil
}

// CanComment reports whether the submission affordance should be offered at
// all: with an empty taxonomy it is hidden, not shown with no options.
func (s *Session) CanComment() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messageTypes) > 0
}

// Comments re-fetches the comment history for one order line, preserving
// the gateway's ordering. An empty history is a valid terminal state.
func (s *Session) Comments(ctx context.Context, itemID string) ([]Comment, error) {
	s.touch()
	if err := s.requireGranted(); err != nil {
		return nil, err
	}

	comments, err := s.api.ItemComments(ctx, s.token, itemID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return s.comments[itemID], err
	}
	s.comments[itemID] = comments
	return comments, nil
}

// SubmitComment validates and posts one comment. Validation failures never
// reach the gateway. While a submission is in flight further submissions
// are refused, which is the server-side analog of disabling the submit
// control. After a successful post the item's comment history is re-fetched
// so displayed state reconciles against server truth instead of trusting an
// optimistic insert.
func (s *Session) SubmitComment(ctx context.Context, req SubmitCommentRequest) (string, []Comment, error) {
	s.touch()
	if err := s.requireGranted(); err != nil {
		return "", nil, err
	}

	if err := s.validateSubmission(ctx, req); err != nil {
		return "", nil, err
	}

	if err := s.beginSubmit(); err != nil {
		return "", nil, err
	}
	defer s.endSubmit()

	message, err := s.api.SendComment(ctx, s.token, req)
	if err != nil {
		// Gateway rejection: surfaced verbatim, never treated as success.
		// The caller keeps the typed text.
		return "", nil, err
	}

	key := strconv.Itoa(req.ItemID)
	comments, refreshErr := s.api.ItemComments(ctx, s.token, key)
	if refreshErr != nil {
		// The save stands; show the history held before the submit rather
		// than flashing an empty list.
		s.logger.WithContext(ctx).WithError(refreshErr).
			Warn("comment saved but history refresh failed")
		s.mu.Lock()
		prior := s.comments[key]
		s.mu.Unlock()
		return message, prior, nil
	}

	s.mu.Lock()
	s.comments[key] = comments
	s.mu.Unlock()

	return message, comments, nil
}

func (s *Session) validateSubmission(ctx context.Context, req SubmitCommentRequest) error {
	if req.ItemID <= 0 {
		return errors.ValidationFailed("itemID", "Item no válido")
	}

	if length := utf8.RuneCountInString(req.CommentText); length < CommentMinLen || length > CommentMaxLen {
		return errors.ValidationFailed("commentText",
			"El comentario debe tener entre 10 y 500 caracteres")
	}

	if req.MessageID <= 0 {
		return errors.ValidationFailed("messageID", "Selecciona un tipo de mensaje válido")
	}

	// Membership is checked against the most recently loaded taxonomy; a
	// stale or removed id is rejected even when numerically positive.
	s.mu.Lock()
	types := s.messageTypes
	s.mu.Unlock()

	if len(types) == 0 {
		loaded, err := s.api.MessageTypes(ctx, s.token)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.messageTypes = loaded
		s.mu.Unlock()
		types = loaded
	}

	for _, mt := range types {
		if mt.MensajeID == req.MessageID {
			return nil
		}
	}
	return errors.ValidationFailed("messageID", "Selecciona un tipo de mensaje válido")
}

func (s *Session) beginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return errors.New(errors.CodeValidationFailed,
			"Ya hay un envío en curso", http.StatusConflict)
	}
	s.submitting = true
	return nil
}

func (s *Session) endSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the session's last use.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
