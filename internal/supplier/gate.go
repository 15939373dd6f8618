package supplier

import (
	"context"
	"sync"

	"github.com/compranal/supplier_portal/internal/logging"
)

// GateState is the access gate's tagged state. The explicit machine replaces
// loading/isValid flag pairs, which allowed contradictory combinations.
type GateState string

const (
	GatePending    GateState = "pending"
	GateValidating GateState = "validating"
	GateGranted    GateState = "granted"
	GateDenied     GateState = "denied"
)

// TokenValidator decides whether an opaque token currently grants access.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) error
}

// Gate guards the token-scoped flow. It starts Pending, moves to Validating
// while the verdict is outstanding, and ends Granted or Denied. Re-pointing
// the gate at a new token restarts the machine; a result belonging to an
// earlier token is discarded rather than applied, so a slow response for an
// old token can never overwrite the verdict for the current one.
type Gate struct {
	validator TokenValidator
	logger    *logging.Logger

	mu         sync.Mutex
	state      GateState
	token      string
	generation uint64
}

// NewGate creates a gate in the Pending state.
func NewGate(validator TokenValidator, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewDefault("supplier")
	}
	return &Gate{
		validator: validator,
		logger:    logger,
		state:     GatePending,
	}
}

// Bind points the gate at token and runs validation, returning the resulting
// state. An empty token denies immediately without a network call. If the
// gate is re-bound while a validation is in flight, the in-flight result is
// discarded when it eventually arrives.
func (g *Gate) Bind(ctx context.Context, token string) GateState {
	g.mu.Lock()
	g.generation++
	gen := g.generation
	g.token = token

	if token == "" {
		g.state = GateDenied
		g.mu.Unlock()
		return GateDenied
	}

	g.state = GateValidating
	g.mu.Unlock()

	err := g.validator.ValidateToken(ctx, token)

	g.mu.Lock()
	defer g.mu.Unlock()

	// A newer Bind superseded this validation; its verdict stands, ours
	// is dropped.
	if gen != g.generation {
		g.logger.WithContext(ctx).Debug("discarding stale validation result")
		return g.state
	}

	if err != nil {
		g.state = GateDenied
	} else {
		g.state = GateGranted
	}
	return g.state
}

// State returns the current gate state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Token returns the token the gate is currently bound to.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Granted reports whether the protected flow may be entered.
func (g *Gate) Granted() bool {
	return g.State() == GateGranted
}
