package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"

	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/httputil"
	"github.com/compranal/supplier_portal/internal/logging"
)

// Recovery turns handler panics into 500 responses instead of dropped
// connections.
func Recovery(logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithContext(r.Context()).WithFields(map[string]interface{}{
						"panic": fmt.Sprint(rec),
						"stack": string(debug.Stack()),
						"path":  r.URL.Path,
					}).Error("handler panicked")
					httputil.WriteError(w, errors.Internal(fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
