package beckn

import (
	"fmt"
	"net/http"

	"github.com/beckn-mesh/network/internal/logger"
)

// RecoverMiddleware maps any unhandled panic in the wrapped handler to
// the standard Nack envelope, per §4.8's beckn_error_handler. A panic
// value carrying a *logger.MeshError is classified through
// meshErrorToNack instead of always answering CORE-ERROR/internal
// error, so a handler that already knows it hit e.g. a policy
// violation can panic with a classified MeshError and still get the
// right Nack type/code. A handler that needs a specific error code
// without panicking should write its own Nack and return normally.
func RecoverMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					merr := toMeshError(rec)
					log.Error("panic recovered in handler",
						logger.String("code", merr.Code),
						logger.Any("details", merr.Details),
						logger.Error(merr),
						logger.String("path", r.URL.Path),
						logger.String("request_id", RequestIDFromContext(r.Context())),
					)
					errType, code := meshErrorToNack(merr)
					WriteNack(w, http.StatusInternalServerError, errType, code, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// toMeshError normalizes a recovered panic value into a *logger.MeshError
// so every panic is classified through the same error-code vocabulary
// meshErrorToNack reads, whether the handler panicked with an error, a
// MeshError it built itself, or an arbitrary value.
func toMeshError(rec interface{}) *logger.MeshError {
	if merr, ok := rec.(*logger.MeshError); ok {
		return merr
	}
	if err, ok := rec.(error); ok {
		return logger.NewMeshError(logger.ErrCodeInternal, "internal error", err)
	}
	return logger.NewMeshError(logger.ErrCodeInternal, fmt.Sprintf("%v", rec), nil)
}

// meshErrorToNack maps a MeshError's error-code vocabulary onto the
// Beckn NACK error type/code pair (§6/§7) it corresponds to.
func meshErrorToNack(err *logger.MeshError) (ErrorType, string) {
	switch err.Code {
	case logger.ErrCodeInvalidInput, logger.ErrCodeValidationError, logger.ErrCodeNotFound:
		return ErrorTypeContext, CodeInvalidRequest
	case logger.ErrCodeUnauthorized, logger.ErrCodeForbidden, logger.ErrCodeSignatureError:
		return ErrorTypeContext, CodeAuth
	case logger.ErrCodePolicyError:
		return ErrorTypePolicy, CodePolicy
	case logger.ErrCodeConflict, logger.ErrCodeTimeout, logger.ErrCodeNetworkError:
		return ErrorTypeDomain, CodeInternal
	default:
		return ErrorTypeCore, CodeInternal
	}
}
