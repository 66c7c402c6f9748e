// File: internal/middleware/recovery.go
package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"hackspeech/internal/contextutils"
	"hackspeech/internal/response"
	"hackspeech/internal/services"
	"hackspeech/internal/utils/appinfo"

	"go.uber.org/zap"
)

// RecoveryConfig holds configuration for panic recovery middleware
type RecoveryConfig struct {
	MaxStackFrames int
	// Exposes the panic value in the response; never enable in production
	ExposePanic bool
}

// DefaultRecoveryConfig returns production-ready recovery configuration
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{MaxStackFrames: 20}
}

// StackFrame represents a single stack frame
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Recovery turns a panic into a 500 response and an error log with the stack
func Recovery(config *RecoveryConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// the server's own abort signal must keep propagating
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				ctx := r.Context()
				contextutils.GetLogger(ctx, logger).Error("Panic recovered",
					zap.Any("panic", rec),
					zap.String("panic_type", fmt.Sprintf("%T", rec)),
					zap.Int64("user_id", contextutils.GetUserID(ctx)),
					zap.String("version", appinfo.GetVersion()),
					zap.Any("stack", captureStackTrace(config.MaxStackFrames)),
				)

				message := "Erreur serveur"
				if config.ExposePanic {
					message = fmt.Sprintf("panic: %v", rec)
				}
				response.QuickError(w, r, &services.ServiceError{
					Type:       services.ErrorTypeInternal,
					Message:    message,
					Code:       "PANIC",
					StatusCode: http.StatusInternalServerError,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func captureStackTrace(maxFrames int) []StackFrame {
	pcs := make([]uintptr, maxFrames+4)
	n := runtime.Callers(4, pcs)
	if n == 0 {
		return nil
	}

	frames := make([]StackFrame, 0, maxFrames)
	callers := runtime.CallersFrames(pcs[:n])
	for len(frames) < maxFrames {
		frame, more := callers.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			frames = append(frames, StackFrame{Function: frame.Function, File: frame.File, Line: frame.Line})
		}
		if !more {
			break
		}
	}
	return frames
}
