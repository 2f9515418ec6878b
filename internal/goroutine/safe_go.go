package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ignatzorin/hiring-lifecycle/internal/logger"
)

// Logger - то, что нужно обработчику паник от логгера.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler перехватывает panic в фоновых горутинах.
type RecoveryHandler struct {
	logger func() Logger
}

// NewRecoveryHandler создаёт обработчик с фиксированным логгером.
func NewRecoveryHandler(l Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: func() Logger { return l }}
}

func (rh *RecoveryHandler) recover(kind string) {
	if r := recover(); r != nil {
		rh.logger().Errorf("panic in %s: %v\nstack:\n%s", kind, r, debug.Stack())
	}
}

// SafeGo запускает горутину с обработкой panic.
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recover("goroutine")
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recover("goroutine (with context)")
		fn(ctx)
	}()
}

// Run выполняет fn в текущей горутине; panic превращается в запись в логе.
func (rh *RecoveryHandler) Run(kind string, fn func()) {
	defer rh.recover(kind)
	fn()
}

// DefaultRecoveryHandler берёт глобальный логгер в момент паники,
// поэтому работает и до logger.Init.
var DefaultRecoveryHandler = &RecoveryHandler{logger: func() Logger { return logger.L() }}

func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}

// Run - DefaultRecoveryHandler.Run.
func Run(kind string, fn func()) {
	DefaultRecoveryHandler.Run(kind, fn)
}
