package packet

import (
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// HandlerFunc is the callback signature for message handlers.
// The channel pointer is passed as an opaque interface to avoid import cycles.
// raw is the frame exactly as received, for handlers that relay it verbatim.
type HandlerFunc func(from any, msg Message, raw []byte)

type handlerEntry struct {
	fn           HandlerFunc
	allowedRoles map[Role]bool
}

// Registry maps message kinds to handlers with role-based access control.
type Registry struct {
	handlers map[Kind]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[Kind]*handlerEntry),
		log:      log,
	}
}

// Register maps a kind to a handler, restricted to the given local roles.
func (reg *Registry) Register(kind Kind, roles []Role, fn HandlerFunc) {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	reg.handlers[kind] = &handlerEntry{
		fn:           fn,
		allowedRoles: allowed,
	}
}

// Dispatch decodes data, validates the local role and calls the handler.
// Malformed frames and unknown kinds are dropped and reported as nil: the
// next snapshot supersedes whatever was lost.
func (reg *Registry) Dispatch(from any, role Role, data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		if errors.Is(err, ErrUnknownKind) || errors.Is(err, ErrMalformed) {
			reg.log.Debug("message dropped", zap.Int("size", len(data)), zap.Error(err))
			return nil
		}
		return err
	}

	entry, ok := reg.handlers[msg.Kind()]
	if !ok {
		reg.log.Debug("no handler", zap.String("kind", string(msg.Kind())))
		return nil
	}

	if !entry.allowedRoles[role] {
		reg.log.Debug("message not accepted in this role",
			zap.String("kind", string(msg.Kind())),
			zap.Stringer("role", role),
		)
		return fmt.Errorf("%s not accepted by %s", msg.Kind(), role)
	}

	return reg.safeCall(entry.fn, from, msg, data)
}

// safeCall executes a handler with panic recovery to prevent a single
// bad message from crashing the tick loop.
func (reg *Registry) safeCall(fn HandlerFunc, from any, msg Message, raw []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("kind", string(msg.Kind())),
				zap.Any("panic", rec),
			)
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("message_kind", string(msg.Kind()))
			})
			hub.Recover(rec)
			err = fmt.Errorf("handler panic for %s: %v", msg.Kind(), rec)
		}
	}()
	fn(from, msg, raw)
	return nil
}
