package service

import (
	"context"
	"errors"
	"fmt"

	"dms-gmail-addon/internal/dto"
	"dms-gmail-addon/internal/pkg/logger"
)

// ErrMissingActionName reports an event without an action name; that
// is a programming error in whoever built the widget.
var ErrMissingActionName = errors.New("dispatch: missing action name")

// ActionNotFoundError reports an action name with no registered
// handler. Never a silent no-op.
type ActionNotFoundError struct {
	Name string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("dispatch: action not found: %s", e.Name)
}

// HandlerFunc is one named operation reachable through the dispatcher.
type HandlerFunc func(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error)

// ErrorHandler decides how a failed dispatch surfaces to the user.
// Returning nil re-raises the error.
type ErrorHandler func(err error) *dto.RenderResult

// IDispatchService resolves a named action from an event and invokes
// it, funnelling any failure through the caller-supplied error handler.
type IDispatchService interface {
	Dispatch(ctx context.Context, event *dto.ActionEvent, onError ErrorHandler) (*dto.RenderResult, error)
}

type dispatchService struct {
	handlers map[string]HandlerFunc
	logger   logger.ILogger
}

func NewDispatchService(handlers map[string]HandlerFunc, log logger.ILogger) IDispatchService {
	return &dispatchService{
		handlers: handlers,
		logger:   log,
	}
}

// Dispatch is a pure router plus a single catch point: handlers are
// free to fail without wiring their own error recovery. With a nil
// error handler the failure propagates to the caller.
func (s *dispatchService) Dispatch(ctx context.Context, event *dto.ActionEvent, onError ErrorHandler) (*dto.RenderResult, error) {
	result, err := s.invoke(ctx, event)
	if err == nil {
		return result, nil
	}

	s.logger.Error("dispatch", "action failed", map[string]interface{}{
		"action":          event.Action(),
		"installation_id": event.InstallationID,
		"error":           err.Error(),
	})
	if onError == nil {
		return nil, err
	}
	if recovered := onError(err); recovered != nil {
		return recovered, nil
	}
	return nil, err
}

func (s *dispatchService) invoke(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	name := event.Action()
	if name == "" {
		return nil, ErrMissingActionName
	}
	handler, ok := s.handlers[name]
	if !ok {
		return nil, &ActionNotFoundError{Name: name}
	}
	return handler(ctx, event)
}
