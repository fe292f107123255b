// Package llm wraps the model endpoint behind generate and translate
// operations with a bounded retry policy. Transient failures (network errors,
// timeouts, empty completions) are absorbed here; callers only ever see a
// success or a TerminalError carrying the attempt count.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultTargetLanguage = "Hindi"

// Completer is the single-call surface of the model client.
type Completer interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// SleepFunc pauses between retry attempts. Implementations must honor context
// cancellation. Tests inject a no-op.
type SleepFunc func(ctx context.Context, delay time.Duration) error

// ContextSleep waits for the given delay or until the context is done.
func ContextSleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TerminalError reports a model call that failed every configured attempt.
type TerminalError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// IsTerminal reports whether err wraps a TerminalError.
func IsTerminal(err error) bool {
	var terminalErr *TerminalError
	return errors.As(err, &terminalErr)
}

// Options configures the gateway retry policy and model bindings.
type Options struct {
	GenerationModel  string
	TranslationModel string
	TargetLanguage   string
	MaxRetries       int
	RetryDelay       time.Duration
	Timeout          time.Duration
}

// Gateway drives generation and translation calls against a Completer.
type Gateway struct {
	completer Completer
	options   Options
	sleep     SleepFunc
	logger    *zap.Logger
}

// NewGateway builds a gateway. A nil sleep falls back to ContextSleep and a
// nil logger to a no-op logger.
func NewGateway(completer Completer, options Options, sleep SleepFunc, logger *zap.Logger) *Gateway {
	if options.MaxRetries < 1 {
		options.MaxRetries = 1
	}
	if options.TargetLanguage == "" {
		options.TargetLanguage = defaultTargetLanguage
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{completer: completer, options: options, sleep: sleep, logger: logger}
}

// Generate produces a reasoning trace for the given problem.
func (g *Gateway) Generate(ctx context.Context, title string, content string) (string, error) {
	prompt := buildReasoningTracePrompt(content)
	return g.callWithRetry(ctx, "generate", g.options.GenerationModel, prompt, zap.String("title", title))
}

// Translate renders the stored trace in the configured target language.
func (g *Gateway) Translate(ctx context.Context, traceText string) (string, error) {
	prompt := buildTranslationPrompt(g.options.TargetLanguage, traceText)
	return g.callWithRetry(ctx, "translate", g.options.TranslationModel, prompt, zap.Int("trace_length", len(traceText)))
}

func (g *Gateway) callWithRetry(ctx context.Context, operation string, model string, prompt string, fields ...zap.Field) (string, error) {
	attemptLogger := g.logger.With(append([]zap.Field{
		zap.String("operation", operation),
		zap.String("model", model),
	}, fields...)...)

	var lastErr error
	for attempt := 1; attempt <= g.options.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		attemptCtx := ctx
		cancel := func() {}
		if g.options.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, g.options.Timeout)
		}
		response, callErr := g.completer.Generate(attemptCtx, model, prompt)
		cancel()

		if callErr == nil {
			attemptLogger.Info("model call succeeded",
				zap.Int("attempt", attempt),
				zap.Int("response_length", len(response)))
			return response, nil
		}
		if parentErr := ctx.Err(); parentErr != nil {
			return "", parentErr
		}

		lastErr = callErr
		attemptLogger.Warn("model call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", g.options.MaxRetries),
			zap.Error(callErr))

		if attempt < g.options.MaxRetries {
			if sleepErr := g.sleep(ctx, g.options.RetryDelay); sleepErr != nil {
				return "", sleepErr
			}
		}
	}

	terminalErr := &TerminalError{Operation: operation, Attempts: g.options.MaxRetries, Err: lastErr}
	attemptLogger.Error("model call exhausted retries", zap.Error(terminalErr))
	return "", terminalErr
}
