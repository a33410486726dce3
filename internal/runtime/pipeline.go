package runtime

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// runPipeline runs the middleware chain in registration order and routes the
// turn at the end of it, unless a middleware halted or routed it already.
func (e *Engine) runPipeline(ctx context.Context, tc *turnContext) error {
	var handler func(i int) domain.NextFunc
	handler = func(i int) domain.NextFunc {
		return func(ctx context.Context) error {
			if tc.halted {
				return nil
			}
			if i == len(e.middleware) {
				return e.dispatch(ctx, tc)
			}
			return e.middleware[i](ctx, tc, handler(i+1))
		}
	}
	return handler(0)(ctx)
}
