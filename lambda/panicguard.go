package lambda

import "context"

// panicGuardStage wraps next so a panic inside it (or inside the stages it
// wraps, synchronously) is converted into a "Panic" diagnostic rather than
// unwinding out of the pipeline (spec.md §3, P4). The guard holds no state
// of its own, so recover() can never leave it corrupted (spec.md §9).
func panicGuardStage(next Service) Service {
	return &panicGuard{next: next}
}

type panicGuard struct {
	next Service
}

func (g *panicGuard) PollReady(ctx context.Context) (Readiness, error) {
	return g.next.PollReady(ctx)
}

func (g *panicGuard) Call(ctx context.Context, f *frame) (result *frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.HandlerErr = nil
			f.diagnostic = DiagnosticFromPanic(r)
			result = f
			err = nil
		}
	}()
	return g.next.Call(ctx, f)
}
