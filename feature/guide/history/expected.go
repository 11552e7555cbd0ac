package history

import "context"

// ExpectedCountSource supplies the service count the safety check compares against.
// Zero disables the check.
type ExpectedCountSource interface {
	ExpectedServices(ctx context.Context) (int, error)
}

// Static is a configured expected count.
type Static int

// ExpectedServices implements ExpectedCountSource.
func (s Static) ExpectedServices(context.Context) (int, error) {
	return int(s), nil
}

// LastRun derives the expected count from the last successful run.
type LastRun struct {
	Store *Store
}

// ExpectedServices implements ExpectedCountSource. It returns 0 when no run was recorded.
func (l LastRun) ExpectedServices(ctx context.Context) (int, error) {
	if l.Store == nil {
		return 0, nil
	}
	rec, err := l.Store.LastSuccessful(ctx)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Services, nil
}

// FirstOf returns the first positive count among sources, trying them in order.
// Source errors are returned only when no later source yields a count.
type FirstOf []ExpectedCountSource

// ExpectedServices implements ExpectedCountSource.
func (f FirstOf) ExpectedServices(ctx context.Context) (int, error) {
	var firstErr error
	for _, src := range f {
		if src == nil {
			continue
		}
		n, err := src.ExpectedServices(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if n > 0 {
			return n, nil
		}
	}
	return 0, firstErr
}
