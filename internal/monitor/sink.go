package monitor

import (
	"context"
	"errors"

	"speed-monitor/internal/models"
)

type tee struct {
	sinks []models.Sink
}

// Tee returns a Sink that appends to primary and then to every mirror.
// Every sink is attempted; their errors are joined.
func Tee(primary models.Sink, mirrors ...models.Sink) models.Sink {
	if len(mirrors) == 0 {
		return primary
	}
	return &tee{sinks: append([]models.Sink{primary}, mirrors...)}
}

func (t *tee) Append(ctx context.Context, result models.Result) error {
	var errs []error
	for _, s := range t.sinks {
		if err := s.Append(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
