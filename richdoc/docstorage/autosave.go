package docstorage

import (
	"context"
	"time"

	"github.com/RamRamez/test-editors/richdoc/docedit"
)

// AutoSaver returns a listener that stores the committed document under id
// after every change. Each save is bounded by timeout; a zero timeout uses
// the default SaveTimeout. Failures are returned to the session, which logs
// them.
func (s *Store) AutoSaver(id string, timeout time.Duration) docedit.Listener {
	if timeout <= 0 {
		timeout = DefaultOptions().SaveTimeout
	}
	return func(ev *docedit.ChangeEvent) error {
		data, err := ev.JSON()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.save(ctx, id, data)
	}
}
