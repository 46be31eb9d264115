package docedit

import (
	"encoding/json"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/RamRamez/test-editors/richdoc/richlog"
)

// LogListener logs every commit with its size and, at debug level, the
// serialized document.
func LogListener(logger *zap.Logger) Listener {
	logger = richlog.OrDefault(logger, "docedit")
	return func(ev *ChangeEvent) error {
		data, err := ev.JSON()
		if err != nil {
			return err
		}
		logger.Info("document committed",
			zap.String("session", ev.Session),
			zap.Uint64("revision", ev.Revision),
			zap.Int("nodes", ev.Tree.Len()),
			zap.String("size", humanize.Bytes(uint64(len(data)))),
		)
		if ce := logger.Check(zap.DebugLevel, "document json"); ce != nil {
			ce.Write(
				zap.String("session", ev.Session),
				zap.Uint64("revision", ev.Revision),
				zap.Reflect("document", json.RawMessage(data)),
			)
		}
		return nil
	}
}
