package stage

import (
	"os"

	"go.uber.org/zap"
)

// readOptimization is an opportunistic tweak applied to file inputs.
// Failures are logged and otherwise ignored.
type readOptimization struct {
	name  string
	apply func(f *os.File, info os.FileInfo) error
}

var readOptimizations []readOptimization

func optimizeInput(f *os.File, logger *zap.Logger) {
	info, err := f.Stat()
	if err != nil {
		return
	}
	for _, o := range readOptimizations {
		if err := o.apply(f, info); err != nil {
			logger.Debug("read optimization skipped", zap.String("optimization", o.name), zap.Error(err))
		}
	}
}
