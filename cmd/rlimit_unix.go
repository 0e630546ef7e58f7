//go:build unix

package cmd

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// raiseFileLimit lifts the soft open-file limit to the hard limit. Wide
// listings open one connection per child, which exhausts the usual soft
// limit of 1024 quickly.
func raiseFileLimit(logger *zap.Logger) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		logger.Warn("Could not read open file limit", zap.Error(err))
		return
	}
	if lim.Cur >= lim.Max {
		return
	}
	old := lim.Cur
	lim.Cur = lim.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		logger.Warn("Could not raise open file limit", zap.Uint64("soft", uint64(old)), zap.Uint64("hard", uint64(lim.Max)), zap.Error(err))
		return
	}
	logger.Warn("Raised open file limit", zap.Uint64("from", uint64(old)), zap.Uint64("to", uint64(lim.Cur)))
}
