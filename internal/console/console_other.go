//go:build !windows

package console

import "go.uber.org/zap"

// IsRunningFromConsole always reports true outside Windows.
func IsRunningFromConsole() bool {
	return true
}

// SetupConsoleHandler is a no-op outside Windows, where os.Interrupt is reliable.
func SetupConsoleHandler(onInterrupt func(), logger *zap.SugaredLogger) func() {
	return func() {}
}
