//go:build !linux

package memlcd

import (
	"fmt"
	"runtime"
)

// Open always fails off Linux; use New with a custom Bus instead.
func Open(HardwareConfig, *Opts) (*Dev, error) {
	return nil, fmt.Errorf("%w: spi panels are only supported on linux, not %s", ErrDeviceNotReady, runtime.GOOS)
}
