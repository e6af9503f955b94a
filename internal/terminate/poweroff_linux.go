//go:build linux

package terminate

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func powerOff() error {
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return fmt.Errorf("power off: %w", err)
	}
	return nil
}
