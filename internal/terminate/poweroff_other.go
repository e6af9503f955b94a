//go:build !linux

package terminate

func powerOff() error {
	return ErrUnsupported
}
