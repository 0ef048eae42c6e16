//go:build !windows

package snapio

import (
	"os"
	"syscall"
	"unsafe"
)

type unixPlatform struct{}

func newPlatformIO() platformIO { return unixPlatform{} }

type winsize struct{ Row, Col, Xpixel, Ypixel uint16 }

func getWinsize(f *os.File) (winsize, bool) {
	var ws winsize
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uintptr(syscall.TIOCGWINSZ), uintptr(unsafe.Pointer(&ws)))
	return ws, errno == 0
}

func (unixPlatform) isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	if _, ok := getWinsize(f); ok {
		return true
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func (unixPlatform) termSize(f *os.File) (int, int, bool) {
	if f == nil {
		return 0, 0, false
	}
	ws, ok := getWinsize(f)
	if !ok || ws.Col == 0 || ws.Row == 0 {
		return 0, 0, false
	}
	return int(ws.Col), int(ws.Row), true
}

func (unixPlatform) enableVirtualTerminal() bool { return true }
func (unixPlatform) vtEnabled() bool             { return true }
