//go:build windows

package snapio

import (
	"os"
	"syscall"
	"unsafe"
)

type windowsPlatform struct{}

func newPlatformIO() platformIO { return windowsPlatform{} }

type coord struct{ X, Y int16 }
type smallRect struct{ Left, Top, Right, Bottom int16 }
type consoleScreenBufferInfo struct {
	DwSize              coord
	DwCursorPosition    coord
	WAttributes         uint16
	SrWindow            smallRect
	DwMaximumWindowSize coord
}

var (
	kernel32                       = syscall.NewLazyDLL("kernel32.dll")
	procGetConsoleMode             = kernel32.NewProc("GetConsoleMode")
	procSetConsoleMode             = kernel32.NewProc("SetConsoleMode")
	procGetConsoleScreenBufferInfo = kernel32.NewProc("GetConsoleScreenBufferInfo")
	procGetStdHandle               = kernel32.NewProc("GetStdHandle")
)

const (
	stdOutputHandle                 = ^uintptr(10) + 1 // (uintptr)(-11)
	stdInputHandle                  = ^uintptr(8) + 1  // (uintptr)(-10)
	enableVirtualTerminalProcessing = 0x0004
)

func stdHandle(file *os.File) uintptr {
	switch file {
	case os.Stdout:
		return stdOutputHandle
	case os.Stdin:
		return stdInputHandle
	default:
		return file.Fd()
	}
}

func consoleMode(h uintptr) (uint32, bool) {
	var mode uint32
	r, _, _ := procGetConsoleMode.Call(h, uintptr(unsafe.Pointer(&mode)))
	return mode, r != 0
}

func stdoutHandle() (uintptr, bool) {
	h, _, _ := procGetStdHandle.Call(stdOutputHandle)
	return h, h != 0 && h != ^uintptr(0)
}

func (windowsPlatform) isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	_, ok := consoleMode(stdHandle(f))
	return ok
}

func (windowsPlatform) termSize(f *os.File) (int, int, bool) {
	if f == nil {
		return 0, 0, false
	}
	var info consoleScreenBufferInfo
	h := stdHandle(f)
	r, _, _ := procGetConsoleScreenBufferInfo.Call(h, uintptr(unsafe.Pointer(&info)))
	if r == 0 {
		return 0, 0, false
	}
	width := int(info.SrWindow.Right - info.SrWindow.Left + 1)
	height := int(info.SrWindow.Bottom - info.SrWindow.Top + 1)
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

func (windowsPlatform) enableVirtualTerminal() bool {
	h, ok := stdoutHandle()
	if !ok {
		return false
	}
	mode, ok := consoleMode(h)
	if !ok {
		return false
	}
	if mode&enableVirtualTerminalProcessing != 0 {
		return true
	}
	r, _, _ := procSetConsoleMode.Call(h, uintptr(mode|enableVirtualTerminalProcessing))
	return r != 0
}

func (windowsPlatform) vtEnabled() bool {
	h, ok := stdoutHandle()
	if !ok {
		return false
	}
	mode, ok := consoleMode(h)
	return ok && mode&enableVirtualTerminalProcessing != 0
}
