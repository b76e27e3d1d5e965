package alloc

import (
	"fmt"
	"runtime"
	"strings"
)

const maxTraceDepth = 32

// pkgPrefix matches the function names of this package, methods included.
var pkgPrefix = packagePrefix()

func packagePrefix() string {
	pc, _, _, _ := runtime.Caller(0)
	name := runtime.FuncForPC(pc).Name() // ".../alloc.packagePrefix"
	return name[:strings.LastIndex(name, ".")+1]
}

// captureTrace records the program counters of its caller's stack. Frames
// inside this package are dropped later by formatTrace, so every entry
// point reports the same allocation site.
func captureTrace() []uintptr {
	pcs := make([]uintptr, maxTraceDepth)
	n := runtime.Callers(2, pcs)
	return pcs[:n:n]
}

// internalFrame reports whether f belongs to the allocator itself rather
// than to a caller. Test files of this package count as callers.
func internalFrame(f runtime.Frame) bool {
	return strings.HasPrefix(f.Function, pkgPrefix) &&
		!strings.HasSuffix(f.File, "_test.go")
}

// formatTrace renders pcs as "function file:line" strings, starting at the
// first frame outside this package.
func formatTrace(pcs []uintptr) []string {
	if len(pcs) == 0 {
		return nil
	}
	out := make([]string, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	leading := true
	for {
		f, more := frames.Next()
		if leading && internalFrame(f) {
			if !more {
				break
			}
			continue
		}
		leading = false
		out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	return out
}
