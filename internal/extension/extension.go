// Package extension holds the registry of scene patch steps and runs them
// against a staged scene.
//
// An extension is registered once under a name, usually from an init
// function, and runs once for every script input when enabled. Failures are
// logged and do not stop the remaining runs.
package extension

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/logger"
	"github.com/Faultbox/scenepack/internal/state"
)

// Func patches st using one script input, typically a sidecar file path.
type Func func(st *state.State, input string) error

var (
	mu       sync.RWMutex
	registry = make(map[string]Func)
)

// Register makes an extension available by name. It panics if fn is nil or
// the name is already taken.
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	if fn == nil {
		panic("extension: Register func is nil")
	}
	if _, dup := registry[name]; dup {
		panic("extension: Register called twice for " + name)
	}
	registry[name] = fn
}

// Lookup returns the extension registered under name.
func Lookup(name string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// Names returns the registered extension names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Report summarises a Run.
type Report struct {
	Runs     int
	Failures int
}

// Run calls every enabled extension once per input, in order. Unknown
// names and failing runs are logged and counted.
func Run(st *state.State, enabled, inputs []string) Report {
	var r Report
	log := logger.Named("extension")

	for _, name := range enabled {
		fn, ok := Lookup(name)
		if !ok {
			LogError(fmt.Sprintf("unknown extension %q (registered: %v)", name, Names()))
			r.Failures++
			continue
		}
		for _, input := range inputs {
			r.Runs++
			log.Debug("running extension", zap.String("name", name), zap.String("input", input))
			if err := call(fn, st, input); err != nil {
				LogError(fmt.Sprintf("failed to run extension %s on %s: %v", name, input, err))
				r.Failures++
			}
		}
	}
	return r
}

func call(fn Func, st *state.State, input string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(st, input)
}

// LogInfo reports extension progress.
func LogInfo(msg string) {
	logger.Named("extension").Info("[ext] " + msg)
}

// LogError reports an extension failure.
func LogError(msg string) {
	logger.Named("extension").Error("[ext] " + msg)
}
