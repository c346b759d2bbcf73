package extension

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenepack/internal/state"
)

func TestRegisterAndLookup(t *testing.T) {
	Register("test-lookup", func(*state.State, string) error { return nil })

	_, ok := Lookup("test-lookup")
	assert.True(t, ok)
	_, ok = Lookup("test-missing")
	assert.False(t, ok)
	assert.Contains(t, Names(), "test-lookup")

	assert.Panics(t, func() {
		Register("test-lookup", func(*state.State, string) error { return nil })
	})
	assert.Panics(t, func() { Register("test-nil", nil) })
}

func TestRunOncePerInput(t *testing.T) {
	var seen []string
	Register("test-record", func(st *state.State, input string) error {
		seen = append(seen, input)
		_, err := st.PushString(input)
		return err
	})

	st := state.New(nil)
	r := Run(st, []string{"test-record"}, []string{"a.gltf", "b.gltf"})
	assert.Equal(t, Report{Runs: 2}, r)
	assert.Equal(t, []string{"a.gltf", "b.gltf"}, seen)
	assert.Equal(t, 2, st.Scene.StringValuesLength())
}

func TestRunFailuresAreSoft(t *testing.T) {
	var after int
	Register("test-fail", func(*state.State, string) error { return errors.New("boom") })
	Register("test-panic", func(*state.State, string) error { panic("bad input") })
	Register("test-after", func(*state.State, string) error {
		after++
		return nil
	})

	r := Run(state.New(nil), []string{"test-fail", "test-unknown", "test-panic", "test-after"}, []string{"x"})
	require.Equal(t, 3, r.Runs)
	assert.Equal(t, 3, r.Failures)
	assert.Equal(t, 1, after)
}

func TestRunWithoutInputs(t *testing.T) {
	Register("test-idle", func(*state.State, string) error {
		t.Fatal("must not run without inputs")
		return nil
	})
	assert.Equal(t, Report{}, Run(state.New(nil), []string{"test-idle"}, nil))
}
