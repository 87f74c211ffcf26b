package codes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := New(Link, "link failed for %s", "com.example.skin")
	assert.Equal(t, "LINK_ERROR: link failed for com.example.skin", err.Error())

	wrapped := Wrap(errors.New("exit status 1"), Compile, "compile %d files", 3)
	assert.Equal(t, "COMPILE_ERROR: compile 3 files: exit status 1", wrapped.Error())
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, IO, "nothing"))
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{
			name: "direct match",
			err:  New(Cycle, "loop"),
			code: Cycle,
			want: true,
		},
		{
			name: "match through fmt wrapping",
			err:  fmt.Errorf("resolve: %w", New(Cycle, "loop")),
			code: Cycle,
			want: true,
		},
		{
			name: "inner coded error",
			err:  Wrap(New(IO, "missing"), Compile, "compile"),
			code: IO,
			want: true,
		},
		{
			name: "different code",
			err:  New(Link, "link"),
			code: Compile,
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
			code: IO,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Is(tt.err, tt.code))
		})
	}
}

func TestOf(t *testing.T) {
	code, ok := Of(fmt.Errorf("outer: %w", New(Config, "bad")))
	assert.True(t, ok)
	assert.Equal(t, Config, code)

	_, ok = Of(errors.New("plain"))
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Resource linking failed", Describe(Link))
	assert.Equal(t, "Unknown error", Describe(Code("NOPE")))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitConfigError, ExitCode(New(Config, "bad")))
	assert.Equal(t, ExitConfigError, ExitCode(New(Cycle, "loop")))
	assert.Equal(t, ExitBuildFailed, ExitCode(New(Link, "link")))
	assert.Equal(t, ExitBuildFailed, ExitCode(errors.New("boom")))
}
