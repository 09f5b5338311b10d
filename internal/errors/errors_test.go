package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New("boom"),
			want: "boom",
		},
		{
			name: "with operation",
			err:  New("boom").WithOperation("Store.Put"),
			want: "Store.Put: boom",
		},
		{
			name: "with component",
			err:  New("boom").WithComponent("cache"),
			want: "cache: boom",
		},
		{
			name: "with both",
			err:  New("boom").WithOperation("Store.Put").WithComponent("cache"),
			want: "cache: Store.Put: boom",
		},
		{
			name: "wrapped",
			err:  Wrap(stderrors.New("disk full"), "failed to persist").WithComponent("cache"),
			want: "cache: failed to persist: disk full",
		},
		{
			name: "formatted",
			err:  Newf("unknown optimizer %q", "warp"),
			want: `unknown optimizer "warp"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
}

func TestUnwrapChain(t *testing.T) {
	root := stderrors.New("root cause")
	wrapped := Wrap(root, "middle").WithComponent("tuner")
	outer := Wrap(wrapped, "outer")

	assert.True(t, Is(outer, root))

	var e *Error
	require.True(t, As(outer, &e))
	assert.Equal(t, "outer", e.Message)
}
