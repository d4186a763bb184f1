package ctxioc

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryResolve_Missing(t *testing.T) {
	c := New()

	w, err := TryResolve[*testWidget](c)
	assert.NoError(t, err)
	assert.Nil(t, w)

	n, err := TryResolve[int](c, "arg")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTryResolve_Present(t *testing.T) {
	c := New()
	c.Register(func(val int) *testWidget { return &testWidget{val: val} })

	w, err := TryResolve[*testWidget](c, 5)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 5, w.val)

	// A different argument signature is a different service.
	w, err = TryResolve[*testWidget](c)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestTryResolve_FromParent(t *testing.T) {
	parent := New()
	parent.Register(func() *testWidget { return &testWidget{val: 3} })
	child := mustChild(t, parent)

	w, err := TryResolve[*testWidget](child)
	require.NoError(t, err)
	assert.Equal(t, 3, w.val)
}

func TestTryResolve_FactoryErrorsStillReported(t *testing.T) {
	c := New()
	c.Register(func() (*testWidget, error) {
		return nil, errors.New("broken")
	})

	w, err := TryResolve[*testWidget](c)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrFactoryFailed)
}

func TestTryResolveKeyed(t *testing.T) {
	c := New()
	c.RegisterKeyed("primary", func() *testWidget { return &testWidget{val: 1} })

	w, err := TryResolveKeyed[*testWidget](c, "primary")
	require.NoError(t, err)
	assert.Equal(t, 1, w.val)

	w, err = TryResolveKeyed[*testWidget](c, "secondary")
	require.NoError(t, err)
	assert.Nil(t, w)

	// Keyed and unkeyed registrations do not see each other.
	w, err = TryResolve[*testWidget](c)
	require.NoError(t, err)
	assert.Nil(t, w)

	_, err = TryResolveKeyed[*testWidget](c, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTryResolveOk(t *testing.T) {
	c := New()
	c.Register(func() int { return 0 })

	n, ok, err := TryResolveOk[int](c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	s, ok, err := TryResolveOk[string](c)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", s)
}

func TestCanResolve(t *testing.T) {
	parent := New()
	parent.Register(func() *testWidget { return &testWidget{} })
	parent.Register(func(name string, r io.Reader) *testParser {
		return &testParser{name: name, src: r}
	})
	child := mustChild(t, parent)

	assert.True(t, CanResolve[*testWidget](parent))
	assert.True(t, CanResolve[*testWidget](child))
	assert.True(t, CanResolve[*Container](child))
	assert.False(t, CanResolve[*testDoodad](child))

	assert.True(t, CanResolve[*testParser](child, TypeOf[string](), TypeOf[io.Reader]()))
	assert.False(t, CanResolve[*testParser](child, TypeOf[string](), TypeOf[*bytes.Buffer]()))
	assert.False(t, CanResolve[*testParser](child))

	// Nothing is built by asking.
	for _, info := range parent.Registrations() {
		if info.ServiceType == TypeOf[*testWidget]() {
			assert.False(t, info.Resolved)
		}
	}
}

func TestCanResolve_ChildRegistrationInvisibleToParent(t *testing.T) {
	parent := New()
	child := mustChild(t, parent)
	child.Register(func() *testWidget { return &testWidget{} })

	assert.True(t, CanResolve[*testWidget](child))
	assert.False(t, CanResolve[*testWidget](parent))
}

func TestCanResolveKeyed(t *testing.T) {
	c := New()
	c.RegisterKeyed(42, func() *testWidget { return &testWidget{} })

	assert.True(t, CanResolveKeyed[*testWidget](c, 42))
	assert.False(t, CanResolveKeyed[*testWidget](c, 43))
	assert.False(t, CanResolveKeyed[*testWidget](c, "42"))
	assert.False(t, CanResolveKeyed[*testWidget](c, nil))
	assert.False(t, CanResolveKeyed[*testWidget](c, []int{42}))
	assert.False(t, CanResolve[*testWidget](c))
}

func TestCanResolve_NilContainer(t *testing.T) {
	assert.False(t, CanResolve[*testWidget](nil))
}
