package ctxioc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ParserFactory func(name string, r io.Reader) (*testParser, error)
type ParserFactoryNoError func(name string, r io.Reader) *testParser
type WidgetSource func() (*testWidget, error)

func registerParser(c *Container) {
	c.Register(func(c *Container, name string, r io.Reader) (*testParser, error) {
		if name == "" {
			return nil, fmt.Errorf("parser needs a name")
		}
		return &testParser{name: name, src: r}, nil
	}).ReusedWithinNone()
}

func TestLazyResolve_RegisteredLater(t *testing.T) {
	c := New()
	lazy := LazyResolve[*testWidget](c, 4)

	_, err := lazy()
	assert.ErrorIs(t, err, ErrNotRegistered)

	c.Register(func(val int) *testWidget { return &testWidget{val: val} })

	w, err := lazy()
	require.NoError(t, err)
	assert.Equal(t, 4, w.val)

	again, err := lazy()
	require.NoError(t, err)
	assert.Same(t, w, again)
}

func TestLazyResolve_InvalidArgumentsReportedOnCall(t *testing.T) {
	c := New()
	lazy := LazyResolve[*testWidget](c, nil)

	_, err := lazy()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLazyResolveKeyed(t *testing.T) {
	c := New()
	lazy := LazyResolveKeyed[*testWidget](c, "blue")
	c.RegisterKeyed("blue", func() *testWidget { return &testWidget{val: 9} })

	w, err := lazy()
	require.NoError(t, err)
	assert.Equal(t, 9, w.val)
}

func TestLazyFunc_WithError(t *testing.T) {
	c := New()
	newParser := LazyFunc[ParserFactory](c)

	_, err := newParser("config", strings.NewReader("a=b"))
	assert.ErrorIs(t, err, ErrNotRegistered)

	registerParser(c)

	buf := bytes.NewBufferString("x=y")
	p, err := newParser("config", buf)
	require.NoError(t, err)
	assert.Equal(t, "config", p.name)
	assert.Same(t, buf, p.src)

	// Nil interface arguments keep their declared type.
	p, err = newParser("empty", nil)
	require.NoError(t, err)
	assert.Nil(t, p.src)

	p, err = newParser("", buf)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrFactoryFailed)
	assert.Contains(t, err.Error(), "parser needs a name")
}

func TestLazyFunc_WithoutError(t *testing.T) {
	c := New()
	registerParser(c)
	newParser := LazyFunc[ParserFactoryNoError](c)

	p := newParser("config", strings.NewReader(""))
	assert.Equal(t, "config", p.name)

	assert.PanicsWithError(t,
		"factory failed: *ctxioc.testParser(string, io.Reader) (parser needs a name)",
		func() {
			newParser("", nil)
		})
}

func TestLazyFunc_NoArguments(t *testing.T) {
	c := New()
	c.Register(func() *testWidget { return &testWidget{val: 2} })

	source := LazyFunc[WidgetSource](c)
	w, err := source()
	require.NoError(t, err)
	assert.Equal(t, 2, w.val)
}

func TestLazyFuncKeyed(t *testing.T) {
	c := New()
	c.RegisterKeyed("strict", func(name string, r io.Reader) *testParser {
		return &testParser{name: "strict:" + name, src: r}
	})
	registerParser(c)

	strict := LazyFuncKeyed[ParserFactoryNoError](c, "strict")
	plain := LazyFunc[ParserFactoryNoError](c)

	assert.Equal(t, "strict:a", strict("a", nil).name)
	assert.Equal(t, "a", plain("a", nil).name)
}

func TestLazyFunc_InvalidTarget(t *testing.T) {
	c := New()

	assert.Panics(t, func() { LazyFunc[int](c) })
	assert.Panics(t, func() { LazyFunc[func()](c) })
	assert.Panics(t, func() { LazyFunc[func() error](c) })
	assert.Panics(t, func() { LazyFunc[func(...int) *testWidget](c) })
	assert.Panics(t, func() { LazyFunc[func(*Container) *testWidget](c) })
	assert.Panics(t, func() { LazyFuncKeyed[WidgetSource](c, nil) })
	assert.Panics(t, func() { LazyFunc[WidgetSource](nil) })
}
