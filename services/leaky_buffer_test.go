package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeakyBufferCopy(t *testing.T) {
	lb := NewLeakyBuffer(1, 4)
	var out bytes.Buffer
	n, err := lb.Copy(&out, strings.NewReader("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "0123456789", out.String())
}

func TestLeakyBufferRecycles(t *testing.T) {
	lb := NewLeakyBuffer(1, 4)
	b := lb.Get()
	assert.Len(t, b, 4)
	lb.Put(b)
	lb.Put(make([]byte, 4))
	lb.Put(make([]byte, 8))
	assert.Len(t, lb.c, 1)
	assert.Same(t, &b[0], &lb.Get()[0])
}

func TestThrottledReader(t *testing.T) {
	r := strings.NewReader("abc")
	assert.Same(t, r, NewThrottledReader(r, 0))

	var out bytes.Buffer
	_, err := out.ReadFrom(NewThrottledReader(strings.NewReader("abcdef"), 1024))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", out.String())
}
