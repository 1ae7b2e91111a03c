package mmap

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFloat64s(t *testing.T, values []float64) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "mapping_test")
	require.NoError(t, err)

	buf := make([]byte, 8)
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		_, err = f.Write(buf)
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	return f.Name()
}

func TestMapping_OpenReadClose(t *testing.T) {
	content := []byte("Hello, Mmap!")
	f, err := os.CreateTemp(t.TempDir(), "mapping_test")
	require.NoError(t, err)

	_, err = f.Write(content)
	require.NoError(t, err)
	f.Close()

	m, err := Open(f.Name())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())

	// ReadAt
	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7) // "Mmap!"
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Mmap!", string(buf))

	// ReadAt out of bounds
	buf2 := make([]byte, 10)
	n, err = m.ReadAt(buf2, 100)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)

	// ReadAt negative offset
	_, err = m.ReadAt(buf, -1)
	assert.Equal(t, ErrOutOfBounds, err)

	// Close is idempotent
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())

	_, err = m.ReadAt(buf, 0)
	assert.Equal(t, ErrClosed, err)
}

func TestMapping_EmptyFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "mapping_test_empty")
	require.NoError(t, err)
	f.Close()

	m, err := Open(f.Name())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
}

func TestMapping_Float64s(t *testing.T) {
	values := []float64{0.0, 0.25, 0.5, 0.75, 1.0, 42.5}
	path := writeTempFloat64s(t, values)

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	// Full view
	got, err := m.Float64s(0, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, got)

	// Row-style view into the middle
	got, err = m.Float64s(2*8, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.75, 1.0}, got)

	// Empty view
	got, err = m.Float64s(0, 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Out of bounds
	_, err = m.Float64s(0, len(values)+1)
	assert.Equal(t, ErrOutOfBounds, err)
	_, err = m.Float64s(-8, 1)
	assert.Equal(t, ErrOutOfBounds, err)

	// Misaligned offset
	_, err = m.Float64s(4, 1)
	assert.Equal(t, ErrMisaligned, err)

	require.NoError(t, m.Close())
	_, err = m.Float64s(0, 1)
	assert.Equal(t, ErrClosed, err)
}

func TestMapping_Advise(t *testing.T) {
	path := writeTempFloat64s(t, []float64{1, 2, 3, 4})

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Advise(AccessSequential))
	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Advise(AccessWillNeed))
	assert.NoError(t, m.Advise(AccessDefault))

	require.NoError(t, m.Close())
	assert.Equal(t, ErrClosed, m.Advise(AccessSequential))
}

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)

	data := m.Bytes()
	require.Len(t, data, 4096)

	// Anonymous mappings are writable
	data[0] = 0xAB
	data[4095] = 0xCD
	assert.Equal(t, byte(0xAB), m.Bytes()[0])
	assert.Equal(t, byte(0xCD), m.Bytes()[4095])

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = MapAnon(0)
	assert.Equal(t, ErrInvalidSize, err)
	_, err = MapAnon(-1)
	assert.Equal(t, ErrInvalidSize, err)
}
