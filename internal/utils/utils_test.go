package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferPool(t *testing.T) {
	buf := GetBuffer(512)
	require.Len(t, buf, 512)
	ReleaseBuffer(buf)

	big := GetBuffer(8192)
	require.Len(t, big, 8192)
	ReleaseBuffer(big)
}

func TestWrapError(t *testing.T) {
	require.NoError(t, WrapError("context", nil))

	cause := errors.New("boom")
	err := WrapError("reading cluster", cause)
	require.EqualError(t, err, "reading cluster: boom")
	require.ErrorIs(t, err, cause)
}

type sliceReaderAt []byte

func (s sliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s)) {
		return 0, io.EOF
	}
	n := copy(p, s[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func TestReadFullAt(t *testing.T) {
	data := sliceReaderAt{1, 2, 3, 4, 5, 6, 7, 8}

	buf := make([]byte, 4)
	require.NoError(t, ReadFullAt(data, buf, 2))
	require.Equal(t, []byte{3, 4, 5, 6}, buf)

	// Short reads surface as io.ErrUnexpectedEOF, even when the reader
	// itself reports a bare EOF.
	err := ReadFullAt(data, buf, 6)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	err = ReadFullAt(data, buf, 100)
	require.Error(t, err)
}
