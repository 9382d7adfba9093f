// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package netio_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/netio"
)

func TestBoundedReaderStopsAtLimit(t *testing.T) {
	src := bytes.NewReader([]byte("hello world"))
	r := netio.NewBoundedReader(src, 5)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
	require.Equal(t, 0, r.Remaining())

	n, err := r.Read(make([]byte, 4))
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestBoundedReaderDiscard(t *testing.T) {
	src := bytes.NewReader([]byte("hello world"))
	r := netio.NewBoundedReader(src, 11)

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 6, r.Remaining())

	require.NoError(t, r.Discard())
	require.Equal(t, 0, r.Remaining())
}

func TestBoundedWriterClipsToLimit(t *testing.T) {
	var dst bytes.Buffer
	w := netio.NewBoundedWriter(&dst, 5)

	n, err := w.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", dst.String())
	require.Equal(t, 0, w.Remaining())

	_, err = w.Write([]byte("x"))
	require.ErrorIs(t, err, io.ErrShortWrite)
}
