// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package netio

import (
	"crypto/aes"
	"crypto/cipher"
	"io"
)

// writeBufferSize is the scratch buffer size for CipherWriter (spec §4.4:
// "buffers up to a fixed size, e.g. 8 KiB").
const writeBufferSize = 8192

// cfb8 implements AES's 8-bit cipher-feedback mode: one plaintext byte in,
// one ciphertext byte out, keystream re-derived from the shifted IV on
// every byte. crypto/cipher only ships full-block-size CFB, so this is
// hand-rolled the way the pack does it (go-mclib-protocol/crypto/cfb8.go).
type cfb8 struct {
	block   cipher.Block
	iv      []byte
	temp    []byte
	decrypt bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) *cfb8 {
	ivCopy := make([]byte, len(iv))
	copy(ivCopy, iv)
	return &cfb8{block: block, iv: ivCopy, temp: make([]byte, block.BlockSize()), decrypt: decrypt}
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	for i := range src {
		copy(c.temp, c.iv)
		c.block.Encrypt(c.iv, c.iv)
		keystreamByte := c.iv[0]

		out := src[i] ^ keystreamByte
		dst[i] = out
		copy(c.iv, c.temp[1:])

		if c.decrypt {
			c.iv[len(c.iv)-1] = src[i]
		} else {
			c.iv[len(c.iv)-1] = out
		}
	}
}

// newAES128CFB8 builds the encrypt or decrypt stream for a freshly keyed
// direction: AES-128 with IV = key, per spec §4.7 (both directions keyed
// with the same 16-byte shared secret used as both key and IV).
func newAES128CFB8(key [16]byte, decrypt bool) (cipher.Stream, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return newCFB8(block, key[:], decrypt), nil
}

// CipherReader is the decrypt-on-read half of the stream cipher adapter
// (spec component C). Before SetKey, bytes pass through unchanged.
type CipherReader struct {
	r      io.Reader
	stream cipher.Stream
}

func NewCipherReader(r io.Reader) *CipherReader { return &CipherReader{r: r} }

// SetKey installs the decrypt stream. Idempotent-once: returns false and
// leaves state untouched on any call after the first (spec invariant: a
// cipher's key may be set at most once per direction).
func (c *CipherReader) SetKey(key [16]byte) bool {
	if c.stream != nil {
		return false
	}
	stream, err := newAES128CFB8(key, true)
	if err != nil {
		return false
	}
	c.stream = stream
	return true
}

func (c *CipherReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.stream != nil {
		c.stream.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}

// CipherWriter is the encrypt-on-write half. Writes are encrypted into a
// scratch buffer so the caller's own byte slice is never mutated, then
// flushed to the underlying writer; a short underlying write is retried
// from where it left off before the call returns (spec §4.4).
type CipherWriter struct {
	w       io.Writer
	stream  cipher.Stream
	scratch [writeBufferSize]byte
}

func NewCipherWriter(w io.Writer) *CipherWriter { return &CipherWriter{w: w} }

// SetKey installs the encrypt stream. Idempotent-once, matching CipherReader.
func (c *CipherWriter) SetKey(key [16]byte) bool {
	if c.stream != nil {
		return false
	}
	stream, err := newAES128CFB8(key, false)
	if err != nil {
		return false
	}
	c.stream = stream
	return true
}

func (c *CipherWriter) Write(p []byte) (int, error) {
	if c.stream == nil {
		return c.w.Write(p)
	}
	total := 0
	for len(p) > 0 {
		n := len(p)
		if n > writeBufferSize {
			n = writeBufferSize
		}
		chunk := c.scratch[:n]
		copy(chunk, p[:n])
		c.stream.XORKeyStream(chunk, chunk)

		pos := 0
		for pos < n {
			written, err := c.w.Write(chunk[pos:])
			pos += written
			if err != nil {
				return total + pos, err
			}
		}
		total += n
		p = p[n:]
	}
	return total, nil
}

// Close flushes (implicit: Write never returns until the scratch buffer is
// fully on the wire) and propagates shutdown to the underlying stream.
func (c *CipherWriter) Close() error {
	if closer, ok := c.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
