// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package decompressor

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
)

const (
	gzipMagic  = "\x1f\x8b"
	b2zipMagic = "BZh"
)

// New detects whether a shape file or a response body is compressed with
// bzip2 or gzip and returns a reader of the decompressed stream. Inputs
// shorter than any magic header, including empty ones, are returned as is.
func New(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	buf, err := br.Peek(3)
	if err == io.EOF {
		return br, nil
	} else if err != nil {
		return nil, err
	}
	switch {
	case bytes.Equal(buf[:2], []byte(gzipMagic)):
		return gzip.NewReader(br)
	case bytes.Equal(buf[:3], []byte(b2zipMagic)):
		return bzip2.NewReader(br), nil
	default:
		return br, nil
	}
}

// NewReadCloser is like New, but also closes the underlying stream.
func NewReadCloser(rc io.ReadCloser) (io.ReadCloser, error) {
	r, err := New(rc)
	if err != nil {
		return nil, err
	}
	return readCloser{Reader: r, c: rc}, nil
}

type readCloser struct {
	io.Reader
	c io.Closer
}

func (r readCloser) Close() error {
	if c, ok := r.Reader.(io.Closer); ok {
		c.Close()
	}
	return r.c.Close()
}
