// Copyright 2025 The netrace Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netrace

import (
	"bufio"
	"io"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/netrace/netrace/common"
)

// source is the opaque, forward-only byte stream the decoder reads from. It
// supports sequential reads and re-opening from the beginning; it never
// supports random-access seeking, because the underlying stream is itself a
// decompressor's stdout pipe.
type source interface {
	io.Reader
	// reopen abandons any in-flight read position and restarts the stream
	// from byte zero.
	reopen() error
	// close terminates the stream, reaping any owned subprocess.
	close() error
}

// processSource pipes a trace file through an external decompressor,
// semantically `bzip2 -dc <path>`, treating its stdout as an opaque,
// sequential byte stream.
type processSource struct {
	path string
	name string
	args []string

	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    *bufio.Reader
}

// newProcessSource spawns the decompressor and returns once its stdout pipe
// is ready to read.
func newProcessSource(path, name string, args ...string) (*processSource, error) {
	s := &processSource{path: path, name: name, args: args}
	if err := s.start(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *processSource) start() error {
	cmd := exec.Command(s.name, append(s.args, s.path)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to open pipe to trace file")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start decompressor")
	}
	s.cmd = cmd
	s.stdout = stdout
	s.buf = bufio.NewReaderSize(stdout, common.ScratchBufferSize)
	return nil
}

func (s *processSource) Read(p []byte) (int, error) {
	return s.buf.Read(p)
}

func (s *processSource) reopen() error {
	if err := s.close(); err != nil {
		return err
	}
	return s.start()
}

func (s *processSource) close() error {
	if s.stdout != nil {
		_ = s.stdout.Close()
		s.stdout = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		s.cmd = nil
	}
	return nil
}

// readerSource adapts an arbitrary io.Reader factory to the source
// interface. It is how OpenReader embeds netrace in a process
// that already owns its own decompression, and how tests feed crafted
// in-memory traces through the exact same decode path a real trace file
// takes.
type readerSource struct {
	open func() (io.Reader, error)
	cur  io.Reader
}

func newReaderSource(open func() (io.Reader, error)) (*readerSource, error) {
	s := &readerSource{open: open}
	r, err := open()
	if err != nil {
		return nil, err
	}
	s.cur = r
	return s, nil
}

func (s *readerSource) Read(p []byte) (int, error) {
	return s.cur.Read(p)
}

func (s *readerSource) reopen() error {
	if s.open == nil {
		return errors.New("source does not support reopening")
	}
	r, err := s.open()
	if err != nil {
		return err
	}
	s.cur = r
	return nil
}

func (s *readerSource) close() error {
	if c, ok := s.cur.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
