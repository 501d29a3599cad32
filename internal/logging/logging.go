/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging is the leveled logger used across the binding. Output goes to
// the host console (Log.txt) through a Sink, or to any io.Writer.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Level orders log severities. Messages below the current level are dropped.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNoPrint
)

// EnvLevel names the environment variable read at init.
const EnvLevel = "XPLM_LOG_LEVEL"

var levelName = []string{
	"Trace",
	"Debug",
	"Info",
	"Warn",
	"Error",
}

func (l Level) String() string {
	if l >= LevelTrace && l < LevelNoPrint {
		return levelName[l]
	}
	return "None"
}

// ParseLevel accepts either a level name (case-insensitive) or its number.
func ParseLevel(s string) (Level, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(LevelTrace) || n > int(LevelNoPrint) {
			return 0, fmt.Errorf("log level %d out of range", n)
		}
		return Level(n), nil
	}
	for i, name := range levelName {
		if strings.EqualFold(name, s) {
			return Level(i), nil
		}
	}
	if strings.EqualFold(s, "none") {
		return LevelNoPrint, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

var level atomic.Int32

func init() {
	level.Store(int32(LevelWarn))
	if v := os.Getenv(EnvLevel); v != "" {
		if l, err := ParseLevel(v); err == nil {
			level.Store(int32(l))
		}
	}
}

// SetLevel changes the process-wide level. The default is Warn, or whatever
// XPLM_LOG_LEVEL holds.
func SetLevel(l Level) {
	if l >= LevelTrace && l <= LevelNoPrint {
		level.Store(int32(l))
	}
}

// CurrentLevel returns the process-wide level.
func CurrentLevel() Level {
	return Level(level.Load())
}

// Sink receives one complete line at a time. host.System satisfies it.
type Sink interface {
	DebugString(s string)
}

type writerSink struct {
	w io.Writer
}

func (s writerSink) DebugString(line string) {
	if _, err := io.WriteString(s.w, line); err != nil {
		fmt.Fprintf(os.Stderr, "logger write failed: %v\n", err)
	}
}

// WriterSink adapts an io.Writer to a Sink.
func WriterSink(w io.Writer) Sink {
	if w == nil {
		w = os.Stderr
	}
	return writerSink{w: w}
}

// Logger prefixes every line with level, time, caller and its name.
type Logger struct {
	name      string
	out       Sink
	callDepth int
}

// New returns a logger writing to out. A nil sink writes to stderr.
func New(name string, out Sink) *Logger {
	if out == nil {
		out = WriterSink(nil)
	}
	return &Logger{
		name:      name,
		out:       out,
		callDepth: 4,
	}
}

// Named returns a copy with a different name and the same sink.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, out: l.out, callDepth: l.callDepth}
}

// WithSink returns a copy writing to another sink.
func (l *Logger) WithSink(out Sink) *Logger {
	return &Logger{name: l.name, out: out, callDepth: l.callDepth}
}

func (l *Logger) Errorf(format string, a ...any) { l.logf(LevelError, format, a...) }
func (l *Logger) Warnf(format string, a ...any)  { l.logf(LevelWarn, format, a...) }
func (l *Logger) Infof(format string, a ...any)  { l.logf(LevelInfo, format, a...) }
func (l *Logger) Debugf(format string, a ...any) { l.logf(LevelDebug, format, a...) }
func (l *Logger) Tracef(format string, a ...any) { l.logf(LevelTrace, format, a...) }

func (l *Logger) logf(lv Level, format string, a ...any) {
	if l == nil || CurrentLevel() > lv {
		return
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	l.prefix(buf, lv)
	fmt.Fprintf(buf, format, a...)
	if n := len(buf.B); n == 0 || buf.B[n-1] != '\n' {
		_ = buf.WriteByte('\n')
	}
	l.out.DebugString(buf.String())
}

func (l *Logger) prefix(buf *bytebufferpool.ByteBuffer, lv Level) {
	_, _ = buf.WriteString(levelName[lv])
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.location())
	_ = buf.WriteByte(' ')
	if l.name != "" {
		_, _ = buf.WriteString(l.name)
		_ = buf.WriteByte(' ')
	}
}

func (l *Logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}

// Printf writes an unprefixed message straight to the sink regardless of level.
// This is the plugin-facing console channel.
func Printf(out Sink, format string, a ...any) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	fmt.Fprintf(buf, format, a...)
	out.DebugString(buf.String())
}
