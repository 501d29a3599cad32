/*
 * Copyright 2025 SREDiag Authors
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
package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggingTestSuite struct {
	suite.Suite
	saved Level
	out   *bytes.Buffer
	log   *Logger
}

func (s *LoggingTestSuite) SetupTest() {
	s.saved = CurrentLevel()
	s.out = &bytes.Buffer{}
	s.log = New("test", WriterSink(s.out))
}

func (s *LoggingTestSuite) TearDownTest() {
	SetLevel(s.saved)
}

func (s *LoggingTestSuite) TestLevelFiltering() {
	SetLevel(LevelWarn)
	s.log.Infof("hidden %d", 1)
	s.Empty(s.out.String())

	s.log.Warnf("shown %d", 2)
	line := s.out.String()
	s.True(strings.HasPrefix(line, "Warn "))
	s.Contains(line, "logging_test.go:")
	s.Contains(line, " test shown 2")
	s.True(strings.HasSuffix(line, "\n"))
}

func (s *LoggingTestSuite) TestNoPrint() {
	SetLevel(LevelNoPrint)
	s.log.Errorf("nothing")
	s.Empty(s.out.String())
}

func (s *LoggingTestSuite) TestSetLevelIgnoresOutOfRange() {
	SetLevel(LevelDebug)
	SetLevel(Level(42))
	s.Equal(LevelDebug, CurrentLevel())
}

func (s *LoggingTestSuite) TestParseLevel() {
	l, err := ParseLevel("debug")
	s.Require().NoError(err)
	s.Equal(LevelDebug, l)

	l, err = ParseLevel("4")
	s.Require().NoError(err)
	s.Equal(LevelError, l)

	l, err = ParseLevel("none")
	s.Require().NoError(err)
	s.Equal(LevelNoPrint, l)

	_, err = ParseLevel("9")
	s.Error(err)
	_, err = ParseLevel("loud")
	s.Error(err)
}

func (s *LoggingTestSuite) TestPrintfIgnoresLevel() {
	SetLevel(LevelNoPrint)
	Printf(WriterSink(s.out), "hello %s\n", "sim")
	s.Equal("hello sim\n", s.out.String())
}

func (s *LoggingTestSuite) TestNamedSharesSink() {
	SetLevel(LevelInfo)
	s.log.Named("other").Infof("x")
	s.Contains(s.out.String(), " other x")
}

func TestLoggingTestSuite(t *testing.T) {
	suite.Run(t, new(LoggingTestSuite))
}
