/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	outputStdout  = "stdout"
	outputStderr  = "stderr"
	outputConsole = "console"
)

type Config struct {
	Level      string `json:"level"`
	Debug      bool   `json:"debug"`
	Output     string `json:"output"`
	TimeFormat string `json:"time_format"`
}

// instance implements Logger without global state.
type instance struct {
	logger zerolog.Logger
}

// New creates a logger from the given configuration. A nil config uses DefaultConfig.
func New(config *Config) (Logger, error) {
	zlog, err := build(config)
	if err != nil {
		return nil, err
	}

	return &instance{logger: zlog}, nil
}

// NewComponentLogger creates a logger that stamps every event with a component field.
func NewComponentLogger(config *Config, component string) (Logger, error) {
	zlog, err := build(config)
	if err != nil {
		return nil, err
	}

	return &instance{logger: zlog.With().Str("component", component).Logger()}, nil
}

// Wrap adapts a derived zerolog.Logger, such as the result of With().Str(...).Logger().
func Wrap(zlog zerolog.Logger) Logger {
	return &instance{logger: zlog}
}

func build(config *Config) (zerolog.Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return zerolog.Logger{}, err
		}
	}

	timeFormat := time.RFC3339
	if config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	zerolog.TimeFieldFormat = timeFormat

	var output io.Writer = os.Stdout

	switch config.Output {
	case outputStderr:
		output = os.Stderr
	case outputConsole:
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func (l *instance) Trace() *zerolog.Event {
	return l.logger.Trace()
}

func (l *instance) Debug() *zerolog.Event {
	return l.logger.Debug()
}

func (l *instance) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *instance) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *instance) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *instance) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

func (l *instance) Panic() *zerolog.Event {
	return l.logger.Panic()
}

func (l *instance) With() zerolog.Context {
	return l.logger.With()
}

func (l *instance) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *instance) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}

	return ctx.Logger()
}

func (l *instance) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *instance) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}
