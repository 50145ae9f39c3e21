// Copyright 2025 Poiesic Systems
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


package canonical

import (
	"errors"
	"fmt"
)

var (
	// ErrParse indicates a field value could not be interpreted. The field is
	// left empty and normalization continues.
	ErrParse = errors.New("parse error")

	// ErrInvalidRecord indicates a raw record that is not valid JSON input.
	ErrInvalidRecord = errors.New("invalid raw record")
)

// ParseError reports a single field that failed to parse.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap exposes the underlying cause; it always matches ErrParse.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(field, value string, err error) *ParseError {
	if !errors.Is(err, ErrParse) {
		err = fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &ParseError{Field: field, Value: value, Err: err}
}
