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


package core

import (
	"fmt"
	"strings"
)

// ValidateEvent validates an Event according to domain rules.
//
// Validation rules:
//   - Source, Title and URL must not be empty after trimming
//   - Mode must be one of the known modes
//   - PrizePoolNumeric, when set, must not be negative
//
// NOT validated:
//   - Date order (start after end is kept as scraped)
//   - Status (derived on every read)
//   - ScrapedAt and LastUpdated (managed by the store)
func ValidateEvent(event *Event) error {
	if event == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalidEvent)
	}

	if strings.TrimSpace(event.Source) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrMissingSource)
	}

	if strings.TrimSpace(event.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrMissingTitle)
	}

	if strings.TrimSpace(event.URL) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrMissingURL)
	}

	if err := ValidateMode(event.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	if event.PrizePoolNumeric != nil && *event.PrizePoolNumeric < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrNegativePrize)
	}

	return nil
}

// ValidateMode validates that a Mode has a known value.
func ValidateMode(mode Mode) error {
	switch mode {
	case ModeOnline, ModeInPerson, ModeHybrid, ModeUnknown:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidMode, mode)
}
