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

import "errors"

// Domain validation errors
var (
	// ErrInvalidEvent indicates an Event failed validation.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrMissingTitle indicates the Title field is empty after trimming.
	ErrMissingTitle = errors.New("title cannot be empty")

	// ErrMissingURL indicates the URL field is empty after trimming.
	ErrMissingURL = errors.New("url cannot be empty")

	// ErrMissingSource indicates the Source field is empty.
	ErrMissingSource = errors.New("source cannot be empty")

	// ErrNegativePrize indicates a negative numeric prize pool.
	ErrNegativePrize = errors.New("prize pool cannot be negative")

	// ErrInvalidMode indicates a Mode outside the known set.
	ErrInvalidMode = errors.New("invalid mode")
)
