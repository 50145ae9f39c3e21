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


// Package storage provides the storage abstraction layer for hackfind.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. The BadgerDB implementation lives in storage/badger.
//
// # Architecture
//
//   - EventRepository: canonical hackathon events, query and retention
//   - MetadataRepository: one freshness row per source
//   - VectorIndex: event embeddings and nearest-neighbour lookup
//
// EventQuery and its helpers (Filter, SortEvents, Paginate) are pure functions
// over already-loaded events so every backend applies the same query semantics.
//
// # Usage
//
//	repos, err := badger.OpenRepositories("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//
// # Errors
//
// Engine failures are reported as ErrStoreUnavailable wrapping the underlying
// error; match them with errors.Is.
package storage
