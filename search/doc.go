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

// Package search ranks hackathon events against a free-text query.
//
// The Ranker runs two legs concurrently:
//   - Semantic search over the vector index using the query embedding
//   - Lexical substring search over the event store
//
// Each semantic hit scores its cosine similarity. A lexical hit that the
// semantic leg also found gets an agreement boost, and a lexical-only hit
// gets a fixed baseline score. Results are resolved against the store so
// deleted events never surface, then sorted by fused score.
package search
