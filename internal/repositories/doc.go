// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for creation ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [ProfileRepository] : Music profiles with JSON-encoded keywords and change subscriptions
//   - [UIStateRepository] : Per-user dashboard selection (upsert, no soft delete)
//   - [ChannelRepository] : Saved channel links with case-insensitive name search
//
// Profiles are read on demand (pull). [ProfileRepository.Subscribe] adds an optional push channel
// fed after every successful write; slow subscribers miss events rather than blocking writers.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
