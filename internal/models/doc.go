// Package models defines domain entities and persistence interfaces for the playdeck dashboard.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs built from Spotify responses
//   - [Track] : Song metadata with joined artist names and the first album image
//   - [Playlist] : Playlist summary with its track count
//   - [PlaylistExport] : Playlist with complete track listing
//   - [CurrentlyPlaying] : Transient playback snapshot
//
// 2. Persistent Entities: Database-backed records
//   - [Profile] : Named keyword set used to group playlists
//   - [UIState] : Dashboard selection remembered between sessions
//   - [Channel] : Saved Spotify or YouTube channel link, searchable by name
//
// [Profile] and [Channel] implement the Model interface providing ID, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
