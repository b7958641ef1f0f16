// Package tracking owns the telemetry data model for match replay.
//
// Responsibilities: per-entity position samples, ordered de-duplicated
// tracks, team rosters and the immutable window snapshot that a playback
// session is built from.
// Key types: Sample, Track, Roster, Window.
//
// Dependency rule: tracking depends on nothing else in this module.
// Resampling lives in tracking/resample, keyframe lookup in tracking/lookup.
// No SQL/database code is allowed in this package.
package tracking
