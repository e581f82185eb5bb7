// Package learning provides the on-device models: a fan-speed regressor
// over (temperature, humidity, LED, motion) and an intent classifier over
// utterance words.
//
// Both models start from a small built-in seed set and learn online from
// operator and voice decisions. Samples are persisted to SQLite and
// replayed on start.
package learning
