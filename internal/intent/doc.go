// Package intent turns speech and operator input into device actions.
//
// An Interpreter maps raw transcripts to intent labels using a phrase
// table, fuzzy matching and keyword detection. A Resolver applies an
// intent against the device store: it owns the voice session (wake and
// sleep), gates voice commands while inactive, enqueues device commands,
// records actions and feeds learning samples.
package intent
