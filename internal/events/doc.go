// Package events is the in-process broadcast core: a registry of live
// stream subscribers and a hub that fans envelopes out to them.
package events
