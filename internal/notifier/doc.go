// Package notifier delivers rendered guild change messages to a chat channel.
//
// All messages of a run are sent together as a single newline-joined post to a
// Discord-style webhook. A dry-run notifier prints the payload instead of sending it.
package notifier
