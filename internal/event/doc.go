// Package event provides the roster data model and the guild change reconciler.
//
// A Snapshot is what the roster page shows in a single run, a State is the
// last-known guild of every player ever observed. Reconcile compares the two and
// returns the Joined/Left/Transferred changes for the players currently visible,
// together with the merged State to persist. Players missing from a Snapshot are
// never reported and keep their stored guild, since the page only lists a subset
// of all players.
package event
