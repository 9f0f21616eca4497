// Package roster models the tracked group: one Member per current group
// member, each carrying its own activity watermark and failure latch.
//
// A Roster is rebuilt from the authoritative member list on every pass by
// Reconcile. Members that stay in the group keep their watermark; members that
// leave are dropped; new members start with no watermark, so their whole
// recent-activity window is emitted on first poll.
package roster
