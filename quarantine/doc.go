// Package quarantine tracks third-party artifacts that were pulled into
// an isolated staging area and are awaiting a review decision.
//
// Every artifact gets a ledger entry that moves through a small state
// machine: Pending is the only initial state, Approved and Rejected are
// terminal. Rejecting an entry also deletes its staged files. The
// ledger is a single JSON array rewritten atomically on every mutation;
// a Ledger serializes its own writers, but two processes sharing one
// ledger directory are outside its guarantees.
package quarantine
