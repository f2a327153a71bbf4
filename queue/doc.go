// Package queue provides the Redis-backed scan job queue used when
// sigil runs as a shared auditing service rather than a one-shot CLI.
//
// Jobs are pushed onto one of three priority lanes and popped by scan
// workers in lane order, so an urgent review of a suspect artifact is
// never stuck behind a bulk re-scan backlog. Scan outcomes travel back
// to the submitter over a job-scoped pub/sub channel.
//
// Key layout:
//
//	sigil:jobs:high        high priority lane (LPUSH / BRPOP)
//	sigil:jobs:normal      normal priority lane
//	sigil:jobs:low         low priority lane
//	sigil:outcomes:<job>   pub/sub channel carrying the job's outcome
//	sigil:worker:<id>      worker heartbeat key with TTL
//	sigil:workers          active worker counter
package queue
