// Package sigil provides a static security auditor for third-party
// code artifacts. It scans a directory or file tree with signature
// based detectors, aggregates findings into a risk score and verdict,
// and manages a quarantine workflow for artifacts awaiting review.
//
// # Core Concepts
//
// The auditor is organized around several key concepts:
//
//   - Phases: six detection passes (install hooks, code patterns,
//     network exfiltration, credentials, obfuscation, provenance), each
//     with a weight reflecting how strongly its findings indicate a
//     supply-chain attack
//   - Findings: individual rule matches with a severity, location, and
//     snippet
//   - Verdicts: the scan's overall judgement, from clean through
//     critical, derived from the aggregate score
//   - Quarantine: a ledger of staged artifacts moving through a
//     pending/approved/rejected lifecycle
//   - Signatures: the built-in rule table, optionally merged with
//     cloud-distributed signature updates
//
// # Getting Started
//
// Create an Auditor and scan a directory:
//
//	auditor, err := sigil.New(
//	    sigil.WithHome("/var/lib/sigil"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := auditor.Scan(ctx, "./vendor/suspect-pkg", scanner.Filter{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s (score %d)\n", result.Verdict.DisplayName(), result.Score)
//
// Results are serializable as JSON or SARIF 2.1.0, cacheable by content
// fingerprint, and comparable across versions of the same artifact with
// the diff package.
package sigil
