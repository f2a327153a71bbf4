// Package finding provides the core domain types for sigil scan results:
// phases, severities, findings, verdicts, and the scoring engine that
// turns a set of findings into a numeric risk score and a verdict.
//
// # Phases
//
// Every finding belongs to exactly one of six scan phases, each targeting
// a different threat category in third-party code:
//   - Install hooks (setup.py cmdclass, npm lifecycle scripts, ...)
//   - Dangerous code patterns (eval/exec, pickle, child_process, ...)
//   - Network and exfiltration activity
//   - Credential access and hardcoded secrets
//   - Obfuscation techniques
//   - Provenance anomalies (suspicious filenames, missing git history, ...)
//
// # Severity and Scoring
//
// Severity is ordered Low < Medium < High < Critical with base scores
// 1/2/3/5. Each finding carries an integer weight fixed at creation time
// (the phase multiplier, or a per-finding value for provenance findings).
// A finding contributes severity base x weight to the aggregate score.
//
// # Verdicts
//
// The verdict is derived deterministically from the findings and score:
//
//	Clean      no findings
//	LowRisk    score 1-9
//	MediumRisk score 10-24
//	HighRisk   score 25-49
//	Critical   score >= 50, or any Critical install-hook finding
//
// Score and DetermineVerdict are pure functions; identical inputs always
// produce identical outputs.
package finding
