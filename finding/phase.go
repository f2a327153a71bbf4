package finding

import (
	"fmt"
	"strings"
)

// Phase identifies the threat category a detector targets.
type Phase string

const (
	// PhaseInstallHooks covers code that executes at install time.
	// Examples: setup.py cmdclass overrides, npm lifecycle scripts
	PhaseInstallHooks Phase = "install_hooks"

	// PhaseCodePatterns covers dangerous dynamic-execution primitives.
	// Examples: eval/exec, pickle deserialization, child_process spawning
	PhaseCodePatterns Phase = "code_patterns"

	// PhaseNetworkExfil covers outbound network and exfiltration activity.
	// Examples: webhook URLs, raw sockets, tunneling-service domains
	PhaseNetworkExfil Phase = "network_exfil"

	// PhaseCredentials covers credential access and hardcoded secrets.
	// Examples: sensitive env reads, embedded private keys, token literals
	PhaseCredentials Phase = "credentials"

	// PhaseObfuscation covers payload-hiding techniques.
	// Examples: base64 decoding, charcode construction, long hex runs
	PhaseObfuscation Phase = "obfuscation"

	// PhaseProvenance covers directory-level trust anomalies.
	// Examples: suspicious filenames, unexpected binaries, missing .git
	PhaseProvenance Phase = "provenance"
)

// phaseWeights maps each phase to its score multiplier. Provenance
// findings carry per-finding weights (1-3), so its entry here is only
// the default applied to externally supplied signatures.
var phaseWeights = map[Phase]int{
	PhaseInstallHooks: 10,
	PhaseCodePatterns: 5,
	PhaseNetworkExfil: 3,
	PhaseCredentials:  2,
	PhaseObfuscation:  5,
	PhaseProvenance:   1,
}

// IsValid returns true if the phase is one of the six known phases.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseInstallHooks, PhaseCodePatterns, PhaseNetworkExfil,
		PhaseCredentials, PhaseObfuscation, PhaseProvenance:
		return true
	default:
		return false
	}
}

// Weight returns the phase's score multiplier.
// Returns 0 for invalid phases.
func (p Phase) Weight() int {
	return phaseWeights[p]
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// DisplayName returns a human-readable name for grouping output.
func (p Phase) DisplayName() string {
	switch p {
	case PhaseInstallHooks:
		return "Install Hooks"
	case PhaseCodePatterns:
		return "Code Patterns"
	case PhaseNetworkExfil:
		return "Network/Exfil"
	case PhaseCredentials:
		return "Credentials"
	case PhaseObfuscation:
		return "Obfuscation"
	case PhaseProvenance:
		return "Provenance"
	default:
		return string(p)
	}
}

// ParsePhase parses a phase name. Names are case-insensitive and accept
// hyphenated, underscored, and compact spellings ("install-hooks",
// "install_hooks", "installhooks"). Returns an error for unknown names.
func ParsePhase(s string) (Phase, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "install_hooks", "installhooks":
		return PhaseInstallHooks, nil
	case "code_patterns", "codepatterns":
		return PhaseCodePatterns, nil
	case "network_exfil", "networkexfil":
		return PhaseNetworkExfil, nil
	case "credentials":
		return PhaseCredentials, nil
	case "obfuscation":
		return PhaseObfuscation, nil
	case "provenance":
		return PhaseProvenance, nil
	default:
		return "", fmt.Errorf("invalid phase: %s", s)
	}
}

// AllPhases returns all phases in display order.
func AllPhases() []Phase {
	return []Phase{
		PhaseInstallHooks,
		PhaseCodePatterns,
		PhaseNetworkExfil,
		PhaseCredentials,
		PhaseObfuscation,
		PhaseProvenance,
	}
}
