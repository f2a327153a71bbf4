package signature

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/NOMARJ/sigil/finding"
)

// Filename predicates for install-hook rules.

func isSetupFile(name string) bool {
	return name == "setup.py" || name == "setup.cfg"
}

func isPackageJSON(name string) bool {
	return name == "package.json"
}

func isMakefile(name string) bool {
	return name == "Makefile" || name == "makefile" || strings.HasSuffix(name, ".mk")
}

func isPyprojectToml(name string) bool {
	return name == "pyproject.toml"
}

// installHookRules detect code that executes at install time: setup.py
// cmdclass overrides, npm lifecycle scripts, Makefile install targets,
// pyproject build hooks, and MCP configuration artifacts. The two MCP
// rules match on content regardless of filename.
func installHookRules() []Rule {
	w := finding.PhaseInstallHooks.Weight()
	return []Rule{
		{
			ID:          "INSTALL-001",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityCritical,
			Pattern:     regexp.MustCompile(`cmdclass`),
			Description: "setup.py cmdclass override (code runs at install time)",
			Weight:      w,
			Files:       isSetupFile,
		},
		{
			ID:          "INSTALL-002",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityCritical,
			Pattern:     regexp.MustCompile(`(?i)(pre_install|post_install|install_scripts)`),
			Description: "setup.py custom install hook",
			Weight:      w,
			Files:       isSetupFile,
		},
		{
			ID:          "INSTALL-003",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityCritical,
			Pattern:     regexp.MustCompile(`"(preinstall|postinstall|preuninstall|postuninstall)"`),
			Description: "npm lifecycle script (runs automatically on install)",
			Weight:      w,
			Files:       isPackageJSON,
		},
		{
			ID:          "INSTALL-004",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityHigh,
			Pattern:     regexp.MustCompile(`"(prepare|prepublish|prepublishOnly)"`),
			Description: "npm publish lifecycle script",
			Weight:      w,
			Files:       isPackageJSON,
		},
		{
			ID:          "INSTALL-005",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityMedium,
			Pattern:     regexp.MustCompile(`^install\s*:`),
			Description: "Makefile install target",
			Weight:      w,
			Files:       isMakefile,
		},
		{
			ID:          "INSTALL-006",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityLow,
			Pattern:     regexp.MustCompile(`^\.(PHONY|ONESHELL).*install`),
			Description: "Makefile install phony target",
			Weight:      w,
			Files:       isMakefile,
		},
		{
			ID:          "INSTALL-007",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityCritical,
			Pattern:     regexp.MustCompile(`\[tool\.setuptools\.cmdclass\]`),
			Description: "pyproject.toml cmdclass override",
			Weight:      w,
			Files:       isPyprojectToml,
		},
		{
			ID:          "INSTALL-008",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityLow,
			Pattern:     regexp.MustCompile(`build-backend\s*=`),
			Description: "Custom build backend declared",
			Weight:      w,
			Files:       isPyprojectToml,
		},
		{
			ID:          "INSTALL-MCP-001",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityMedium,
			Pattern:     regexp.MustCompile(`claude_desktop_config|mcp_config\.json|\.mcp\.json`),
			Description: "MCP configuration file detected",
			Weight:      w,
		},
		{
			ID:          "INSTALL-MCP-002",
			Phase:       finding.PhaseInstallHooks,
			Severity:    finding.SeverityLow,
			Pattern:     regexp.MustCompile(`mcpServers|mcp_servers`),
			Description: "MCP server registry entry",
			Weight:      w,
		},
	}
}

// codePatternRules detect dangerous dynamic-execution primitives:
// eval/exec, unsafe deserialization, child-process spawning, dynamic
// imports, and agent-tool permission bypasses.
func codePatternRules() []Rule {
	w := finding.PhaseCodePatterns.Weight()
	rules := []struct {
		id       string
		severity finding.Severity
		pattern  string
		desc     string
	}{
		{"CODE-001", finding.SeverityHigh, `\beval\s*\(`, "eval() call - arbitrary code execution"},
		{"CODE-002", finding.SeverityHigh, `\bexec\s*\(`, "exec() call - arbitrary code execution"},
		{"CODE-003", finding.SeverityMedium, `\bcompile\s*\(`, "compile() call - dynamic code compilation"},
		{"CODE-004", finding.SeverityCritical, `pickle\.(loads?|Unpickler)`, "pickle deserialization - arbitrary code execution"},
		{"CODE-005", finding.SeverityHigh, `marshal\.(loads?)`, "marshal deserialization - code execution risk"},
		{"CODE-006", finding.SeverityHigh, `yaml\.(unsafe_)?load\s*\(`, "YAML unsafe load - potential code execution"},
		{"CODE-007", finding.SeverityHigh, `\bchild_process\b`, "child_process usage - command execution"},
		{"CODE-008", finding.SeverityHigh, `\bFunction\s*\(`, "Function constructor - dynamic code execution"},
		{"CODE-009", finding.SeverityHigh, `new\s+Function\s*\(`, "new Function() - dynamic code execution"},
		{"CODE-010", finding.SeverityHigh, `__import__\s*\(`, "__import__() - dynamic import"},
		{"CODE-011", finding.SeverityMedium, `importlib\.import_module\s*\(`, "importlib.import_module - dynamic import"},
		{"CODE-012", finding.SeverityMedium, `require\s*\(\s*[^'"]`, "dynamic require() - variable module loading"},
		{"CODE-013", finding.SeverityMedium, `subprocess\.(call|run|Popen|check_output)\s*\(`, "subprocess invocation - command execution"},
		{"CODE-014", finding.SeverityHigh, `os\.(system|popen|exec[lv]?[pe]?)\s*\(`, "os command execution"},
		{"CODE-015", finding.SeverityHigh, `shell\s*=\s*True`, "shell=True - shell injection risk"},
		{"CODE-MCP-001", finding.SeverityMedium, `mcp[_-]?server|MCPServer|create_mcp_server`, "MCP server creation detected"},
		{"CODE-MCP-002", finding.SeverityMedium, `tool_call|execute_tool|run_tool`, "MCP tool execution pattern"},
		{"CODE-MCP-003", finding.SeverityHigh, `allow_dangerous|skip_confirmation|auto_approve.*true`, "MCP dangerous permission bypass"},
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, Rule{
			ID:          r.id,
			Phase:       finding.PhaseCodePatterns,
			Severity:    r.severity,
			Pattern:     regexp.MustCompile(r.pattern),
			Description: r.desc,
			Weight:      w,
		})
	}
	return out
}

// networkExfilRules detect outbound network activity: HTTP requests,
// webhook callbacks, tunneling services, raw sockets, DNS resolution,
// and encode-before-send exfiltration composites.
func networkExfilRules() []Rule {
	w := finding.PhaseNetworkExfil.Weight()
	rules := []struct {
		id       string
		severity finding.Severity
		pattern  string
		desc     string
	}{
		{"NET-001", finding.SeverityMedium, `requests\.(get|post|put|delete|patch|head)\s*\(`, "HTTP request via requests library"},
		{"NET-002", finding.SeverityMedium, `urllib\.(request\.)?urlopen\s*\(`, "HTTP request via urllib"},
		{"NET-003", finding.SeverityMedium, `http\.client\.HTTP`, "HTTP client connection"},
		{"NET-004", finding.SeverityMedium, `fetch\s*\(\s*['"]https?://`, "fetch() to external URL"},
		{"NET-005", finding.SeverityMedium, `axios\.(get|post|put|delete|patch)\s*\(`, "HTTP request via axios"},
		{"NET-006", finding.SeverityHigh, `(?i)(webhook|callback|notify).*https?://`, "Webhook / callback URL detected"},
		{"NET-007", finding.SeverityCritical, `https?://[^\s]*\.(ngrok|pipedream|requestbin|hookbin)`, "Known exfiltration / tunneling service URL"},
		{"NET-008", finding.SeverityHigh, `socket\.socket\s*\(`, "Raw socket creation"},
		{"NET-009", finding.SeverityMedium, `\.connect\s*\(\s*\(?\s*['"]`, "Socket connect to address"},
		{"NET-010", finding.SeverityMedium, `dns\.(resolver|query)|getaddrinfo`, "DNS resolution - possible DNS exfiltration"},
		{"NET-011", finding.SeverityHigh, `(base64|b64)(encode|\.b64encode)\s*\(.*\.(read|getenv|environ)`, "Data encoding before potential exfiltration"},
		{"NET-012", finding.SeverityMedium, `(curl|wget)\s+.*(https?://)`, "curl/wget command in code"},
		{"NET-MCP-001", finding.SeverityLow, `stdio_transport|sse_transport|StreamableHTTPTransport`, "MCP transport configuration"},
		{"NET-MCP-002", finding.SeverityHigh, `mcp.*proxy|proxy.*mcp`, "MCP proxy configuration - potential MITM"},
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, Rule{
			ID:          r.id,
			Phase:       finding.PhaseNetworkExfil,
			Severity:    r.severity,
			Pattern:     regexp.MustCompile(r.pattern),
			Description: r.desc,
			Weight:      w,
		})
	}
	return out
}

// credentialRules detect credential access: sensitive env reads, cloud
// credential files, token shapes, embedded keys, and hardcoded secrets.
func credentialRules() []Rule {
	w := finding.PhaseCredentials.Weight()
	rules := []struct {
		id       string
		severity finding.Severity
		pattern  string
		desc     string
	}{
		{"CRED-001", finding.SeverityHigh, `os\.(environ|getenv)\s*[\[\(]\s*['"](AWS_|SECRET_|API_KEY|TOKEN|PASSWORD|DATABASE_URL|PRIVATE)`, "Environment variable access for sensitive key"},
		{"CRED-002", finding.SeverityHigh, `process\.env\.(AWS_|SECRET_|API_KEY|TOKEN|PASSWORD|DATABASE_URL|PRIVATE)`, "Node process.env access for sensitive key"},
		{"CRED-003", finding.SeverityCritical, `\.aws/(credentials|config)`, "AWS credentials file access"},
		{"CRED-004", finding.SeverityCritical, `AKIA[0-9A-Z]{16}`, "Hardcoded AWS access key ID"},
		{"CRED-005", finding.SeverityCritical, `\.ssh/(id_rsa|id_ed25519|id_ecdsa|authorized_keys)`, "SSH key file access"},
		{"CRED-006", finding.SeverityCritical, `-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`, "Embedded private key"},
		{"CRED-007", finding.SeverityHigh, `(?i)(api[_-]?key|api[_-]?secret|access[_-]?token)\s*[:=]\s*['"][a-zA-Z0-9]{16,}`, "Hardcoded API key or secret"},
		{"CRED-008", finding.SeverityHigh, `(?i)(password|passwd|pwd)\s*[:=]\s*['"][^'"]{8,}`, "Hardcoded password"},
		{"CRED-009", finding.SeverityCritical, `"type"\s*:\s*"service_account"`, "GCP service account JSON key"},
		{"CRED-010", finding.SeverityCritical, `gh[pousr]_[A-Za-z0-9_]{36,}`, "GitHub personal access token"},
		{"CRED-011", finding.SeverityHigh, `(?i)(bearer|authorization)\s*[:=]\s*['"][a-zA-Z0-9._\-]{20,}`, "Authorization / bearer token"},
		{"CRED-MCP-001", finding.SeverityMedium, `MCP_API_KEY|MCP_SECRET|MCP_TOKEN|mcp_auth`, "MCP credential reference"},
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, Rule{
			ID:          r.id,
			Phase:       finding.PhaseCredentials,
			Severity:    r.severity,
			Pattern:     regexp.MustCompile(r.pattern),
			Description: r.desc,
			Weight:      w,
		})
	}
	return out
}

// obfuscationRules detect payload-hiding techniques: base64 decoding,
// charcode construction, long escape runs, codec round-trips, ciphers,
// and inline decompression.
func obfuscationRules() []Rule {
	w := finding.PhaseObfuscation.Weight()
	hexRun := fmt.Sprintf(`\\x[0-9a-fA-F]{2}(\\x[0-9a-fA-F]{2}){%d,}`, HexEscapeRunLength-1)
	byteRun := fmt.Sprintf(`0x[0-9a-fA-F]{2}\s*,\s*(0x[0-9a-fA-F]{2}\s*,?\s*){%d,}`, HexByteRunLength-1)
	unicodeRun := fmt.Sprintf(`\\u[0-9a-fA-F]{4}(\\u[0-9a-fA-F]{4}){%d,}`, UnicodeEscapeRunLength-1)

	rules := []struct {
		id       string
		severity finding.Severity
		pattern  string
		desc     string
	}{
		{"OBFUSC-001", finding.SeverityHigh, `base64\.(b64)?decode\s*\(`, "Base64 decoding (potential obfuscated payload)"},
		{"OBFUSC-002", finding.SeverityHigh, `atob\s*\(`, "JavaScript atob() - base64 decoding"},
		{"OBFUSC-003", finding.SeverityHigh, `Buffer\.from\s*\([^)]*,\s*['"]base64['"]`, "Node Buffer.from base64 decoding"},
		{"OBFUSC-004", finding.SeverityHigh, `String\.fromCharCode\s*\(`, "String.fromCharCode - character code obfuscation"},
		{"OBFUSC-005", finding.SeverityMedium, `chr\s*\(\s*\d+\s*\)`, "chr() - character code construction"},
		{"OBFUSC-006", finding.SeverityHigh, hexRun, "Long hex-encoded string (likely obfuscated)"},
		{"OBFUSC-007", finding.SeverityHigh, byteRun, "Hex byte array (likely obfuscated payload)"},
		{"OBFUSC-008", finding.SeverityMedium, unicodeRun, "Long unicode escape sequence"},
		{"OBFUSC-009", finding.SeverityMedium, `codecs\.(decode|encode)\s*\(`, "codecs decode/encode - potential obfuscation"},
		{"OBFUSC-010", finding.SeverityMedium, `(?i)(rot13|rot_13|caesar|cipher)\s*[\(\.]`, "ROT13 / cipher usage - text obfuscation"},
		{"OBFUSC-011", finding.SeverityMedium, `(zlib|gzip)\.(decompress|inflate)\s*\(`, "Inline decompression - potential obfuscated payload"},
		{"OBFUSC-MCP-001", finding.SeverityHigh, `tool_description.*base64|encoded_tool|obfuscated_prompt`, "Obfuscated MCP tool definition"},
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, Rule{
			ID:          r.id,
			Phase:       finding.PhaseObfuscation,
			Severity:    r.severity,
			Pattern:     regexp.MustCompile(r.pattern),
			Description: r.desc,
			Weight:      w,
		})
	}
	return out
}

// Builtin returns all built-in line-oriented rules in phase order.
// Provenance has no entries here: it reasons about directory metadata
// rather than file content and lives in the scanner package.
func Builtin() []Rule {
	var rules []Rule
	rules = append(rules, installHookRules()...)
	rules = append(rules, codePatternRules()...)
	rules = append(rules, networkExfilRules()...)
	rules = append(rules, credentialRules()...)
	rules = append(rules, obfuscationRules()...)
	return rules
}
