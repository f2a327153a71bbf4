package signature

// Tunable detection constants. These are policy values, not detector
// logic: adjusting them must not require touching the rule tables.
const (
	// HexEscapeRunLength is the minimum number of consecutive \xNN
	// escapes treated as an obfuscated hex run.
	HexEscapeRunLength = 8

	// UnicodeEscapeRunLength is the minimum number of consecutive
	// \uNNNN escapes treated as an obfuscated unicode run.
	UnicodeEscapeRunLength = 6

	// HexByteRunLength is the minimum number of consecutive 0xNN byte
	// literals treated as an obfuscated byte array.
	HexByteRunLength = 8
)
