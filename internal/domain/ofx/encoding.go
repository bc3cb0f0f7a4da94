package ofx

import "strings"

// encodingFix is one exact substring replacement applied to statement text.
// Fixes run in declaration order; multi-character sequences must come before
// the single-character ones they contain, or the shorter fix shadows them.
type encodingFix struct {
	old string
	new string
}

// encodingFixes repairs mojibake produced by UTF-8 statements decoded as
// Latin-1 somewhere upstream, plus corrupted banking terms seen in the wild.
var encodingFixes = []encodingFix{
	// Corrupted banking terms.
	{"TRANSFERÃŠNCIA", "TRANSFERÊNCIA"},
	{"PREVIDÃŠNCIA", "PREVIDÊNCIA"},
	{"CONVÃŠNIO", "CONVÊNIO"},
	{"EMPRÃ‰STIMO", "EMPRÉSTIMO"},
	{"APLICAÃ‡ÃƒO", "APLICAÇÃO"},
	{"DEPÃ“SITO", "DEPÓSITO"},
	{"SÃQUE", "SAQUE"},
	{"DÃ‰B", "DÉB"},
	{"CRÃ‰D", "CRÉD"},

	// Two-byte accented lowercase.
	{"Ã¡", "á"},
	{"Ã©", "é"},
	{"Ã­", "í"},
	{"Ã³", "ó"},
	{"Ãº", "ú"},
	{"Ã£", "ã"},
	{"Ãµ", "õ"},
	{"Ã§", "ç"},
	{"Ãª", "ê"},
	{"Ã´", "ô"},
	{"Ã ", "à"},

	// Two-byte accented uppercase.
	{"Ã‰", "É"},
	{"Ã“", "Ó"},
	{"Ãš", "Ú"},
	{"Ã‡", "Ç"},
	{"Ã‚", "Â"},
	{"Ã", "Á"},
	{"Ã", "Í"},

	// Bare marker last: anything left is almost always a mangled Á.
	{"Ã", "Á"},
}

// FixEncoding applies the known mojibake repairs to a statement text field.
// It is a pure, context-free transformation and safe to call from any worker.
func FixEncoding(text string) string {
	if text == "" {
		return text
	}
	for _, fix := range encodingFixes {
		text = strings.ReplaceAll(text, fix.old, fix.new)
	}
	return text
}
