package ofx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixEncoding(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"clean text untouched", "PIX RECEBIDO FULANO", "PIX RECEBIDO FULANO"},
		{"corrupted banking term", "TRANSFERÃŠNCIA RECEBIDA", "TRANSFERÊNCIA RECEBIDA"},
		{"corrupted deposit", "DEPÃ“SITO EM CONTA", "DEPÓSITO EM CONTA"},
		{"corrupted application", "APLICAÃ‡ÃƒO AUTOMATICA", "APLICAÇÃO AUTOMATICA"},
		{"lowercase mojibake", "cobranÃ§a de tÃ­tulo", "cobrança de título"},
		{"uppercase mojibake", "DÃ‰BITO AUTOMÃTICO", "DÉBITO AUTOMÁTICO"},
		{"tilde", "OperaÃ§Ã£o de cÃ¢mbio", "Operação de câmbio"},
		{"invisible control byte", "AUTOMÃTICO", "AUTOMÁTICO"},
		{"bare marker falls back to A acute", "PAGTO TÃXI", "PAGTO TÁXI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FixEncoding(tt.input))
		})
	}
}

func TestFixEncodingTermsBeforeSingles(t *testing.T) {
	// The long banking-term fixes must win over the per-character ones,
	// otherwise SÃQUE would turn into SÁQUE instead of SAQUE.
	assert.Equal(t, "SAQUE 24H", FixEncoding("SÃQUE 24H"))
}
