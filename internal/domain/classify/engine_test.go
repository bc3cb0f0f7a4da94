package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestCategory(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name        string
		description string
		wantValue   string
		wantConf    int
	}{
		{"VT token", "Pagamento VT da Semana", "Folha", 100},
		{"VR token", "PAGTO VR 05/2024", "Folha", 100},
		{"folha keyword", "FOLHA DE PAGAMENTO REF 06/2024", "Folha", 100},
		{"vale transporte", "RECARGA VALE-TRANSPORTE COLABORADORES", "Folha", 95},
		{"beneficio", "CREDITO BENEFICIO ALIMENTACAO", "Folha", 90},
		{"premiacao", "PREMIACAO META TRIMESTRE", "Folha", 100},
		{"leads", "COMISSAO LEADS JULHO", "Folha", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := engine.SuggestCategory(tt.description)
			require.NotNil(t, match)
			assert.Equal(t, tt.wantValue, match.Value)
			assert.Equal(t, tt.wantConf, match.Confidence)
			assert.NotEmpty(t, match.Reason)
		})
	}
}

func TestSuggestCategoryNoMatch(t *testing.T) {
	engine := NewEngine()

	assert.Nil(t, engine.SuggestCategory("COMPRA SUPERMERCADO EXTRA"))
	assert.Nil(t, engine.SuggestCategory(""))
	// VT embedded inside a word must not trigger the token rule.
	assert.Nil(t, engine.SuggestCategory("PAGAMENTO CONVTE"))
}

func TestSuggestPaymentMethod(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name        string
		description string
		wantValue   string
		wantConf    int
	}{
		{"pix", "PIX RECEBIDO JOAO DA SILVA", "PIX", 100},
		{"bare pix", "PIX", "PIX", 100},
		{"boleto", "PAGAMENTO BOLETO BANCARIO", "Boleto Bancário", 100},
		{"cartao credito", "COMPRA CARTAO DE CREDITO LOJA X", "Cartão de Crédito", 100},
		{"cartao debito", "COMPRA CARTAO DEBITO PADARIA", "Cartão de Débito", 100},
		{"pos", "TERMINAL POS 443322", "Cartão de Débito", 85},
		{"cheque", "CHEQUE COMPENSADO 000123", "Cheque", 100},
		{"debito automatico", "DEBITO AUTOMATICO ENERGIA", "Débito Automático", 100},
		{"dinheiro", "DEPOSITO DINHEIRO FISICO", "Dinheiro", 100},
		{"saque", "SAQUE ATM 24H", "Dinheiro", 95},
		{"ted", "TED RECEBIDA EMPRESA Y", "Transferência Bancária", 100},
		{"deposito", "DEPOSITO EM CONTA", "Transferência Bancária", 90},
		{"compra online", "COMPRA ONLINE MARKETPLACE", "Cartão de Crédito", 80},
		{"assinatura", "ASSINATURA STREAMING MENSAL", "Cartão de Crédito", 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := engine.SuggestPaymentMethod(tt.description)
			require.NotNil(t, match)
			assert.Equal(t, tt.wantValue, match.Value)
			assert.Equal(t, tt.wantConf, match.Confidence)
			assert.NotEmpty(t, match.Reason)
		})
	}
}

func TestSuggestPaymentMethodFirstMatchWins(t *testing.T) {
	engine := NewEngine()

	// PIX comes before transferencia in the rule order, so a description
	// matching both resolves to PIX.
	match := engine.SuggestPaymentMethod("PIX TRANSFERENCIA ENVIADA")
	require.NotNil(t, match)
	assert.Equal(t, "PIX", match.Value)

	// The broad CREDITO rule is declared before the DEBITO ones; a mixed
	// description resolves to credit card.
	match = engine.SuggestPaymentMethod("ESTORNO CREDITO DEBITO")
	require.NotNil(t, match)
	assert.Equal(t, "Cartão de Crédito", match.Value)
}

func TestSuggestPaymentMethodNoMatch(t *testing.T) {
	engine := NewEngine()

	assert.Nil(t, engine.SuggestPaymentMethod("TARIFA PACOTE SERVICOS"))
	assert.Nil(t, engine.SuggestPaymentMethod(""))
}
