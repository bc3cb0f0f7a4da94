// Package classify suggests financial categories and payment methods for
// bank statement descriptions using pre-compiled regex rule sets.
package classify

import "regexp"

// Rule binds one pre-compiled pattern to a suggestion. Rules are evaluated
// in declaration order and the first match wins, so broader or lower
// confidence patterns must come after the specific ones they overlap with.
type Rule struct {
	Pattern    *regexp.Regexp
	Value      string
	Confidence int
	Reason     string
}

// Match is the outcome of running a description through a rule set.
type Match struct {
	Value      string
	Confidence int
	Reason     string
}

// categoryRules maps descriptions to category names. Today every rule in
// the set points at payroll ("Folha"); the bulk of imported movement that
// needs automatic categorization is salary-adjacent.
var categoryRules = []Rule{
	{
		Pattern:    regexp.MustCompile(`(?i)(?:^|[\s\-_/.,;])(?:vt|vr)(?:[\s\-_/.,;]|$)`),
		Value:      "Folha",
		Confidence: 100,
		Reason:     "Identificado como VT/VR (Vale Transporte/Refeição) por regra -> Folha",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)(?:vt\s+e\s+vr|vt\s*&\s*vr|vt\s*/\s*vr)`),
		Value:      "Folha",
		Confidence: 100,
		Reason:     "Identificado como VT e VR (Vale Transporte e Vale Refeição) por regra -> Folha",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)(?:^|[\s\-_/.,;])folha(?:[\s\-_/.,;]|$)`),
		Value:      "Folha",
		Confidence: 100,
		Reason:     "Identificado como Folha de Pagamento por regra -> Folha",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)(?:vale[\s\-_]*transporte|vale[\s\-_]*refeicao|vale[\s\-_]*alimentacao)`),
		Value:      "Folha",
		Confidence: 95,
		Reason:     "Identificado como vale (transporte/refeição/alimentação) por regra -> Folha",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)(?:beneficio|subsidio|auxilio)`),
		Value:      "Folha",
		Confidence: 90,
		Reason:     "Identificado como benefício/subsídio/auxílio por regra -> Folha",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\bpremiacao\b`),
		Value:      "Folha",
		Confidence: 100,
		Reason:     "Identificado como premiação por regra -> Folha",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\bleads\b`),
		Value:      "Folha",
		Confidence: 100,
		Reason:     "Identificado como leads por regra -> Folha",
	},
}

// paymentMethodRules maps descriptions to payment method names. Names must
// match the seeded payment_methods catalog.
var paymentMethodRules = []Rule{
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:pix|pix\s+recebimento|pix\s+pagamento|pix\s+transferencia|pix\s+enviado|pix\s+recebido|pix\s+in|pix\s+out)\b`),
		Value:      "PIX",
		Confidence: 100,
		Reason:     "Identificado como transação PIX por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:boleto|boleto\s+bancario|boleto\s+pago|boleto\s+recebido|boleto\s+emitido|boleto\s+compensado|boleto\s+liquidado)\b`),
		Value:      "Boleto Bancário",
		Confidence: 100,
		Reason:     "Identificado como boleto bancário por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:boleto|boleto\s+pago|boleto\s+recebido|boleto\s+emitido)\b`),
		Value:      "Boleto",
		Confidence: 95,
		Reason:     "Identificado como boleto por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:cartao\s+credito|cartao\s+de\s+credito|credito|compra\s+credito|pagamento\s+credito|credito\s+cartao|fatura\s+credito)\b`),
		Value:      "Cartão de Crédito",
		Confidence: 100,
		Reason:     "Identificado como cartão de crédito por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:credito|compra\s+credito|pagamento\s+credito)\b`),
		Value:      "Cartão de Crédito",
		Confidence: 90,
		Reason:     "Identificado como crédito (provavelmente cartão) por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:cartao\s+debito|cartao\s+de\s+debito|debito|compra\s+debito|pagamento\s+debito|debito\s+cartao)\b`),
		Value:      "Cartão de Débito",
		Confidence: 100,
		Reason:     "Identificado como cartão de débito por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:pos|compra\s+pos|pagamento\s+pos|terminal\s+pos|pos\s+debito)\b`),
		Value:      "Cartão de Débito",
		Confidence: 85,
		Reason:     "Identificado como compra POS (provavelmente débito) por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:cheque|cheque\s+numero|cheque\s+compensado|cheque\s+emitido|cheque\s+liquidado|cheque\s+proprio)\b`),
		Value:      "Cheque",
		Confidence: 100,
		Reason:     "Identificado como cheque por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:debito\s+automatico|debito\s+em\s+conta|debito\s+direto|automatico|debito\s+aut|automatico\s+debito)\b`),
		Value:      "Débito Automático",
		Confidence: 100,
		Reason:     "Identificado como débito automático por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:dinheiro|cash|efetivo|especie|dinheiro\s+fisico)\b`),
		Value:      "Dinheiro",
		Confidence: 100,
		Reason:     "Identificado como dinheiro por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:saque|atm|saque\s+atm|saque\s+terminal|saque\s+efetivo|saque\s+dinheiro)\b`),
		Value:      "Dinheiro",
		Confidence: 95,
		Reason:     "Identificado como saque ATM (dinheiro) por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:transferencia|transferencia\s+bancaria|transferencia\s+entre\s+contas|ted|doc|transferencia\s+eletronica)\b`),
		Value:      "Transferência Bancária",
		Confidence: 100,
		Reason:     "Identificado como transferência bancária por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:deposito|deposito\s+bancario|deposito\s+em\s+conta|deposito\s+efetivo)\b`),
		Value:      "Transferência Bancária",
		Confidence: 90,
		Reason:     "Identificado como depósito bancário por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:ted|doc|transferencia\s+eletronica|transferencia\s+interbancaria)\b`),
		Value:      "Transferência Bancária",
		Confidence: 100,
		Reason:     "Identificado como TED/DOC (transferência bancária) por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:compra\s+online|e-commerce|shopping\s+online|compra\s+internet)\b`),
		Value:      "Cartão de Crédito",
		Confidence: 80,
		Reason:     "Identificado como compra online (provavelmente cartão de crédito) por regra",
	},
	{
		Pattern:    regexp.MustCompile(`(?i)\b(?:assinatura|recorrente|mensalidade|plano|subscription)\b`),
		Value:      "Cartão de Crédito",
		Confidence: 85,
		Reason:     "Identificado como pagamento recorrente (provavelmente cartão de crédito) por regra",
	},
}

// Engine runs the rule sets against transaction descriptions. The zero
// value is not usable; construct with NewEngine.
type Engine struct {
	categories     []Rule
	paymentMethods []Rule
}

func NewEngine() *Engine {
	return &Engine{
		categories:     categoryRules,
		paymentMethods: paymentMethodRules,
	}
}

// SuggestCategory returns the first category rule matching the description,
// or nil when no rule applies. Matching uses the raw bank description, not
// the derived title.
func (e *Engine) SuggestCategory(description string) *Match {
	return firstMatch(e.categories, description)
}

// SuggestPaymentMethod returns the first payment method rule matching the
// description, or nil when no rule applies.
func (e *Engine) SuggestPaymentMethod(description string) *Match {
	return firstMatch(e.paymentMethods, description)
}

func firstMatch(rules []Rule, description string) *Match {
	if description == "" {
		return nil
	}
	for i := range rules {
		if rules[i].Pattern.MatchString(description) {
			return &Match{
				Value:      rules[i].Value,
				Confidence: rules[i].Confidence,
				Reason:     rules[i].Reason,
			}
		}
	}
	return nil
}
