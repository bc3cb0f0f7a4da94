package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caixadigital/ofximport/internal/domain/classify"
	"github.com/caixadigital/ofximport/internal/domain/ofx"
	"github.com/caixadigital/ofximport/pkg/money"
)

// Type-code tables for CREDIT/DEBIT resolution. Codes outside both tables
// fall back to the amount's sign.
var creditTypes = map[string]bool{
	"CREDIT": true, "DEP": true, "DIRECTDEP": true, "INT": true, "DIV": true,
}

var debitTypes = map[string]bool{
	"DEBIT": true, "ATM": true, "POS": true, "FEE": true, "SRVCHG": true,
	"CHECK": true, "PAYMENT": true, "DIRECTDEBIT": true, "REPEATPMT": true,
}

// typeTitles maps OFX type codes to display titles used when a record has
// neither memo nor check number.
var typeTitles = map[string]string{
	"CREDIT":      "Depósito",
	"DEBIT":       "Saque",
	"INT":         "Juros",
	"DIV":         "Dividendos",
	"FEE":         "Taxa",
	"SRVCHG":      "Taxa de Serviço",
	"DEP":         "Depósito",
	"ATM":         "Saque ATM",
	"POS":         "Compra POS",
	"XFER":        "Transferência",
	"CHECK":       "Cheque",
	"PAYMENT":     "Pagamento",
	"CASH":        "Dinheiro",
	"DIRECTDEP":   "Depósito Direto",
	"DIRECTDEBIT": "Débito Direto",
	"REPEATPMT":   "Pagamento Recorrente",
	"HOLD":        "Retenção",
	"OTHER":       "Outro",
}

// Normalizer converts raw statement records into candidates, consulting
// the classification engine. It is stateless and shared by all workers.
type Normalizer struct {
	engine *classify.Engine
}

func NewNormalizer(engine *classify.Engine) *Normalizer {
	return &Normalizer{engine: engine}
}

// Normalize transforms one raw record. A non-nil error means the record is
// skipped; the job continues.
func (n *Normalizer) Normalize(raw ofx.RawTransaction) (*Candidate, error) {
	if raw.PostedDate == "" {
		return nil, fmt.Errorf("missing posted date")
	}
	if raw.Amount == "" || raw.Amount == "0" {
		return nil, fmt.Errorf("missing or zero amount")
	}

	cents, err := money.ParseCents(raw.Amount)
	if err != nil {
		return nil, fmt.Errorf("unparsable amount %q: %w", raw.Amount, err)
	}

	date, err := parseOFXDate(raw.PostedDate)
	if err != nil {
		return nil, err
	}

	trnType := raw.TrnType
	if trnType == "" {
		trnType = "OTHER"
	}

	var txType string
	switch {
	case creditTypes[trnType]:
		txType = "CREDIT"
	case debitTypes[trnType]:
		txType = "DEBIT"
	case money.IsNegative(raw.Amount):
		txType = "DEBIT"
	default:
		txType = "CREDIT"
	}

	memo := ofx.FixEncoding(strings.TrimSpace(raw.Memo))
	name := ofx.FixEncoding(strings.TrimSpace(raw.Name))

	title := buildTitle(trnType, memo, raw.CheckNum)

	description := name
	if description == "" {
		description = memo
	}
	if description == "" || description == title {
		description = "Transação OFX - " + trnType
	}

	candidate := &Candidate{
		Title:           title,
		Description:     description,
		Amount:          cents,
		Type:            txType,
		TransactionDate: date,
		TrnType:         trnType,
		Memo:            memo,
		Name:            name,
	}
	if raw.FitID != "" {
		fitid := raw.FitID
		candidate.FitID = &fitid
	}
	if raw.CheckNum != "" {
		checknum := raw.CheckNum
		candidate.CheckNum = &checknum
	}

	// Both dimensions run against the counterparty name, never the memo or
	// the generated title.
	if match := n.engine.SuggestCategory(name); match != nil {
		candidate.SuggestedCategory = match.Value
		candidate.CategoryConfidence = match.Confidence
		candidate.CategoryReason = match.Reason
	}
	if match := n.engine.SuggestPaymentMethod(name); match != nil {
		candidate.SuggestedPaymentMethod = match.Value
		candidate.PaymentMethodConfidence = match.Confidence
		candidate.PaymentMethodReason = match.Reason
	}

	return candidate, nil
}

// parseOFXDate decodes the compact YYYYMMDD[HHMMSS...] representation,
// ignoring any time-of-day and timezone suffix.
func parseOFXDate(s string) (time.Time, error) {
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("invalid OFX date %q", s)
	}

	year, err1 := strconv.Atoi(s[0:4])
	month, err2 := strconv.Atoi(s[4:6])
	day, err3 := strconv.Atoi(s[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("invalid OFX date %q", s)
	}
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("OFX date %q out of range", s)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func buildTitle(trnType, memo, checkNum string) string {
	if memo != "" {
		return memo
	}
	if num := strings.TrimSpace(checkNum); num != "" {
		return "Cheque " + num
	}
	if label, ok := typeTitles[trnType]; ok {
		return label
	}
	return "Transação " + trnType
}
