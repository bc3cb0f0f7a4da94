// Package ofx parses OFX bank statements. OFX is an SGML-like exchange
// format: tags are uppercase, leaf elements usually omit their closing tag,
// and files arrive in whatever byte encoding the bank's export tool felt
// like using that day.
package ofx

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidFormat means the statement lacks the expected message-set
	// structure. This is fatal for the whole import.
	ErrInvalidFormat = errors.New("invalid OFX format: missing bank message set")

	// ErrNoTransactions means the statement carried no transaction list.
	ErrNoTransactions = errors.New("no transactions found in OFX file")
)

// RawTransaction is one STMTTRN record exactly as it appears in the file.
// All fields are raw strings; validation happens during normalization.
type RawTransaction struct {
	TrnType    string // TRNTYPE
	PostedDate string // DTPOSTED
	Amount     string // TRNAMT
	FitID      string // FITID
	Memo       string // MEMO
	Name       string // NAME
	CheckNum   string // CHECKNUM
}

// Account identifies the statement's source account (BANKACCTFROM).
type Account struct {
	BankID      string
	AccountID   string
	AccountType string
}

// Statement is a decoded, structurally validated OFX statement.
type Statement struct {
	Account      Account
	Transactions []RawTransaction
}

// Parse decodes a raw statement file and extracts its transaction list.
// Individual malformed records survive parsing untouched; only a missing
// structural path is an error.
func Parse(data []byte) (*Statement, error) {
	content := decode(data)

	body, err := extractPath(content, "BANKMSGSRSV1", "STMTTRNRS", "STMTRS")
	if err != nil {
		return nil, err
	}

	tranList, ok := section(body, "BANKTRANLIST")
	if !ok {
		return nil, ErrNoTransactions
	}

	records := splitRecords(tranList)
	if len(records) == 0 {
		return nil, ErrNoTransactions
	}

	stmt := &Statement{
		Transactions: make([]RawTransaction, 0, len(records)),
	}

	if acct, ok := section(body, "BANKACCTFROM"); ok {
		stmt.Account = Account{
			BankID:      leaf(acct, "BANKID"),
			AccountID:   leaf(acct, "ACCTID"),
			AccountType: leaf(acct, "ACCTTYPE"),
		}
	}

	for _, rec := range records {
		stmt.Transactions = append(stmt.Transactions, RawTransaction{
			TrnType:    leaf(rec, "TRNTYPE"),
			PostedDate: leaf(rec, "DTPOSTED"),
			Amount:     leaf(rec, "TRNAMT"),
			FitID:      leaf(rec, "FITID"),
			Memo:       leaf(rec, "MEMO"),
			Name:       leaf(rec, "NAME"),
			CheckNum:   leaf(rec, "CHECKNUM"),
		})
	}

	return stmt, nil
}

// decode turns the raw bytes into text. UTF-8 wins when the bytes are valid
// and the root marker is present; otherwise Latin-1, which is what banking
// exports from the target locale overwhelmingly use. Latin-1 can represent
// any byte, so the fallback never fails.
func decode(data []byte) string {
	if utf8.Valid(data) {
		content := string(data)
		if !strings.ContainsRune(content, utf8.RuneError) && strings.Contains(content, "<OFX>") {
			return content
		}
	}
	return decodeLatin1(data)
}

func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// extractPath walks a chain of nested sections and returns the innermost
// body, or ErrInvalidFormat when any level is absent.
func extractPath(content string, tags ...string) (string, error) {
	if !strings.Contains(content, "<OFX>") {
		return "", ErrInvalidFormat
	}
	body := content
	for _, tag := range tags {
		inner, ok := section(body, tag)
		if !ok {
			return "", fmt.Errorf("%w: missing <%s>", ErrInvalidFormat, tag)
		}
		body = inner
	}
	return body, nil
}

// section returns the text between <TAG> and </TAG>. OFX aggregates always
// carry a closing tag; when one is missing, the rest of the document is
// returned so that sloppy exports still parse.
func section(content, tag string) (string, bool) {
	open := "<" + tag + ">"
	start := strings.Index(content, open)
	if start < 0 {
		return "", false
	}
	rest := content[start+len(open):]

	if end := strings.Index(rest, "</"+tag+">"); end >= 0 {
		return rest[:end], true
	}
	return rest, true
}

// splitRecords slices the transaction list into one chunk per <STMTTRN>.
// Leaf parsing tolerates missing closers, so each chunk simply runs until
// the next record begins.
func splitRecords(tranList string) []string {
	parts := strings.Split(tranList, "<STMTTRN>")
	if len(parts) <= 1 {
		return nil
	}

	records := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if end := strings.Index(part, "</STMTTRN>"); end >= 0 {
			part = part[:end]
		}
		records = append(records, part)
	}
	return records
}

// leaf extracts a leaf element's value: the text after <TAG> up to the next
// tag open, trimmed. SGML-style OFX omits leaf closing tags.
func leaf(record, tag string) string {
	open := "<" + tag + ">"
	start := strings.Index(record, open)
	if start < 0 {
		return ""
	}
	rest := record[start+len(open):]
	if next := strings.IndexByte(rest, '<'); next >= 0 {
		rest = rest[:next]
	}
	return strings.TrimSpace(rest)
}
