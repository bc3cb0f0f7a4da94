package ofx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
ENCODING:USASCII

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS><CODE>0<SEVERITY>INFO</STATUS>
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STMTRS>
<CURDEF>BRL
<BANKACCTFROM>
<BANKID>0341
<ACCTID>12345-6
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240105120000
<TRNAMT>1500.00
<FITID>TX001
<MEMO>PIX RECEBIDO FULANO
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110
<TRNAMT>-89.90
<FITID>TX002
<NAME>PAGAMENTO BOLETO
<CHECKNUM>000123
</STMTTRN>
</BANKTRANLIST>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParse(t *testing.T) {
	stmt, err := Parse([]byte(sampleOFX))
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 2)

	assert.Equal(t, "0341", stmt.Account.BankID)
	assert.Equal(t, "12345-6", stmt.Account.AccountID)
	assert.Equal(t, "CHECKING", stmt.Account.AccountType)

	first := stmt.Transactions[0]
	assert.Equal(t, "CREDIT", first.TrnType)
	assert.Equal(t, "20240105120000", first.PostedDate)
	assert.Equal(t, "1500.00", first.Amount)
	assert.Equal(t, "TX001", first.FitID)
	assert.Equal(t, "PIX RECEBIDO FULANO", first.Memo)
	assert.Empty(t, first.Name)

	second := stmt.Transactions[1]
	assert.Equal(t, "DEBIT", second.TrnType)
	assert.Equal(t, "-89.90", second.Amount)
	assert.Equal(t, "PAGAMENTO BOLETO", second.Name)
	assert.Equal(t, "000123", second.CheckNum)
}

func TestParseMissingMessageSet(t *testing.T) {
	_, err := Parse([]byte("<OFX><SIGNONMSGSRSV1></SIGNONMSGSRSV1></OFX>"))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseNotOFX(t *testing.T) {
	_, err := Parse([]byte("id,date,amount\n1,2024-01-01,10.00\n"))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseEmptyTransactionList(t *testing.T) {
	input := `<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS>
<BANKTRANLIST>
<DTSTART>20240101
<DTEND>20240131
</BANKTRANLIST>
</STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`

	_, err := Parse([]byte(input))
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestParseMissingTransactionList(t *testing.T) {
	input := `<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS>
<CURDEF>BRL
</STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`

	_, err := Parse([]byte(input))
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestParseLatin1(t *testing.T) {
	// "DEPÓSITO EM DINHEIRO" with Ó as the single Latin-1 byte 0xD3.
	input := []byte(`<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEP
<DTPOSTED>20240201
<TRNAMT>200.00
<FITID>TX010
<MEMO>DEP` + "\xd3" + `SITO EM DINHEIRO
</STMTTRN>
</BANKTRANLIST>
</STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`)

	stmt, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "DEPÓSITO EM DINHEIRO", stmt.Transactions[0].Memo)
}

func TestParseMissingClosingTags(t *testing.T) {
	// Some exports drop closing aggregate tags entirely.
	input := `<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240301
<TRNAMT>-10.00
<FITID>TX020
<MEMO>TARIFA`

	stmt, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "TARIFA", stmt.Transactions[0].Memo)
}
