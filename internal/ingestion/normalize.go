package ingestion

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/guttosm/fundimport/internal/domain/models"
	"github.com/guttosm/fundimport/internal/mapping"
)

const (
	clientIDWidth    = 12
	clientIDMaxWidth = 18
	fundCodeWidth    = 6
	emptyFundCode    = "000000"
)

var (
	nonDigit      = regexp.MustCompile(`\D`)
	notNumberChar = regexp.MustCompile(`[^\d.\-]`)
	leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// Candidate is a normalized row on its way to validation.
type Candidate struct {
	Holding        models.Holding
	Line           int
	NegativeAmount bool // the source amount carried a minus sign
	NegativeShares bool
}

// Normalizer turns raw rows into holdings. It holds no state besides its
// clock and id source, so the same row always yields the same record apart
// from ID and NavDate.
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

// NewNormalizer returns a Normalizer. Nil arguments select time.Now and uuid.NewString.
func NewNormalizer(now func() time.Time, newID func() string) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Normalizer{now: now, newID: newID}
}

// Normalize maps row through mp and cleans every field.
func (n *Normalizer) Normalize(row []string, line int, mp *mapping.Mapping) Candidate {
	rawName := mp.Value(row, mapping.ClientName)

	clientID := normalizeClientID(mp.Value(row, mapping.ClientID), rawName)
	fundCode := normalizeFundCode(mp.Value(row, mapping.FundCode))
	amount, negAmount := parseAmount(mp.Value(row, mapping.PurchaseAmount), 2)
	shares, negShares := parseAmount(mp.Value(row, mapping.PurchaseShares), 4)
	date, _ := ParseDate(mp.Value(row, mapping.PurchaseDate))

	nav := decimal.NewFromInt(1)
	if shares.IsPositive() {
		nav = amount.DivRound(shares, 4)
	}

	return Candidate{
		Holding: models.Holding{
			ID:             n.newID(),
			ClientID:       clientID,
			ClientName:     normalizeClientName(rawName, clientID),
			FundCode:       fundCode,
			FundName:       "基金" + fundCode,
			PurchaseAmount: amount,
			PurchaseShares: shares,
			PurchaseDate:   date,
			CurrentNav:     nav,
			NavDate:        dateOnly(n.now()),
			Remarks:        mp.Value(row, mapping.Remarks),
			IsValid:        true,
		},
		Line:           line,
		NegativeAmount: negAmount,
		NegativeShares: negShares,
	}
}

// normalizeClientID keeps digits, falling back to the digits of the name
// cell. Short ids are zero-padded to twelve digits, long ones cut at eighteen.
func normalizeClientID(raw, rawName string) string {
	id := nonDigit.ReplaceAllString(raw, "")
	if id == "" {
		id = nonDigit.ReplaceAllString(rawName, "")
	}
	switch {
	case id == "":
		return models.SentinelClientID
	case len(id) < clientIDWidth:
		return strings.Repeat("0", clientIDWidth-len(id)) + id
	case len(id) > clientIDMaxWidth:
		return id[:clientIDMaxWidth]
	}
	return id
}

func normalizeClientName(raw, clientID string) string {
	name := strings.TrimSpace(raw)
	if name != "" && name != models.UnknownClientName {
		return name
	}
	if clientID == models.SentinelClientID {
		return models.UnknownClientName
	}
	return "客户" + clientID[len(clientID)-6:]
}

func normalizeFundCode(raw string) string {
	code := nonDigit.ReplaceAllString(raw, "")
	switch {
	case code == "":
		return emptyFundCode
	case len(code) > fundCodeWidth:
		return code[:fundCodeWidth]
	case len(code) < fundCodeWidth:
		return strings.Repeat("0", fundCodeWidth-len(code)) + code
	}
	return code
}

// parseAmount keeps digits, dots and minus signs, reads the leading number
// and returns its absolute value rounded to places, plus whether it was
// negative. Anything unparseable is zero.
func parseAmount(raw string, places int32) (decimal.Decimal, bool) {
	m := leadingNumber.FindString(notNumberChar.ReplaceAllString(raw, ""))
	if m == "" || m == "-" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil {
		return decimal.Zero, false
	}
	return v.Abs().Round(places), v.IsNegative()
}
