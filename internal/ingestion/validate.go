package ingestion

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fundimport/internal/domain/models"
	"github.com/guttosm/fundimport/internal/mapping"
)

var (
	sixDigitCode = regexp.MustCompile(`^\d{6}$`)
	maxAmount    = decimal.NewFromInt(1_000_000_000)
)

// Validator applies the business rules to a normalized candidate.
type Validator struct {
	now func() time.Time
}

// NewValidator returns a Validator; nil selects time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate runs every rule and returns one RowError per failed rule.
func (v *Validator) Validate(c Candidate) []models.RowError {
	var errs []models.RowError
	add := func(field mapping.FieldID, msg string) {
		errs = append(errs, models.RowError{Line: c.Line, Field: mapping.Label(field), Message: msg})
	}
	h := c.Holding

	switch {
	case h.ClientID == "" || h.ClientID == models.SentinelClientID:
		add(mapping.ClientID, "客户号不能为空或无效")
	case len(h.ClientID) < 6:
		add(mapping.ClientID, "客户号太短，至少需要6位")
	}

	switch {
	case !sixDigitCode.MatchString(h.FundCode):
		add(mapping.FundCode, "基金代码必须是6位数字")
	case h.FundCode == emptyFundCode:
		add(mapping.FundCode, "基金代码不能全为0")
	}

	switch {
	case c.NegativeAmount || !h.PurchaseAmount.IsPositive():
		add(mapping.PurchaseAmount, "购买金额必须大于0，当前值: "+signed(h.PurchaseAmount, c.NegativeAmount).StringFixed(2))
	case h.PurchaseAmount.GreaterThan(maxAmount):
		add(mapping.PurchaseAmount, "购买金额过大: "+h.PurchaseAmount.StringFixed(2))
	}

	if c.NegativeShares || !h.PurchaseShares.IsPositive() {
		add(mapping.PurchaseShares, "购买份额必须大于0，当前值: "+signed(h.PurchaseShares, c.NegativeShares).StringFixed(4))
	}

	switch {
	case h.PurchaseDate.IsZero():
		add(mapping.PurchaseDate, "购买日期格式无效")
	case h.PurchaseDate.After(dateOnly(v.now())):
		add(mapping.PurchaseDate, "购买日期不能是未来日期")
	}

	return errs
}

func signed(d decimal.Decimal, negative bool) decimal.Decimal {
	if negative {
		return d.Neg()
	}
	return d
}
