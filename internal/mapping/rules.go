package mapping

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind selects how a Rule is applied.
type Kind int

const (
	// Exact matches a header equal to Pattern (exact pass).
	Exact Kind = iota
	// ExactContains matches a header containing Pattern (exact pass).
	ExactContains
	// Substring matches a header containing Pattern (keyword pass).
	Substring
	// Exclude vetoes a header containing Pattern for Field in both header passes.
	Exclude
	// Content scores body samples with Match (content pass).
	Content
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case ExactContains:
		return "exact-contains"
	case Substring:
		return "substring"
	case Exclude:
		return "exclude"
	case Content:
		return "content"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Rule is one row of the declarative mapping table. Header patterns are
// compared against the lower-cased, trimmed header text.
type Rule struct {
	Field   FieldID
	Kind    Kind
	Pattern string
	Weight  int
	Match   func(sample string) bool
}

func exact(f FieldID, labels ...string) []Rule {
	out := make([]Rule, len(labels))
	for i, l := range labels {
		out[i] = Rule{Field: f, Kind: Exact, Pattern: l}
	}
	return out
}

func keywords(f FieldID, words ...string) []Rule {
	out := make([]Rule, len(words))
	for i, w := range words {
		out[i] = Rule{Field: f, Kind: Substring, Pattern: w}
	}
	return out
}

// DefaultRules is the rule table used by New.
var DefaultRules = buildRules()

func buildRules() []Rule {
	var r []Rule
	r = append(r, exact(ClientID, "客户号", "核心客户号", "客户编号", "客户代码", "客户id")...)
	r = append(r, exact(FundCode, "基金代码", "代码", "基金编码", "fund code", "fund_code")...)
	r = append(r, exact(PurchaseAmount, "购买金额", "持仓成本(元)", "持仓成本（元）", "购买金额(元)", "购买金额（元）", "amount", "purchase amount")...)
	r = append(r, exact(PurchaseShares, "购买份额", "当前份额", "持仓份额", "shares", "purchase shares")...)
	r = append(r, Rule{Field: PurchaseDate, Kind: ExactContains, Pattern: "最早购买日期"})
	r = append(r, exact(PurchaseDate, "购买日期", "交易日期", "date", "purchase date")...)
	r = append(r, exact(ClientName, "客户姓名", "姓名", "客户名称")...)
	r = append(r, exact(Remarks, "备注")...)

	r = append(r, keywords(ClientID, "客户号", "编号", "id", "证件号", "账号", "号码")...)
	r = append(r, keywords(FundCode, "代码", "fund", "code", "产品", "基金")...)
	r = append(r, keywords(PurchaseAmount, "金额", "成本", "amount", "price", "价值")...)
	r = append(r, keywords(PurchaseShares, "份额", "shares", "quantity", "数量", "单位")...)
	r = append(r, keywords(PurchaseDate, "日期", "date", "时间", "day")...)
	r = append(r, keywords(ClientName, "姓名", "名字", "客户", "name")...)
	r = append(r, keywords(Remarks, "remark", "comment", "说明", "备注")...)
	r = append(r, Rule{Field: ClientName, Kind: Exclude, Pattern: "经理"})

	r = append(r,
		Rule{Field: FundCode, Kind: Content, Pattern: "six digits", Weight: 3, Match: sixDigits},
		Rule{Field: FundCode, Kind: Content, Pattern: "4-8 digits", Weight: 1, Match: fourToEightDigits},
		Rule{Field: PurchaseAmount, Kind: Content, Pattern: "1e3 < v < 1e9", Weight: 3, Match: numberBetween(1e3, 1e9)},
		Rule{Field: PurchaseAmount, Kind: Content, Pattern: "v > 0", Weight: 1, Match: numberBetween(0, -1)},
		Rule{Field: PurchaseShares, Kind: Content, Pattern: "1e2 < v < 1e7", Weight: 3, Match: numberBetween(1e2, 1e7)},
		Rule{Field: PurchaseShares, Kind: Content, Pattern: "v > 0", Weight: 1, Match: numberBetween(0, -1)},
		Rule{Field: PurchaseDate, Kind: Content, Pattern: "date shaped", Weight: 3, Match: dateShaped},
		Rule{Field: PurchaseDate, Kind: Content, Pattern: "contains - or /", Weight: 1, Match: dateSeparated},
	)
	return r
}

var (
	notDigitOrDot = regexp.MustCompile(`[^\d.]`)
	notDigit      = regexp.MustCompile(`\D`)
	sixDigitsRe   = regexp.MustCompile(`^\d{6}$`)
	digitsRe      = regexp.MustCompile(`^\d{4,8}$`)
	plainNumberRe = regexp.MustCompile(`^\d+\.?\d*$`)
	isoishDateRe  = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}$`)
	eightDigitsRe = regexp.MustCompile(`^\d{8}$`)
	cjkDateRe     = regexp.MustCompile(`^\d{4}年\d{1,2}月\d{1,2}日$`)
)

func cleanNumeric(s string) string {
	return notDigitOrDot.ReplaceAllString(s, "")
}

func sixDigits(s string) bool { return sixDigitsRe.MatchString(cleanNumeric(s)) }

func fourToEightDigits(s string) bool { return digitsRe.MatchString(cleanNumeric(s)) }

// numberBetween matches samples whose numeric part lies strictly between lo
// and hi. A negative hi means unbounded.
func numberBetween(lo, hi float64) func(string) bool {
	return func(s string) bool {
		c := cleanNumeric(s)
		if !plainNumberRe.MatchString(c) {
			return false
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return false
		}
		return v > lo && (hi < 0 || v < hi)
	}
}

func dateShaped(s string) bool {
	return isoishDateRe.MatchString(s) ||
		eightDigitsRe.MatchString(notDigit.ReplaceAllString(s, "")) ||
		cjkDateRe.MatchString(s)
}

func dateSeparated(s string) bool {
	return strings.ContainsAny(s, "-/")
}
