// Package mapping infers which source column carries each semantic field of
// a holding record.
//
// Inference runs four passes over the header row and a small body sample:
// exact labels, keyword containment, content scoring and a positional
// fallback. Passes are column-major and a column, once claimed, is never
// offered again, so the mapping is injective. The only exception is the
// optional client name, which may alias the client id column when no name
// column exists.
package mapping

import "strings"

// FieldID names a semantic field of a holding record.
type FieldID string

const (
	ClientID       FieldID = "clientID"
	FundCode       FieldID = "fundCode"
	PurchaseAmount FieldID = "purchaseAmount"
	PurchaseShares FieldID = "purchaseShares"
	PurchaseDate   FieldID = "purchaseDate"
	ClientName     FieldID = "clientName"
	Remarks        FieldID = "remarks"
)

// FieldSpec is a field together with its current binding.
type FieldSpec struct {
	ID          FieldID `json:"id"`
	Label       string  `json:"label"`
	Required    bool    `json:"required"`
	ColumnIndex *int    `json:"column_index"`
}

// Mapped reports whether the field is bound to a column.
func (f FieldSpec) Mapped() bool { return f.ColumnIndex != nil }

// fieldTable lists the fields in declaration order. Passes offer columns to
// fields in this order.
var fieldTable = []FieldSpec{
	{ID: ClientID, Label: "客户号", Required: true},
	{ID: FundCode, Label: "基金代码", Required: true},
	{ID: PurchaseAmount, Label: "购买金额", Required: true},
	{ID: PurchaseShares, Label: "购买份额", Required: true},
	{ID: PurchaseDate, Label: "购买日期", Required: true},
	{ID: ClientName, Label: "客户姓名", Required: false},
	{ID: Remarks, Label: "备注", Required: false},
}

// Fields returns the unbound field table in declaration order.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(fieldTable))
	copy(out, fieldTable)
	return out
}

// Label returns the user-facing label of id, or id itself when unknown.
func Label(id FieldID) string {
	for _, f := range fieldTable {
		if f.ID == id {
			return f.Label
		}
	}
	return string(id)
}

// ParseField resolves a field by id or label, case-insensitively.
func ParseField(s string) (FieldID, bool) {
	s = strings.TrimSpace(s)
	for _, f := range fieldTable {
		if strings.EqualFold(string(f.ID), s) || f.Label == s {
			return f.ID, true
		}
	}
	return "", false
}
