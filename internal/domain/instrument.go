package domain

import "github.com/json0755/call-option-token/pkg/quant"

// CollateralKind identifies the resource type backing an instrument.
type CollateralKind string

const (
	// CollateralNative is the chain's native value type, the only kind
	// currently accepted.
	CollateralNative CollateralKind = "NATIVE"
	// CollateralForeign is a recognized extension point for foreign-asset
	// backing. Construction and issue reject it unconditionally.
	CollateralForeign CollateralKind = "FOREIGN"
)

// Terms holds the immutable attributes of a call-option instrument, fixed at
// construction. All monetary values are strictly int64 fixed-point.
type Terms struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Symbol       string            `json:"symbol"`
	StrikeMicros quant.PriceMicros `json:"strike,string"` // collateral per whole unit exercised
	ExpiryUnixM  quant.TimeStamp   `json:"expiry,string"` // Unix Micro
	Collateral   CollateralKind    `json:"collateral"`
}

// IsNative reports whether the instrument is backed by the native value kind.
func (t Terms) IsNative() bool {
	return t.Collateral == CollateralNative
}
