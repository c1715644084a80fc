package option

// IssuerPolicy is the single-issuer authorization gate consumed by the state
// machine for privileged transitions (issue, expire).
type IssuerPolicy interface {
	IsIssuer(caller string) bool
}

// SingleIssuer authorizes exactly one address.
type SingleIssuer string

func (s SingleIssuer) IsIssuer(caller string) bool {
	return caller != "" && string(s) == caller
}
