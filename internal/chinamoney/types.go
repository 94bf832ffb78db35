package chinamoney

// BondType pairs an upstream bond type code with its English display name.
type BondType struct {
	Code string
	Name string
}

// TreasuryBondCode is the type code for central government bonds, the most
// commonly fetched category.
const TreasuryBondCode = "100001"

// BondTypes lists the type codes accepted by the listing endpoint's
// bondType parameter.
var BondTypes = []BondType{
	{Code: "100001", Name: "Treasury Bond"},
	{Code: "100002", Name: "Central Bank Bill"},
	{Code: "100003", Name: "Financial Bond"},
	{Code: "100004", Name: "Enterprise Bond"},
	{Code: "100005", Name: "Commercial Paper"},
	{Code: "100006", Name: "Medium-term Note"},
	{Code: "100010", Name: "Local Government Bond"},
	{Code: "100015", Name: "Asset-backed Security"},
	{Code: "100022", Name: "Government-supported Institution Bond"},
}

// BondTypeName returns the display name for a type code, or "" when the
// code is unknown.
func BondTypeName(code string) string {
	for _, bt := range BondTypes {
		if bt.Code == code {
			return bt.Name
		}
	}
	return ""
}
