package enums

// DiscountKind names a discount the pricing engine can apply.
type DiscountKind string

const (
	DiscountAnnualSupply       DiscountKind = "annual_supply"
	DiscountManufacturerRebate DiscountKind = "manufacturer_rebate"
	DiscountSecondPair         DiscountKind = "second_pair"
)

// Rank returns the order of application; lower ranks apply first.
func (k DiscountKind) Rank() int {
	switch k {
	case DiscountAnnualSupply:
		return 1
	case DiscountManufacturerRebate:
		return 2
	case DiscountSecondPair:
		return 3
	}
	return 99
}
