// Package display reproduces the storefront unit-suffix texts, so the
// import preview shows rows the way the shop renders them.
package display

import "fmt"

// PriceSuffix appends the sales unit to a price, e.g. " / m".
func PriceSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " / " + unit
}

// NameWithUnit is the cart-line rendering of a product name.
func NameWithUnit(name, unit string) string {
	if unit == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, unit)
}

// UnitLine is the line shown under the product title.
func UnitLine(unit string) string {
	if unit == "" {
		return ""
	}
	return "Egység: " + unit
}
