package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceSuffix(t *testing.T) {
	Assert := assert.New(t)

	Assert.Equal(" / m", PriceSuffix("m"))
	Assert.Equal(" / db", PriceSuffix("db"))
	Assert.Equal("", PriceSuffix(""))
}

func TestNameWithUnit(t *testing.T) {
	Assert := assert.New(t)

	Assert.Equal("Kábel (m)", NameWithUnit("Kábel", "m"))
	Assert.Equal("Kábel", NameWithUnit("Kábel", ""))
}

func TestUnitLine(t *testing.T) {
	Assert := assert.New(t)

	Assert.Equal("Egység: db", UnitLine("db"))
	Assert.Equal("", UnitLine(""))
}
