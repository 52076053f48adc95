package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/domain"
)

func TestExchangeRoutesBySymbol(t *testing.T) {
	x := NewExchange(testConfig())
	defer x.Stop()

	ok, err := x.Submit(domain.Order{ID: 1, Side: domain.Buy, Symbol: "AAA", Price: 10, Qty: 5})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = x.Submit(domain.Order{ID: 2, Side: domain.Sell, Symbol: "BBB", Price: 20, Qty: 5})
	require.NoError(t, err)
	assert.True(t, ok)

	aaa, err := x.GetOrCreate("AAA")
	require.NoError(t, err)
	bbb, err := x.GetOrCreate("BBB")
	require.NoError(t, err)
	assert.NotSame(t, aaa, bbb, "distinct symbols must route to distinct engines")
}

func TestExchangeReusesEngineForSameSymbol(t *testing.T) {
	x := NewExchange(testConfig())
	defer x.Stop()

	first, err := x.GetOrCreate("AAA")
	require.NoError(t, err)
	second, err := x.GetOrCreate("AAA")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
