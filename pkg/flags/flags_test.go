package flags_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deshaw/pyflyby/pkg/flags"
)

func TestFromName(t *testing.T) {
	f, ok := flags.FromName("print_function")
	assert.True(t, ok)
	assert.Equal(t, flags.PrintFunction, f)

	_, ok = flags.FromName("nonexistent_directive")
	assert.False(t, ok)
}

func TestUnionAndHas(t *testing.T) {
	f := flags.Division.Union(flags.PrintFunction)
	assert.True(t, f.Has(flags.Division))
	assert.True(t, f.Has(flags.PrintFunction))
	assert.False(t, f.Has(flags.WithStatement))
	assert.True(t, f.Has(flags.Division.Union(flags.PrintFunction)))
}

func TestNamesOrder(t *testing.T) {
	f := flags.PrintFunction.Union(flags.Division)
	assert.Equal(t, []string{"division", "print_function"}, f.Names())
}
