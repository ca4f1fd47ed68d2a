package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/worldforge/internal/core/feature"
)

func TestValidateRepairsOnce(t *testing.T) {
	fx := newFixture(t, []*feature.Type{sunType, ringType},
		feature.NewProvider("sun", sunType, bodies()),
		feature.NewProvider("ring_a", ringType, bodies()),
		feature.NewProvider("ring_b", ringType, bodies()),
	)
	c := fx.world("P3C-333")

	require.NoError(t, Validate(c))
	assert.Equal(t, 1, c.Count(sunType))
	assert.Equal(t, 2, c.Count(ringType))
}

func TestValidateSingletonWithoutProviderIsFatal(t *testing.T) {
	fx := newFixture(t, []*feature.Type{sunType, moonType})
	c := fx.world("P3C-334")

	err := Validate(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, feature.ErrSingletonViolation)
}

func TestValidateRejectsDuplicateSingleton(t *testing.T) {
	fx := newFixture(t, []*feature.Type{sunType},
		feature.NewProvider("sun", sunType, bodies()))
	c := fx.world("P3C-335")

	require.NoError(t, c.AddFeature(fx.build(t, c, "sun", nil)))
	require.NoError(t, c.AddFeature(fx.build(t, c, "sun", nil)))

	err := Validate(c)
	assert.ErrorIs(t, err, feature.ErrSingletonViolation)
}

func TestValidateMinimumUnmetIsFatal(t *testing.T) {
	fx := newFixture(t, []*feature.Type{ringType},
		feature.NewProvider("ring_a", ringType, bodies()),
		feature.NewProvider("ring_b", ringType, bodies(), feature.IncompatibleWith("ring_a")),
	)
	c := fx.world("P3C-336")

	err := Validate(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, feature.ErrMinimumUnmet)
	assert.Equal(t, 1, c.Count(ringType))
}

func TestValidateSurfacesTypeMismatch(t *testing.T) {
	broken := feature.NewProvider("sun", sunType, feature.Factories{
		Construct: func(w feature.World, p *feature.Provider, _ feature.Params) (feature.Feature, error) {
			b := feature.NewBase(p, w)
			return &b, nil
		},
	})
	fx := newFixture(t, []*feature.Type{sunType}, broken)

	err := Validate(fx.world("P3C-337"))
	assert.ErrorIs(t, err, feature.ErrTypeMismatch)
}
