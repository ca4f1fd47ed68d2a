// Package catalog ships the built-in feature kinds, their providers and the
// built-in world templates.
package catalog

import (
	"github.com/zeusync/worldforge/internal/core/feature"
)

// Provider identifiers. They are persisted in saves and must never change.
const (
	SunNormal        = "sun_normal"
	SunBinaryDim     = "sun_binary_dim"
	MoonNormal       = "moon_normal"
	MoonLarge        = "moon_large"
	BiomeSingleID    = "biome_single"
	BiomeSizedID     = "biome_sized"
	WeatherRain      = "weather_rain"
	WeatherDrought   = "weather_drought"
	WeatherAsh       = "weather_ash"
	SkyColorNormal   = "sky_color_normal"
	SkyColorTinted   = "sky_color_tinted"
	CloudColorNormal = "cloud_color_normal"
	FogColorNormal   = "fog_color_normal"
	LightingNormal   = "lighting_normal"
	LightingDim      = "lighting_dim"
	OreNaquadah      = "populate_ore_naquadah"
	OreTrinium       = "populate_ore_trinium"
)

// Providers returns fresh instances of every built-in provider.
func Providers() []*feature.Provider {
	return []*feature.Provider{
		feature.NewProvider(SunNormal, feature.Sun, normalSun.factories(), feature.AsDefault()),
		feature.NewProvider(SunBinaryDim, feature.Sun, dimSun.factories(), feature.WithWeight(25)),

		feature.NewProvider(MoonNormal, feature.Moon, normalMoon.factories()),
		feature.NewProvider(MoonLarge, feature.Moon, largeMoon.factories(), feature.WithWeight(40)),

		feature.NewProvider(BiomeSingleID, feature.BiomeLayout, biomeSingleFactories, feature.AsDefault(), feature.WithWeight(30)),
		feature.NewProvider(BiomeSizedID, feature.BiomeLayout, biomeSizedFactories),

		feature.NewProvider(WeatherRain, feature.Weather, rainFactories),
		feature.NewProvider(WeatherDrought, feature.Weather, droughtFactories,
			feature.WithWeight(60), feature.IncompatibleWith(WeatherRain)),
		feature.NewProvider(WeatherAsh, feature.Weather, ashFactories, feature.WithWeight(20)),

		feature.NewProvider(SkyColorNormal, feature.SkyColor, tintFactories(SkyBlue, 0, false), feature.AsDefault()),
		feature.NewProvider(SkyColorTinted, feature.SkyColor, tintFactories(SkyBlue, 0, true), feature.WithWeight(50)),
		feature.NewProvider(CloudColorNormal, feature.CloudColor, tintFactories(CloudWhite, 0.1, false), feature.AsDefault()),
		feature.NewProvider(FogColorNormal, feature.FogColor, tintFactories(FogBlue, 0.06, false), feature.AsDefault()),

		feature.NewProvider(LightingNormal, feature.Lighting, lightingFactories(0, 1), feature.AsDefault()),
		feature.NewProvider(LightingDim, feature.Lighting, lightingFactories(0.05, 0.6), feature.WithWeight(30)),

		feature.NewProvider(OreNaquadah, feature.Populate, naquadah.factories(), feature.WithWeight(2)),
		feature.NewProvider(OreTrinium, feature.Populate, trinium.factories(), feature.WithWeight(6)),
	}
}

// NewRegistry builds the registry of the built-in taxonomy with every built-in
// provider registered and closes it for registration.
func NewRegistry() (*feature.Registry, error) {
	reg := feature.NewRegistry(feature.DefaultTaxonomy())
	for _, p := range Providers() {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	reg.Freeze()
	return reg, nil
}
