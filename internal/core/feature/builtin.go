package feature

// Capabilities required by the built-in taxonomy.
var (
	OrbitalCapability            = NewCapability[Orbital]("orbital-object")
	WeatherControllerCapability  = NewCapability[WeatherController]("weather-controller")
	ColorProviderCapability      = NewCapability[ColorProvider]("color-provider")
	LightingControllerCapability = NewCapability[LightingController]("lighting-controller")
	BiomeControllerCapability    = NewCapability[BiomeController]("biome-controller")
	PopulatorCapability          = NewCapability[Populator]("populator")
)

// The built-in taxonomy, in generation order.
var (
	Sun         = NewType("SUN", Singleton(), RequiresCapability(OrbitalCapability))
	Moon        = NewType("MOON", MaxCount(4), RequiresCapability(OrbitalCapability))
	BiomeLayout = NewType("BIOME_CONTROLLER", Singleton(), RequiresCapability(BiomeControllerCapability))
	Weather     = NewType("WEATHER_CONTROLLER", MaxCount(2), RequiresCapability(WeatherControllerCapability))
	SkyColor    = NewType("SKY_COLOR", Singleton(), RequiresCapability(ColorProviderCapability))
	CloudColor  = NewType("CLOUD_COLOR", Singleton(), RequiresCapability(ColorProviderCapability))
	FogColor    = NewType("FOG_COLOR", Singleton(), RequiresCapability(ColorProviderCapability))
	Lighting    = NewType("LIGHTING", Singleton(), RequiresCapability(LightingControllerCapability))
	Populate    = NewType("POPULATOR", Independent(), RequiresCapability(PopulatorCapability))
)

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(Sun, Moon, BiomeLayout, Weather, SkyColor, CloudColor, FogColor, Lighting, Populate)
}
