package extract

// MVCPackage is the import path of the server-side marker types.
const MVCPackage = "github.com/broady/ctrlgen/mvc"

// Config names the well-known types the extractor recognizes. All names are
// qualified ("import/path.Name").
type Config struct {
	// ControllerBase is the type whose descendants are controllers.
	ControllerBase string `yaml:"controllerBase" validate:"required"`

	// TypedResult is the single-argument generic result wrapper.
	TypedResult string `yaml:"typedResult" validate:"required"`

	// VoidMarker is the untyped result marker meaning "no payload".
	VoidMarker string `yaml:"voidMarker" validate:"required"`

	// ContextType is the request context parameter type; such parameters
	// are supplied by the transport and are not action inputs.
	ContextType string `yaml:"contextType"`

	// NameSuffix is stripped from class names to form controller names.
	NameSuffix string `yaml:"nameSuffix"`
}

// DefaultConfig returns the names exported by package mvc.
func DefaultConfig() Config {
	return Config{
		ControllerBase: MVCPackage + ".ControllerBase",
		TypedResult:    MVCPackage + ".ActionResult",
		VoidMarker:     MVCPackage + ".Result",
		ContextType:    "context.Context",
		NameSuffix:     "Controller",
	}
}

// WithDefaults returns c with empty fields taken from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ControllerBase == "" {
		c.ControllerBase = d.ControllerBase
	}
	if c.TypedResult == "" {
		c.TypedResult = d.TypedResult
	}
	if c.VoidMarker == "" {
		c.VoidMarker = d.VoidMarker
	}
	if c.ContextType == "" {
		c.ContextType = d.ContextType
	}
	if c.NameSuffix == "" {
		c.NameSuffix = d.NameSuffix
	}
	return c
}
