package config

type Config struct {
	ProjectPath     string
	ProjectDir      string
	OutputDir       string
	PropertiesPath  string
	Workers         int
	PixelsPerSecond float64
	CurveHeight     float64
	LiveCommit      bool
	Properties      map[string]Property
}

// New returns a Config carrying the built-in property table
func New() *Config {
	return &Config{
		ProjectDir:      "projects",
		OutputDir:       "output",
		Workers:         4,
		PixelsPerSecond: 100,
		CurveHeight:     100,
		Properties:      DefaultProperties(),
	}
}

// Property looks up a controllable property by name
func (c *Config) Property(name string) (Property, bool) {
	if c.Properties == nil {
		p, ok := DefaultProperties()[name]
		return p, ok
	}
	p, ok := c.Properties[name]
	return p, ok
}
