package types

// Config holds session-wide parameters. The zero value is not usable;
// call Defaults, then Validate.
type Config struct {
	PaperSize  string `json:"paper_size" yaml:"paper_size"`   // Export page geometry: "letter" or "a4".
	DefaultDPI int    `json:"default_dpi" yaml:"default_dpi"` // Assumed resolution when a device reports none.
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"` // Session catalog location; empty disables the catalog.
}

// Defaults fills unset fields with their default values.
func (c *Config) Defaults() {
	if c.PaperSize == "" {
		c.PaperSize = PaperLetter.Name
	}
	if c.DefaultDPI == 0 {
		c.DefaultDPI = 300
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if _, err := PaperSizeByName(c.PaperSize); err != nil {
		return err
	}
	if c.DefaultDPI <= 0 {
		return ErrInvalidDPI
	}
	return nil
}
