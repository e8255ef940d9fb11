package types

import "math"

// Device option value types, mirroring what feeder hardware typically
// reports. Fixed values travel as float64 on the Go side; drivers that
// speak 16.16 fixed point convert at the boundary.
const (
	OptionBool   = "bool"
	OptionInt    = "int"
	OptionFixed  = "fixed"
	OptionString = "string"
	OptionButton = "button"
	OptionGroup  = "group"
)

// Option describes one device-reported configuration option.
type Option struct {
	Name       string      // Machine name, the Configure key.
	Title      string      // Human-readable label.
	Desc       string      // Longer description.
	Type       string      // One of the Option type constants.
	Settable   bool        // False when only adjustable on the hardware itself.
	Inactive   bool        // True when another option must change first.
	Constraint *Constraint // Nil when the value is unconstrained.
}

// Constraint limits the values an option accepts. Exactly one of the
// three forms is populated.
type Constraint struct {
	// Numeric range for int and fixed options. Step of 0 means any
	// value inside the range.
	Min, Max, Step float64
	HasRange       bool

	// Allowed values for int options.
	Words []int

	// Allowed values for string options.
	Strings []string
}

// CheckValue validates a candidate value against the option's type and
// constraint. Returns ErrOptionNotSettable for hardware-only options,
// ErrInvalidOptionValue on a type or constraint mismatch.
func (o Option) CheckValue(value any) error {
	if !o.Settable {
		return ErrOptionNotSettable
	}

	switch o.Type {
	case OptionBool:
		if _, ok := value.(bool); !ok {
			return ErrInvalidOptionValue
		}
		return nil
	case OptionInt:
		n, ok := IntValue(value)
		if !ok {
			return ErrInvalidOptionValue
		}
		return o.checkNumeric(float64(n))
	case OptionFixed:
		f, ok := toFloat(value)
		if !ok {
			return ErrInvalidOptionValue
		}
		return o.checkNumeric(f)
	case OptionString:
		s, ok := value.(string)
		if !ok {
			return ErrInvalidOptionValue
		}
		if o.Constraint == nil || len(o.Constraint.Strings) == 0 {
			return nil
		}
		for _, allowed := range o.Constraint.Strings {
			if s == allowed {
				return nil
			}
		}
		return ErrInvalidOptionValue
	case OptionButton:
		// Buttons carry no value; any non-nil payload is a mistake.
		if value != nil {
			return ErrInvalidOptionValue
		}
		return nil
	default:
		// Groups and unknown types take no value.
		return ErrInvalidOptionValue
	}
}

func (o Option) checkNumeric(v float64) error {
	c := o.Constraint
	if c == nil {
		return nil
	}
	if len(c.Words) > 0 {
		for _, w := range c.Words {
			if v == float64(w) {
				return nil
			}
		}
		return ErrInvalidOptionValue
	}
	if c.HasRange {
		if v < c.Min || v > c.Max {
			return ErrInvalidOptionValue
		}
		if c.Step > 0 {
			steps := (v - c.Min) / c.Step
			if math.Abs(steps-math.Round(steps)) > 1e-9 {
				return ErrInvalidOptionValue
			}
		}
	}
	return nil
}

// IntValue widens any integer kind an int option accepts. Drivers use
// it to read validated Configure values, so a value CheckValue accepts
// never fails here.
func IntValue(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(value any) (float64, bool) {
	switch f := value.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	default:
		return 0, false
	}
}
