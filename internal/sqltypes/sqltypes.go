package sqltypes

import (
	"fmt"
	"time"
)

const format = "2006-01-02 15:04:05.999999999-07:00"

type TimeScanner struct {
	Value *time.Time
}

func (t *TimeScanner) Scan(src interface{}) error {
	switch src := src.(type) {
	case time.Time:
		*t.Value = src
		return nil
	case string:
		v, err := time.Parse(format, src)
		if err != nil {
			return fmt.Errorf("sqltypes.TimeScanner: could not parse input value %q: %w", src, err)
		}
		*t.Value = v
		return nil
	default:
		return fmt.Errorf("sqltypes.TimeScanner: could not scan input type of %T", src)
	}
}

type TimePointerScanner struct {
	Value **time.Time
}

func (t *TimePointerScanner) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		*t.Value = nil
		return nil
	case time.Time:
		*t.Value = &src
		return nil
	case string:
		v, err := time.Parse(format, src)
		if err != nil {
			return fmt.Errorf("sqltypes.TimePointerScanner: could not parse input value %q: %w", src, err)
		}
		*t.Value = &v
		return nil
	default:
		return fmt.Errorf("sqltypes.TimePointerScanner: could not scan input type of %T", src)
	}
}
