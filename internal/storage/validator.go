package storage

import (
	"errors"
)

func (o *SelectOptions) validate() error {
	if o.Offset < 0 {
		return errors.New("storage: offset cannot be negative")
	}
	if o.Limit < 0 {
		// negative means everything
		o.Limit = 0
	}
	return nil
}
