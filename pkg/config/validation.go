package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the loaded configuration against the struct validation
// tags plus the database rules the store owns.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, verr := range verrs {
				return fmt.Errorf("field %s: failed %q validation (value: %v)",
					verr.Namespace(), verr.Tag(), verr.Value())
			}
		}
		return err
	}
	return cfg.Database.Validate()
}
