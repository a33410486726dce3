package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode converts loosely typed values (user data, begin args, values restored
// from JSON) into a typed struct. Field names follow the `json` tags and
// numbers are converted weakly, since stores return float64 for integers.
func Decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	return nil
}
