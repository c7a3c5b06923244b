package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeOptions decodes the free-form llm.options map into a provider's typed
// options struct. target must be a pointer. Fields use `yaml` tag names.
func DecodeOptions(options map[string]interface{}, target interface{}) error {
	if len(options) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("failed to decode llm options: %w", err)
	}
	return nil
}
