package provider

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// NormalizeConfig returns a copy of config where every alias is stored under its
// canonical key. A canonical key already present wins over its aliases.
func NormalizeConfig(config map[string]string, fields []ConfigField) map[string]string {
	out := make(map[string]string, len(config))
	for k, v := range config {
		out[k] = v
	}

	for _, field := range fields {
		if strings.TrimSpace(out[field.Key]) != "" {
			continue
		}
		for _, alias := range field.Aliases {
			if v := strings.TrimSpace(config[alias]); v != "" {
				out[field.Key] = v
				break
			}
		}
	}

	return out
}

// ValidateConfigFields validates configuration against provided field definitions
func ValidateConfigFields(providerName string, config map[string]string, fields []ConfigField) error {
	for _, field := range fields {
		value, exists := config[field.Key]
		if strings.TrimSpace(value) == "" {
			if !field.Required {
				continue
			}
			if !exists {
				return fmt.Errorf("%s: required field '%s' is missing", providerName, field.Key)
			}
			return fmt.Errorf("%s: required field '%s' cannot be empty", providerName, field.Key)
		}

		if err := validateFieldType(providerName, field, value); err != nil {
			return err
		}

		if err := validateFieldPattern(providerName, field, value); err != nil {
			return err
		}

		if err := validateFieldLength(providerName, field, value); err != nil {
			return err
		}
	}

	return nil
}

// SplitList splits a comma separated option into trimmed, non-empty items
func SplitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// validateFieldType validates field based on its type
func validateFieldType(providerName string, field ConfigField, value string) error {
	switch field.Type {
	case "boolean":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s: field '%s' must be 'true' or 'false'", providerName, field.Key)
		}
	case "enum":
		if !slices.Contains(field.OneOf, value) {
			return fmt.Errorf("%s: field '%s' must be one of: %s", providerName, field.Key, strings.Join(field.OneOf, ", "))
		}
	case "list":
		if len(SplitList(value)) == 0 {
			return fmt.Errorf("%s: field '%s' must list at least one value", providerName, field.Key)
		}
	}
	return nil
}

// validateFieldPattern validates field against regex pattern
func validateFieldPattern(providerName string, field ConfigField, value string) error {
	if field.Pattern == "" {
		return nil
	}

	matched, err := regexp.MatchString(field.Pattern, value)
	if err != nil {
		return fmt.Errorf("%s: invalid pattern for field '%s': %v", providerName, field.Key, err)
	}

	if !matched {
		return fmt.Errorf("%s: field '%s' does not match required pattern", providerName, field.Key)
	}

	return nil
}

// validateFieldLength validates field length constraints
func validateFieldLength(providerName string, field ConfigField, value string) error {
	if field.MinLength > 0 && len(value) < field.MinLength {
		return fmt.Errorf("%s: field '%s' must be at least %d characters", providerName, field.Key, field.MinLength)
	}

	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return fmt.Errorf("%s: field '%s' must not exceed %d characters", providerName, field.Key, field.MaxLength)
	}

	return nil
}
