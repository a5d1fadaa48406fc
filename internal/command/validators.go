// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"slices"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// OneOf accepts only the listed string values.
func OneOf(valid ...string) FlagValidatorType {
	return func(value any) error {
		s, ok := value.(string)
		if !ok || !slices.Contains(valid, s) {
			return fmt.Errorf("must be one of %v", valid)
		}
		return nil
	}
}

// NonNegative rejects values below zero.
func NonNegative(value int) error {
	if value < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// Positive rejects values below one.
func Positive(value int) error {
	if value < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}
