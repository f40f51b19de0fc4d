// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// structValidator returns the shared validator instance.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks tag constraints plus the cross-field rules tags cannot
// express.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("validator rejected config struct: %w", err)
		}
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			first := fields[0]
			return fmt.Errorf("field %s failed %q validation (value %v)",
				first.Namespace(), first.Tag(), first.Value())
		}
		return err
	}

	if c.Store.Backend == "badger" && c.Store.Path == "" {
		return errors.New("store.path is required for the badger backend")
	}

	if c.Shelves.Timezone != "" {
		if _, err := time.LoadLocation(c.Shelves.Timezone); err != nil {
			return fmt.Errorf("shelves.timezone %q: %w", c.Shelves.Timezone, err)
		}
	}

	if c.Shelves.MinGenreItems > c.Shelves.GenreShelfSize {
		return fmt.Errorf("shelves.min_genre_items (%d) exceeds shelves.genre_shelf_size (%d)",
			c.Shelves.MinGenreItems, c.Shelves.GenreShelfSize)
	}
	return nil
}

// Location resolves the configured timezone, defaulting to the local zone.
func (s ShelvesConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}
