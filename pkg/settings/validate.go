// Gamedock Core
// Copyright (c) 2026 The Gamedock Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedock Core.
//
// Gamedock Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedock Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedock Core.  If not, see <http://www.gnu.org/licenses/>.

package settings

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("bcp47", func(fl validator.FieldLevel) bool {
		_, err := language.Parse(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(err)
	}
	return v
}

// CanonicalLanguage returns the canonical BCP 47 form of tag, or tag itself
// if it does not parse.
func CanonicalLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return t.String()
}

// setField returns s with the JSON field key set to value. The result is
// validated; unknown keys and values of the wrong type are rejected.
func setField[S any](s S, key string, value any) (S, error) {
	m, err := toMap(s)
	if err != nil {
		return s, err
	}
	if _, ok := m[key]; !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	m[key] = value
	next, err := fromMap[S](m)
	if err != nil {
		return s, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}
	if err := validate.Struct(next); err != nil {
		return s, fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
	}
	return next, nil
}

// fieldValue returns the JSON form of a single field of s.
func fieldValue(s any, key string) (any, bool) {
	m, err := toMap(s)
	if err != nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}
