package middleware

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ValidatorFunc checks a dispatch before its handler runs. The pattern
// itself already guarantees the shape of the command line; validators are
// for what it cannot express, such as files existing or options depending
// on each other.
type ValidatorFunc func(ctx Context) error

// Validator runs the validators registered through WithCustomValidators.
func Validator(options ...MiddlewareOption) Middleware {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return ValidatorWithCustom(config.CustomValidators)
}

// ValidatorWithCustom runs validators in name order before the handler. The
// map key is reported as the field of wrapped errors.
func ValidatorWithCustom(validators map[string]ValidatorFunc) Middleware {
	names := make([]string, 0, len(validators))
	for name := range validators {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			for _, name := range names {
				if err := validators[name](ctx); err != nil {
					var validationErr *ValidationError
					if errors.As(err, &validationErr) {
						return validationErr
					}
					return &ValidationError{
						Field:   name,
						Message: "validation failed",
						Cause:   err,
					}
				}
			}
			return next(ctx)
		}
	}
}

// NamedValidator associates a name with a ValidatorFunc for error reports.
type NamedValidator struct {
	Name string
	Fn   ValidatorFunc
}

// Custom names an arbitrary ValidatorFunc.
func Custom(name string, fn ValidatorFunc) NamedValidator {
	return NamedValidator{Name: name, Fn: fn}
}

// File checks that the arguments of the given options name existing files.
func File(forms ...string) NamedValidator {
	return NamedValidator{Name: "file_exists", Fn: FileExists(forms...)}
}

// Dir checks that the arguments of the given options name directories.
func Dir(forms ...string) NamedValidator {
	return NamedValidator{Name: "directory_exists", Fn: DirectoryExists(forms...)}
}

// Validate composes named validators into one middleware.
//
// Example:
//
//	app.Use(middleware.Validate(
//	    middleware.File("--config"),
//	    middleware.Custom("sources", middleware.EachValue(checkSource)),
//	))
func Validate(validators ...NamedValidator) Middleware {
	m := make(map[string]ValidatorFunc, len(validators))
	for _, v := range validators {
		if v.Name == "" || v.Fn == nil {
			continue
		}
		m[v.Name] = v.Fn
	}
	return ValidatorWithCustom(m)
}

// ConditionalRequired requires the given options whenever condition returns
// nil.
func ConditionalRequired(condition ValidatorFunc, forms ...string) ValidatorFunc {
	return func(ctx Context) error {
		if condition(ctx) != nil {
			return nil
		}
		var missing []string
		for _, form := range forms {
			if ctx.Count(form) == 0 {
				missing = append(missing, form)
			}
		}
		if len(missing) > 0 {
			return &ValidationError{
				Field:   strings.Join(missing, ", "),
				Message: fmt.Sprintf("options required when condition is met: %s", strings.Join(missing, ", ")),
			}
		}
		return nil
	}
}

// MutuallyExclusive rejects dispatches invoking more than one of forms.
func MutuallyExclusive(forms ...string) ValidatorFunc {
	return func(ctx Context) error {
		var seen []string
		for _, form := range forms {
			if ctx.Count(form) > 0 {
				seen = append(seen, form)
			}
		}
		if len(seen) > 1 {
			return &ValidationError{
				Field:   strings.Join(seen, ", "),
				Message: fmt.Sprintf("options cannot be combined: %s", strings.Join(seen, ", ")),
			}
		}
		return nil
	}
}

// OptionSet reports nil when the option named by form was invoked. It is
// meant as a ConditionalRequired condition.
func OptionSet(form string) ValidatorFunc {
	return func(ctx Context) error {
		if ctx.Count(form) == 0 {
			return errors.New(form + " not set")
		}
		return nil
	}
}

// FileExists checks that each given option, when invoked with an argument,
// names an existing regular file.
func FileExists(forms ...string) ValidatorFunc {
	return optionPaths(forms, validateFileExists, "file")
}

// DirectoryExists checks that each given option, when invoked with an
// argument, names an existing directory.
func DirectoryExists(forms ...string) ValidatorFunc {
	return optionPaths(forms, validateDirectoryExists, "directory")
}

func optionPaths(forms []string, check func(string) error, what string) ValidatorFunc {
	return func(ctx Context) error {
		for _, form := range forms {
			path, ok := ctx.Option(form)
			if !ok || path == "" {
				continue
			}
			if err := check(path); err != nil {
				return &ValidationError{
					Field:   form,
					Value:   path,
					Message: fmt.Sprintf("%s validation failed for option '%s'", what, form),
					Cause:   err,
				}
			}
		}
		return nil
	}
}

// EachValue applies fn to every bound value.
func EachValue(fn func(value string) error) ValidatorFunc {
	return func(ctx Context) error {
		for i, v := range ctx.Values() {
			if err := fn(v); err != nil {
				return &ValidationError{
					Field:   fmt.Sprintf("value %d", i+1),
					Value:   v,
					Message: fmt.Sprintf("invalid value %q", v),
					Cause:   err,
				}
			}
		}
		return nil
	}
}

// ValuesAreFiles checks that every bound value names an existing file.
func ValuesAreFiles() ValidatorFunc {
	return EachValue(validateFileExists)
}

func validateFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func validateDirectoryExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// NoopValidator performs no validation.
func NoopValidator() Middleware {
	return func(next ActionFunc) ActionFunc {
		return next
	}
}

// FileSystemValidator checks file and directory options.
func FileSystemValidator(fileForms, dirForms []string) Middleware {
	validators := make(map[string]ValidatorFunc)
	if len(fileForms) > 0 {
		validators["file_exists"] = FileExists(fileForms...)
	}
	if len(dirForms) > 0 {
		validators["directory_exists"] = DirectoryExists(dirForms...)
	}
	return ValidatorWithCustom(validators)
}

// WithCustomValidators adds validators to the config.
func WithCustomValidators(validators map[string]ValidatorFunc) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		if config.CustomValidators == nil {
			config.CustomValidators = make(map[string]ValidatorFunc)
		}
		for name, validator := range validators {
			config.CustomValidators[name] = validator
		}
	}
}
