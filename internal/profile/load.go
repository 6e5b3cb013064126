package profile

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError is one schema violation in a profile.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// LoadFile reads a profile YAML file, fills unset fields from the
// surface's defaults, and validates the result against the CUE schema.
func LoadFile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	// First pass only to learn the surface, so defaults can be applied.
	var probe Profile
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if probe.Surface == "" {
		return Profile{}, fmt.Errorf("profile %s: surface is required", path)
	}

	p, err := Default(probe.Surface)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}

	// Second pass over the defaults: only keys present in the file override.
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}

	if errs := Validate(p); len(errs) > 0 {
		return Profile{}, fmt.Errorf("profile %s: %w", path, errs[0])
	}
	return p, nil
}

// Validate checks a profile against the embedded CUE schema.
// Returns all violations found (does not fail-fast).
func Validate(p Profile) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a programming
		// error, surfaced as a validation error rather than a panic.
		return []ValidationError{{Message: fmt.Sprintf("schema compile: %v", err)}}
	}

	def := schema.LookupPath(cue.ParsePath("#Profile"))
	if err := def.Err(); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("schema lookup: %v", err)}}
	}

	unified := def.Unify(ctx.Encode(p))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var out []ValidationError
		for _, e := range cueerrors.Errors(err) {
			field := ""
			if path := e.Path(); len(path) > 0 {
				field = path[len(path)-1]
			}
			out = append(out, ValidationError{Field: field, Message: e.Error()})
		}
		return out
	}
	return nil
}
