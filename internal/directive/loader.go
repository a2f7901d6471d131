package directive

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the directive format written by Marshal.
const CurrentVersion = "1"

// LoadFile loads and parses a YAML directive file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directive file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse directive YAML: %w", err)
	}

	if f.Version == "" {
		f.Version = CurrentVersion
	}

	if f.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported directive version %q", f.Version)
	}

	return &f, nil
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	if f.Version == "" {
		f.Version = CurrentVersion
	}

	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal directives: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write directive file %s: %w", path, err)
	}

	return nil
}

// Class returns the directive for the named class, or nil.
func (f *File) Class(name string) *ClassDirective {
	for i := range f.Classes {
		if f.Classes[i].Class == name {
			return &f.Classes[i]
		}
	}

	return nil
}

// Field returns the directive for the named field, or nil.
func (cd *ClassDirective) Field(name string) *FieldDirective {
	return findField(cd.Fields, name)
}

func findField(fields []FieldDirective, name string) *FieldDirective {
	for i := range fields {
		if fields[i].Field == name {
			return &fields[i]
		}
	}

	return nil
}
