package workout

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Workouts []Definition `yaml:"workouts"`
}

// DecodeYAML reads a seed file of the form:
//
//	workouts:
//	  - name: Quick
//	    circuits: 2
//	    exercises:
//	      - {name: Jump, duration: 30}
//	      - {name: Rest, duration: 10}
//
// Every workout is passed through PrepareForSave.
func DecodeYAML(r io.Reader) ([]Definition, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode workouts yaml: %w", err)
	}

	out := make([]Definition, 0, len(f.Workouts))
	for i, d := range f.Workouts {
		prepared, err := PrepareForSave(d.Normalized())
		if err != nil {
			return nil, fmt.Errorf("workout #%d: %w", i+1, err)
		}
		out = append(out, prepared)
	}
	return out, nil
}

// EncodeYAML writes workouts in the DecodeYAML format.
func EncodeYAML(w io.Writer, workouts []Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlFile{Workouts: workouts}); err != nil {
		return fmt.Errorf("encode workouts yaml: %w", err)
	}
	return enc.Close()
}
