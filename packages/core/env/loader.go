package env

import "fmt"

// Environment is a named variable set selected from a suite file
type Environment struct {
	Name      string
	Variables map[string]any
}

// LoadEnvironment picks name out of the environments declared by a suite. An
// empty name selects nothing; an unknown name is an error.
func LoadEnvironment(name string, environments map[string]map[string]any) (*Environment, error) {
	env := &Environment{
		Name:      name,
		Variables: make(map[string]any),
	}
	if name == "" {
		return env, nil
	}

	vars, ok := environments[name]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q", name)
	}
	for k, v := range vars {
		env.Variables[k] = v
	}
	return env, nil
}

// MergeVariables merges sources in order, later ones winning
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
