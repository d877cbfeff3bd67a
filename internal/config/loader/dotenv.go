package loader

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DotEnvLoader reads a .env file and maps its prefixed variables like the
// process environment. The file does not modify the environment.
type DotEnvLoader struct {
	path string
	env  *EnvLoader
}

// NewDotEnvLoader creates a loader for the .env file at path.
func NewDotEnvLoader(path, prefix string) *DotEnvLoader {
	return &DotEnvLoader{path: path, env: NewEnvLoader(prefix)}
}

// Load implements Loader. A missing file yields nil, nil.
func (l *DotEnvLoader) Load() (map[string]any, error) {
	vars, err := godotenv.Read(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ParseError{Path: l.path, Message: err.Error(), Err: fmt.Errorf("dotenv: %w", err)}
	}
	return l.env.FromMap(vars), nil
}
