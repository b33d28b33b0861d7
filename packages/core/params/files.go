package params

import (
	"io"
	"io/fs"
	"os"
	"strings"
)

// File access schemes of a parameter file reference.
const (
	SchemeNone      = ""
	SchemeFile      = "file"
	SchemeClasspath = "classpath"
)

// DataMapper turns the content of a parameter file into rows.
type DataMapper interface {
	Map(r io.Reader) ([]Row, error)
}

// MapperFunc adapts a function to DataMapper.
type MapperFunc func(r io.Reader) ([]Row, error)

func (f MapperFunc) Map(r io.Reader) ([]Row, error) { return f(r) }

// MapperFactory builds a mapper for a mapper name. The argument is whatever
// follows the first ':' of the name, so "json:data.rows" passes "data.rows".
type MapperFactory func(arg string) (DataMapper, error)

// ParseFileRef splits "[scheme:]path". A reference without ':' is a plain
// filesystem path.
func ParseFileRef(ref string) (scheme, path string, err error) {
	idx := strings.Index(ref, ":")
	if idx < 0 {
		return SchemeNone, ref, nil
	}
	scheme, path = ref[:idx], ref[idx+1:]
	switch scheme {
	case SchemeFile, SchemeClasspath:
		return scheme, path, nil
	default:
		return "", "", &UnsupportedSchemeError{Scheme: scheme, Path: ref}
	}
}

// Opener opens the reader of a parameter file reference.
type Opener struct {
	// Resources backs the classpath: scheme.
	Resources fs.FS
}

// Open returns a reader for ref. file: and bare paths are read from the
// filesystem, classpath: paths from Resources.
func (o *Opener) Open(ref string) (io.ReadCloser, error) {
	scheme, path, err := ParseFileRef(ref)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case SchemeClasspath:
		if o.Resources == nil {
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
		}
		return o.Resources.Open(strings.TrimPrefix(path, "/"))
	default:
		return os.Open(path)
	}
}
