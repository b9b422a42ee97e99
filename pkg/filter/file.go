package filter

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mwolter/assetdump/pkg/errors"
)

// profileFile is the on-disk TOML shape of a profile:
//
//	fields = [
//	  "Foo.name",
//	  "Baz.x",
//	]
type profileFile struct {
	Fields []string `toml:"fields"`
}

// Load reads a TOML profile file and builds a Profile from its entries.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read profile %s", path)
	}
	return Parse(data)
}

// Parse builds a Profile from TOML bytes.
func Parse(data []byte) (*Profile, error) {
	var file profileFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProfile, err, "parse profile")
	}
	return New(file.Fields)
}
