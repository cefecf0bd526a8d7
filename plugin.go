package collections

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Aashil0828/collections/hashmap"
	"golang.org/x/mod/semver"
	yaml "gopkg.in/yaml.v3"
)

//go:embed plugin.yaml
var manifest []byte

// SemVer is the version triple reported to the host at load time.
type SemVer struct {
	Major uint8
	Minor uint16
	Patch uint32
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Hasher names accepted by the manifest.
const (
	HasherCity = "city"
	HasherXXH3 = "xxh3"
)

// Plugin describes the module to the host loader and how its
// containers are backed.
type Plugin struct {
	Name    string
	Author  string
	Version SemVer

	// Shards is the number of handle table shards.
	Shards int
	// SwissMap selects SwissTable shards over builtin maps.
	SwissMap bool
	// Hasher digests hash map keys, HasherCity or HasherXXH3.
	Hasher string
	// Seed is the HasherXXH3 seed.
	Seed uint64
}

// NewHasher returns the hash map key hasher selected by p.
func (p *Plugin) NewHasher() hashmap.Hasher {
	if p.Hasher == HasherXXH3 {
		return &hashmap.HasherXXH3{Seed: p.Seed}
	}
	return hashmap.CityHasher{}
}

type manifestFile struct {
	Name    string `yaml:"name"`
	Author  string `yaml:"author"`
	Version string `yaml:"version"`
	Shards  int    `yaml:"shards"`
	Swiss   *bool  `yaml:"swiss"`
	Hasher  string `yaml:"hasher"`
	Seed    uint64 `yaml:"seed"`
}

// ErrorIllegal is returned when the manifest can't be decoded.
type ErrorIllegal struct {
	Message string
}

func (e *ErrorIllegal) Error() string {
	return "illegal manifest: " + e.Message
}

// ErrorMissing is returned when a required manifest field is missing.
type ErrorMissing struct {
	Feature string
}

func (e *ErrorMissing) Error() string {
	return "missing " + e.Feature + " in manifest"
}

// Manifest returns the plugin description embedded at build time.
func Manifest() (*Plugin, error) {
	return ReadManifest(bytes.NewReader(manifest))
}

func ReadManifest(r io.Reader) (*Plugin, error) {
	var m manifestFile
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&m); err != nil {
		return nil, &ErrorIllegal{Message: err.Error()}
	}
	switch {
	case m.Name == "":
		return nil, &ErrorMissing{Feature: "name"}
	case m.Author == "":
		return nil, &ErrorMissing{Feature: "author"}
	case m.Version == "":
		return nil, &ErrorMissing{Feature: "version"}
	}
	v, err := parseVersion(m.Version)
	if err != nil {
		return nil, err
	}
	p := &Plugin{
		Name:     m.Name,
		Author:   m.Author,
		Version:  v,
		Shards:   m.Shards,
		SwissMap: true,
		Hasher:   m.Hasher,
		Seed:     m.Seed,
	}
	if m.Swiss != nil {
		p.SwissMap = *m.Swiss
	}
	switch {
	case p.Shards < 0:
		return nil, &ErrorIllegal{Message: fmt.Sprintf("shards must not be negative, got %d", p.Shards)}
	case p.Shards == 0:
		p.Shards = DefaultShards
	}
	switch p.Hasher {
	case "":
		p.Hasher = HasherCity
	case HasherCity, HasherXXH3:
	default:
		return nil, &ErrorIllegal{Message: fmt.Sprintf("unknown hasher %q", p.Hasher)}
	}
	if p.Seed != 0 && p.Hasher != HasherXXH3 {
		return nil, &ErrorIllegal{Message: "seed is only used by the xxh3 hasher"}
	}
	return p, nil
}

func parseVersion(s string) (SemVer, error) {
	c := "v" + s
	if !semver.IsValid(c) || semver.Canonical(c) != c ||
		semver.Prerelease(c) != "" || semver.Build(c) != "" {
		return SemVer{}, &ErrorIllegal{
			Message: fmt.Sprintf("version %q is not a major.minor.patch triple", s),
		}
	}
	parts := strings.SplitN(s, ".", 3)
	major, errMajor := strconv.ParseUint(parts[0], 10, 8)
	minor, errMinor := strconv.ParseUint(parts[1], 10, 16)
	patch, errPatch := strconv.ParseUint(parts[2], 10, 32)
	if errMajor != nil || errMinor != nil || errPatch != nil {
		return SemVer{}, &ErrorIllegal{
			Message: fmt.Sprintf("version %q out of range", s),
		}
	}
	return SemVer{
		Major: uint8(major),
		Minor: uint16(minor),
		Patch: uint32(patch),
	}, nil
}
