// Package dataset reads and writes seed files of users and friendships.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/socialnet/internal/service"
)

// ErrUnsupportedFormat is returned for file extensions other than .json,
// .yaml and .yml.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Dataset contains the users and friendships of a seed file.
type Dataset struct {
	Users       []service.UserInput       `json:"users" yaml:"users"`
	Friendships []service.FriendshipInput `json:"friendships" yaml:"friendships"`
}

// Format is the encoding of a dataset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads the dataset file at path.
func Load(path string) (Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Dataset{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	ds, err := Decode(file, format)
	if err != nil {
		return Dataset{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return ds, nil
}

// Decode reads a dataset from r. Unknown fields are rejected.
func Decode(r io.Reader, format Format) (Dataset, error) {
	var ds Dataset
	switch format {
	case FormatJSON:
		decoder := json.NewDecoder(r)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&ds); err != nil {
			return Dataset{}, err
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
			return Dataset{}, err
		}
	default:
		return Dataset{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return ds, nil
}

// Encode writes ds to w.
func Encode(w io.Writer, ds Dataset, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ds)
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(ds); err != nil {
			return err
		}
		if err := encoder.Close(); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Write serialises ds into path, creating parent directories as needed.
func Write(ds Dataset, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := Encode(file, ds, format); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
