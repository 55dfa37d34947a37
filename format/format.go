// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package format defines the persistence and clipboard representation of
// circuits: plain data, no behavior. Files are encoded as YAML.
//
package format

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Version is the current file format version.
//
const Version = "1.0"

// A File is a whole project: an ordered list of circuits plus global
// simulation settings.
//
type File struct {
	Version       string    `yaml:"version"`
	ClockSpeed    int       `yaml:"clock_speed,omitempty"`
	GlobalBitSize int       `yaml:"global_bit_size,omitempty"`
	Circuits      []Circuit `yaml:"circuits"`
}

// A Circuit is a named set of components and wires.
//
type Circuit struct {
	Name       string      `yaml:"name"`
	Components []Component `yaml:"components,omitempty"`
	Wires      []Wire      `yaml:"wires,omitempty"`
}

// A Component is placed at grid position (X, Y). Kind is the stable kind
// identifier. For subcircuits, the "circuit" property names the nested
// circuit.
//
type Component struct {
	Kind       string            `yaml:"kind"`
	X          int               `yaml:"x"`
	Y          int               `yaml:"y"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// A Wire is a horizontal or vertical segment starting at (X, Y).
//
type Wire struct {
	X          int  `yaml:"x"`
	Y          int  `yaml:"y"`
	Length     int  `yaml:"length"`
	Horizontal bool `yaml:"horizontal"`
}

// Decode reads a File from r.
//
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "parse circuit file")
	}
	if f.Version == "" {
		return nil, errors.New("parse circuit file: missing version")
	}
	return &f, nil
}

// Encode writes f to w.
//
func Encode(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return errors.Wrap(err, "encode circuit file")
	}
	return enc.Close()
}

// Marshal returns the YAML encoding of f.
//
func Marshal(f *File) ([]byte, error) {
	var b bytes.Buffer
	if err := Encode(&b, f); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Unmarshal decodes a File from data.
//
func Unmarshal(data []byte) (*File, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile reads the file at path.
//
func ReadFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "read circuit file")
	}
	defer r.Close()
	return Decode(r)
}

// WriteFile writes f to path.
//
func WriteFile(path string, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write circuit file")
}
