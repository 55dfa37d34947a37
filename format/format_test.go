package format_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/circsim/format"
)

const halfAdder = `version: "1.0"
clock_speed: 4
circuits:
  - name: half adder
    components:
      - kind: PIN
        x: 0
        y: 0
        properties:
          label: a
      - kind: PIN
        x: 0
        y: 4
        properties:
          label: b
      - kind: XOR
        x: 10
        y: 0
    wires:
      - x: 2
        y: 1
        length: 8
        horizontal: true
`

func TestDecode(t *testing.T) {
	f, err := format.Decode(strings.NewReader(halfAdder))
	if err != nil {
		t.Fatal(err)
	}
	if f.ClockSpeed != 4 || len(f.Circuits) != 1 {
		t.Fatalf("bad file %+v", f)
	}
	c := f.Circuits[0]
	if c.Name != "half adder" || len(c.Components) != 3 || len(c.Wires) != 1 {
		t.Fatalf("bad circuit %+v", c)
	}
	if p := c.Components[1]; p.Kind != "PIN" || p.Y != 4 || p.Properties["label"] != "b" {
		t.Fatalf("bad component %+v", p)
	}
	if w := c.Wires[0]; w != (format.Wire{X: 2, Y: 1, Length: 8, Horizontal: true}) {
		t.Fatalf("bad wire %+v", w)
	}
}

func TestDecode_errors(t *testing.T) {
	for _, s := range []string{
		"circuits: []\n",
		"version: \"1.0\"\nbogus: 1\n",
		"version: [\n",
	} {
		if _, err := format.Decode(strings.NewReader(s)); err == nil {
			t.Errorf("expected error decoding %q", s)
		}
	}
}

func TestWriteFile(t *testing.T) {
	f, err := format.Decode(strings.NewReader(halfAdder))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ha.yaml")
	if err = format.WriteFile(path, f); err != nil {
		t.Fatal(err)
	}
	g, err := format.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Circuits[0].Components) != 3 || g.Circuits[0].Components[2].Kind != "XOR" {
		t.Fatalf("bad file read back: %+v", g)
	}
}
