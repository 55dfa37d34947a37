package hdl_test

import (
	"reflect"
	"testing"

	"github.com/db47h/circsim/internal/hdl"
)

func TestParsePins(t *testing.T) {
	data := []struct {
		in   string
		want []hdl.Pin
		err  bool
	}{
		{"", nil, false},
		{"a", []hdl.Pin{{"a", 1, 0}}, false},
		{"in[2], sel", []hdl.Pin{{"in", 2, 0}, {"sel", 1, 7}}, false},
		{" a[32] ,b_2", []hdl.Pin{{"a", 32, 1}, {"b_2", 1, 8}}, false},
		{"a[0]", nil, true},
		{"a[33]", nil, true},
		{"a[", nil, true},
		{"a[4", nil, true},
		{"a b", nil, true},
		{"a, a", nil, true},
		{"a,", nil, true},
		{"4", nil, true},
	}
	for _, d := range data {
		t.Run(d.in, func(t *testing.T) {
			got, err := hdl.ParsePins(d.in)
			if d.err {
				if err == nil {
					t.Fatalf("expected an error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, d.want) {
				t.Fatalf("expected %v, got %v", d.want, got)
			}
		})
	}
}

func TestParseConns(t *testing.T) {
	data := []struct {
		in   string
		want []hdl.Conn
		err  bool
	}{
		{"", nil, false},
		{"in0=a, in1=b, out=s", []hdl.Conn{{"in0", "a", 0}, {"in1", "b", 7}, {"out", "s", 14}}, false},
		{"out = x", []hdl.Conn{{"out", "x", 0}}, false},
		{"in0", nil, true},
		{"in0=", nil, true},
		{"in0=a in1=b", nil, true},
		{"in0=a, in0=b", nil, true},
		{"in0=a[1]", nil, true},
		{"=a", nil, true},
	}
	for _, d := range data {
		t.Run(d.in, func(t *testing.T) {
			got, err := hdl.ParseConns(d.in)
			if d.err {
				if err == nil {
					t.Fatalf("expected an error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, d.want) {
				t.Fatalf("expected %v, got %v", d.want, got)
			}
		})
	}
}
