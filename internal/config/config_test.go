package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/db47h/circsim/internal/config"
	log "github.com/sirupsen/logrus"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	data := []struct {
		name    string
		content string
		check   func(c *config.Config) bool
		err     bool
	}{
		{"empty", "", func(c *config.Config) bool { return reflect.DeepEqual(c, config.Default()) }, false},
		{"partial", "clock:\n  frequency: 10\n  stop_on_error: true\n", func(c *config.Config) bool {
			return c.Clock.Frequency == 10 && c.Clock.StopOnError && c.Simulation.MaxIterations == config.DefaultMaxIterations
		}, false},
		{"full", `simulation:
  max_iterations: 100
clock:
  frequency: 4
history:
  limit: 20
log:
  level: debug
store:
  path: /tmp/x.db
`, func(c *config.Config) bool {
			return c.Simulation.MaxIterations == 100 && c.History.Limit == 20 &&
				c.LogLevel() == log.DebugLevel && c.Store.Path == "/tmp/x.db"
		}, false},
		{"unknown key", "clock:\n  speed: 3\n", nil, true},
		{"bad level", "log:\n  level: loud\n", nil, true},
		{"bad yaml", "clock: [\n", nil, true},
		{"fast clock", "clock:\n  frequency: 1000000000\n", nil, true},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			c, err := config.LoadFromPath(write(t, dir, d.name+".yaml", d.content))
			if d.err {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !d.check(c) {
				t.Fatalf("unexpected config %+v", c)
			}
		})
	}
}

func TestLoad_env(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "custom.yaml", "history:\n  limit: 7\n")
	t.Setenv(config.EnvConfigPath, path)
	c, p, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p != path || c.History.Limit != 7 {
		t.Fatalf("got %s %+v", p, c)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	c := config.Default()
	c.Clock.Frequency = 42
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Fatalf("expected %+v, got %+v", c, got)
	}
}
