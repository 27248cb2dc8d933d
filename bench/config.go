// Package bench runs renderer benchmark suites: every configured renderer
// against every configured scene, with results collected into a report and
// written as JSON or CSV.
package bench

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/renderscope-dev/renderscope/render"
)

// EnvSuitePath overrides the suite config search path.
const EnvSuitePath = "RENDERSCOPE_SUITE"

var defaultSuitePaths = []string{"renderscope.yaml", "bench.yaml"}

// Suite configures one benchmark run.
type Suite struct {
	Name string `yaml:"name"`
	// Renderers is the set to benchmark; empty means every installed
	// renderer.
	Renderers []string        `yaml:"renderers"`
	Scenes    []string        `yaml:"scenes"`
	Settings  render.Settings `yaml:"settings"`
	// Repeat is the number of runs per renderer/scene pair.
	Repeat    int    `yaml:"repeat"`
	OutputDir string `yaml:"output_dir"`
	// Formats selects report writers: "json", "csv".
	Formats []string `yaml:"formats"`
}

// DefaultSuite returns the baseline configuration.
func DefaultSuite() Suite {
	return Suite{
		Name:      "default",
		Settings:  render.DefaultSettings(),
		Repeat:    1,
		OutputDir: "renders",
		Formats:   []string{"json"},
	}
}

// LoadSuite reads a suite config. An empty path searches
// $RENDERSCOPE_SUITE, then renderscope.yaml and bench.yaml in the working
// directory; if none exists the default suite is returned.
func LoadSuite(path string) (Suite, error) {
	if path == "" {
		path = os.Getenv(EnvSuitePath)
	}
	if path == "" {
		for _, candidate := range defaultSuitePaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	suite := DefaultSuite()
	if path == "" {
		return suite, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return suite, fmt.Errorf("read suite config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return suite, fmt.Errorf("parse suite config %s: %w", path, err)
	}
	if suite.Repeat <= 0 {
		suite.Repeat = 1
	}
	if suite.OutputDir == "" {
		suite.OutputDir = "renders"
	}
	if len(suite.Formats) == 0 {
		suite.Formats = []string{"json"}
	}
	return suite, nil
}
