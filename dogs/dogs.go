// Package dogs holds the adoption catalogue served by the dogs demo.
package dogs

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

type (
	Dog struct {
		Name        string `json:"name"`
		Breed       string `json:"breed"`
		Age         int    `json:"age"`
		Description string `json:"description"`
	}

	Catalogue struct {
		dogs   []Dog
		byName map[string]int
	}
)

var (
	//go:embed catalogue.json
	catalogueJSON []byte
)

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueJSON)
}

func Parse(buf []byte) (*Catalogue, error) {
	var dogs []Dog
	if err := json.Unmarshal(buf, &dogs); err != nil {
		return nil, fmt.Errorf("dogs: unable to parse catalogue, cause %w", err)
	}
	c := &Catalogue{dogs: dogs, byName: make(map[string]int, len(dogs))}
	for i, d := range dogs {
		c.byName[strings.ToLower(d.Name)] = i
	}
	return c, nil
}

func (c *Catalogue) List() []Dog {
	out := make([]Dog, len(c.dogs))
	copy(out, c.dogs)
	return out
}

// Find looks a dog up by name, ignoring case.
func (c *Catalogue) Find(name string) (Dog, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Dog{}, false
	}
	return c.dogs[i], true
}
