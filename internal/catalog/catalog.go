// File: internal/catalog/catalog.go
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs.yaml
var catalogsYAML []byte

// MaxPrefs is the number of preferences an operator may give.
const MaxPrefs = 3

// Catalog is the ordered, immutable list of event labels for one schedule week.
// Index 1 refers to the first label.
type Catalog struct {
	week   string
	labels []string
}

type catalogFile struct {
	Weeks []struct {
		Name   string   `yaml:"name"`
		Events []string `yaml:"events"`
	} `yaml:"weeks"`
}

// Weeks returns the known week names in file order.
func Weeks() ([]string, error) {
	file, err := decode(catalogsYAML)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(file.Weeks))
	for _, w := range file.Weeks {
		names = append(names, w.Name)
	}
	return names, nil
}

// Load returns the embedded catalog for the named week. The week name is
// matched case-insensitively after trimming.
func Load(week string) (*Catalog, error) {
	return parse(catalogsYAML, week)
}

func parse(data []byte, week string) (*Catalog, error) {
	file, err := decode(data)
	if err != nil {
		return nil, err
	}
	want := strings.ToUpper(strings.TrimSpace(week))
	for _, w := range file.Weeks {
		if strings.ToUpper(w.Name) != want {
			continue
		}
		if len(w.Events) == 0 {
			return nil, fmt.Errorf("catalog for week %s is empty", w.Name)
		}
		labels := make([]string, len(w.Events))
		copy(labels, w.Events)
		return &Catalog{week: strings.ToUpper(w.Name), labels: labels}, nil
	}
	return nil, fmt.Errorf("unknown week %q", week)
}

func decode(data []byte) (*catalogFile, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalogs: %w", err)
	}
	return &file, nil
}

// Week returns the upper-case week name.
func (c *Catalog) Week() string { return c.week }

// Len returns the number of events; valid indices are 1..Len().
func (c *Catalog) Len() int { return len(c.labels) }

// Label returns the label at the 1-based index.
func (c *Catalog) Label(index int) (string, bool) {
	if index < 1 || index > len(c.labels) {
		return "", false
	}
	return c.labels[index-1], true
}

// LabelOr returns the label at index, or fallback when out of range.
func (c *Catalog) LabelOr(index int, fallback string) string {
	if l, ok := c.Label(index); ok {
		return l
	}
	return fallback
}

// Print writes one "  NN: label" line per event.
func (c *Catalog) Print(w io.Writer) error {
	for i, label := range c.labels {
		if _, err := fmt.Fprintf(w, "  %02d: %s\n", i+1, label); err != nil {
			return err
		}
	}
	return nil
}

// ParsePrefs extracts up to MaxPrefs distinct, in-range indices from a
// comma-separated list, keeping first-seen order. Non-numeric and out of
// range entries are dropped silently.
func (c *Catalog) ParsePrefs(raw string) []int {
	out := make([]int, 0, MaxPrefs)
	seen := make(map[int]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if !isDigits(part) {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(c.labels) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) == MaxPrefs {
			break
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
