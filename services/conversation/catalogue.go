package conversation

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// Option is one selectable entry of a step.
type Option struct {
	ID          string   `yaml:"id"`
	Reply       string   `yaml:"reply"` // interactive reply id
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Custom      bool     `yaml:"custom"`
	Aliases     []string `yaml:"aliases"`
}

// Label is the text shown to the user for the option.
func (o Option) Label() string {
	if o.Title != "" {
		return o.Title
	}
	if o.Name != "" {
		return o.Name
	}
	return o.ID
}

// Catalogue is the declarative source of every selection the conversation offers.
type Catalogue struct {
	Greetings []string `yaml:"greetings"`
	Restart   struct {
		Exact   []string `yaml:"exact"`
		Phrases []string `yaml:"phrases"`
	} `yaml:"restart"`
	Consent    []Option `yaml:"consent"`
	Categories []Option `yaml:"categories"`
	Services   []Option `yaml:"services"`
	Slot       struct {
		ButtonPrefixes []string `yaml:"buttonPrefixes"`
	} `yaml:"slot"`
	Location []Option `yaml:"location"`
	Summary  []Option `yaml:"summary"`
}

// LoadCatalogue parses the embedded catalogue.
func LoadCatalogue() (*Catalogue, error) {
	return ParseCatalogue(catalogueYAML)
}

// ParseCatalogue parses a catalogue document and checks that every option
// carries both ids.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	groups := map[string][]Option{
		"consent":    c.Consent,
		"categories": c.Categories,
		"services":   c.Services,
		"location":   c.Location,
		"summary":    c.Summary,
	}
	for name, opts := range groups {
		if len(opts) == 0 {
			return nil, fmt.Errorf("catalogue section %q is empty", name)
		}
		for i, o := range opts {
			if o.ID == "" || o.Reply == "" {
				return nil, fmt.Errorf("catalogue section %q entry %d needs an id and a reply id", name, i)
			}
		}
	}
	return &c, nil
}

// Category looks up a category by canonical id.
func (c *Catalogue) Category(id string) (Option, bool) {
	return find(c.Categories, id)
}

// Service looks up a service type by canonical id.
func (c *Catalogue) Service(id string) (Option, bool) {
	return find(c.Services, id)
}

func find(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
