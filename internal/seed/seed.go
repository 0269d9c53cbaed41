// Package seed loads the static client data the store is initialised from.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/dealroom/internal/clientstore"
	"github.com/starford/dealroom/internal/models"
)

//go:embed default.yaml
var defaultSeed []byte

// File is the on-disk layout of a seed file.
type File struct {
	Team    []models.TeamMember `yaml:"team"`
	Clients struct {
		Current     []models.Client `yaml:"current"`
		Archived    []models.Client `yaml:"archived"`
		Prospective []models.Client `yaml:"prospective"`
	} `yaml:"clients"`
}

// Default returns the built-in seed.
func Default() (clientstore.Seed, error) {
	return Parse(defaultSeed)
}

// Load reads the seed at path. An empty path selects the built-in seed.
func Load(path string) (clientstore.Seed, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return clientstore.Seed{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return clientstore.Seed{}, fmt.Errorf("seed: %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates seed YAML. Key contacts without an id are given
// one derived from the client id and their position, skipping ids already
// taken by another contact of the same client.
func Parse(data []byte) (clientstore.Seed, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return clientstore.Seed{}, fmt.Errorf("seed: parse: %w", err)
	}
	f.Clients.Current = normalize(f.Clients.Current)
	f.Clients.Archived = normalize(f.Clients.Archived)
	f.Clients.Prospective = normalize(f.Clients.Prospective)
	if err := f.Validate(); err != nil {
		return clientstore.Seed{}, fmt.Errorf("seed: validate: %w", err)
	}
	s := clientstore.Seed{
		Current:     f.Clients.Current,
		Archived:    f.Clients.Archived,
		Prospective: f.Clients.Prospective,
		Team:        f.Team,
	}
	return s, nil
}

func normalize(clients []models.Client) []models.Client {
	out := make([]models.Client, len(clients))
	for i, c := range clients {
		c = c.Clone()
		assignContactIDs(&c)
		out[i] = c
	}
	return out
}

func assignContactIDs(c *models.Client) {
	taken := make(map[string]struct{}, len(c.KeyContacts))
	for _, kc := range c.KeyContacts {
		if kc.ID != "" {
			taken[kc.ID] = struct{}{}
		}
	}
	for j := range c.KeyContacts {
		if c.KeyContacts[j].ID != "" {
			continue
		}
		for n := j + 1; ; n++ {
			id := c.ID + "-contact-" + strconv.Itoa(n)
			if _, ok := taken[id]; !ok {
				c.KeyContacts[j].ID = id
				taken[id] = struct{}{}
				break
			}
		}
	}
}

// Validate checks the seed for missing fields and duplicate ids. Client ids
// must be unique across all buckets because updates address a client by id
// alone.
func (f *File) Validate() error {
	seen := make(map[string]struct{})
	all := [][]models.Client{f.Clients.Current, f.Clients.Archived, f.Clients.Prospective}
	for _, list := range all {
		for i := range list {
			c := &list[i]
			if err := validateClient(c); err != nil {
				return fmt.Errorf("client %q: %w", c.ID, err)
			}
			if _, dup := seen[c.ID]; dup {
				return fmt.Errorf("duplicate client id %q", c.ID)
			}
			seen[c.ID] = struct{}{}
		}
	}
	members := make(map[string]struct{})
	for i := range f.Team {
		m := &f.Team[i]
		if err := validation.ValidateStruct(m,
			validation.Field(&m.ID, validation.Required),
			validation.Field(&m.Name, validation.Required),
		); err != nil {
			return fmt.Errorf("team member %q: %w", m.ID, err)
		}
		if _, dup := members[m.ID]; dup {
			return fmt.Errorf("duplicate team member id %q", m.ID)
		}
		members[m.ID] = struct{}{}
	}
	return nil
}

// validateClient adds the seed-only requirements of an id and a name to the
// record invariants.
func validateClient(c *models.Client) error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required),
	); err != nil {
		return err
	}
	return c.Validate()
}
