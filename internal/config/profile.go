package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Profile is the optional TOML file describing the practice that issues
// invoices. Example:
//
//	[issuer]
//	name = "Harbour Physiotherapy"
//	title = "Physiotherapy Invoice"
//	address = ["188 Shore Road", "Saturna Island, BC"]
//	email = "clinic@example.com"
//	phone = "604-555-0100"
//	default_notes = "For physiotherapy services rendered:"
//	footer = ["Thank you for your business"]
type Profile struct {
	Issuer IssuerProfile `toml:"issuer"`
}

// IssuerProfile is the "Bill from" block printed on every invoice.
type IssuerProfile struct {
	Name         string   `toml:"name"`
	Title        string   `toml:"title"`
	Address      []string `toml:"address"`
	Email        string   `toml:"email"`
	Phone        string   `toml:"phone"`
	DefaultNotes string   `toml:"default_notes"`
	Footer       []string `toml:"footer"`
}

// LoadProfile reads the TOML profile at path. An empty path or a missing
// file yields an empty profile.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("reading profile: %w", err)
	}

	if err := toml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}
