package rotation

import (
	"context"
	"fmt"

	"blogpilot/internal/domain"
	"blogpilot/internal/ports"
)

// ConfigRoster serves immutable roster snapshots loaded at construction.
// Order is preserved exactly as configured, which the rotation arithmetic
// depends on.
type ConfigRoster struct {
	rosters map[string][]domain.Author
}

var _ ports.RosterProvider = (*ConfigRoster)(nil)

// NewConfigRoster copies the given per-blog rosters.
func NewConfigRoster(rosters map[string][]domain.Author) *ConfigRoster {
	copied := make(map[string][]domain.Author, len(rosters))
	for blog, authors := range rosters {
		copied[blog] = append([]domain.Author(nil), authors...)
	}
	return &ConfigRoster{rosters: copied}
}

// Roster returns a fresh copy of the configured roster for the blog.
func (c *ConfigRoster) Roster(ctx context.Context, blogID string) ([]domain.Author, error) {
	authors, ok := c.rosters[blogID]
	if !ok || len(authors) == 0 {
		return nil, fmt.Errorf("no roster configured for blog %s", blogID)
	}
	return append([]domain.Author(nil), authors...), nil
}
