package cli

import (
	"github.com/ppiankov/pagewarden/internal/config"
	"github.com/ppiankov/pagewarden/internal/storage"
)

// control bundles what the status, config and mode commands operate on.
type control struct {
	store    *storage.Store
	resolved config.Resolved
	*config.Control
}

// openControl loads settings, opens local storage for the page origin and
// resolves the policy for location.
func openControl(location string) (*control, error) {
	settings, err := config.LoadSettings(rootConfigPath)
	if err != nil {
		return nil, err
	}

	path := rootStoragePath
	if path == "" {
		path = storage.DefaultPath()
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	area := store.Area(storage.OriginOf(location))
	resolved := config.Resolve(config.Inputs{
		Settings: settings,
		Stored:   area,
		Location: location,
	})
	return &control{
		store:    store,
		resolved: resolved,
		Control:  config.NewControl(area, resolved),
	}, nil
}

func (c *control) Close() error {
	return c.store.Close()
}
