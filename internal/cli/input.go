package cli

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pagewarden/internal/page"
)

// inputCommand is one parsed line of interactive input: either an input
// event for the page or a visibility change.
type inputCommand struct {
	event      *page.InputEvent
	visibility *bool
}

// parseInputLine parses "contextmenu", "selectstart", "keydown ctrl+shift+i",
// "hide" or "show".
func parseInputLine(line string) (inputCommand, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return inputCommand{}, fmt.Errorf("empty input line")
	}

	switch fields[0] {
	case "hide", "show":
		hidden := fields[0] == "hide"
		return inputCommand{visibility: &hidden}, nil
	case page.EventContextMenu, page.EventSelectStart:
		return inputCommand{event: &page.InputEvent{Type: fields[0]}}, nil
	case page.EventKeyDown:
		if len(fields) != 2 {
			return inputCommand{}, fmt.Errorf("keydown needs one key combo, got %q", line)
		}
		ev, err := parseCombo(fields[1])
		if err != nil {
			return inputCommand{}, err
		}
		return inputCommand{event: &ev}, nil
	}
	return inputCommand{}, fmt.Errorf("unknown input %q", fields[0])
}

// parseCombo turns "ctrl+shift+i" into a keydown event.
func parseCombo(combo string) (page.InputEvent, error) {
	ev := page.InputEvent{Type: page.EventKeyDown}
	parts := strings.Split(combo, "+")
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "ctrl":
			ev.Ctrl = true
		case "shift":
			ev.Shift = true
		case "alt":
			ev.Alt = true
		case "meta", "cmd":
			ev.Meta = true
		default:
			return page.InputEvent{}, fmt.Errorf("unknown modifier %q in %q", mod, combo)
		}
	}
	ev.Key = parts[len(parts)-1]
	if ev.Key == "" {
		return page.InputEvent{}, fmt.Errorf("missing key in %q", combo)
	}
	return ev, nil
}

func describeEvent(ev page.InputEvent) string {
	if ev.Type == page.EventKeyDown {
		return ev.Type + " " + ev.Combo()
	}
	return ev.Type
}
