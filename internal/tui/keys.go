package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

func newKey(help string, keys ...string) Key {
	return Key{Keys: keys, Help: help, Enabled: true}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}
	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	// Navigation
	Up   Key
	Down Key
	Back Key

	// Global actions
	Quit   Key
	Help   Key
	Save   Key
	Pause  Key
	Faster Key
	Slower Key

	// Function keys for module navigation
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F5  Key
	F6  Key
	F7  Key
	F8  Key
	F10 Key

	// Player movement on the node view
	MoveNorth Key
	MoveSouth Key
	MoveWest  Key
	MoveEast  Key

	// View actions
	Mine     Key
	Place    Key
	Toggle   Key
	Recipe   Key
	Detach   Key
	New      Key
	Cancel   Key
	Clear    Key
	Build    Key
	Complete Key
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:   newKey("up", "up", "k"),
		Down: newKey("down", "down", "j"),
		Back: newKey("back", "esc", "backspace"),

		Quit:   newKey("quit", "q", "ctrl+c"),
		Help:   newKey("help", "?", "f1"),
		Save:   newKey("save", "ctrl+s"),
		Pause:  newKey("pause", "ctrl+p"),
		Faster: newKey("faster", "+", "="),
		Slower: newKey("slower", "-"),

		F1:  newKey("Help", "f1"),
		F2:  newKey("Dashboard", "f2"),
		F3:  newKey("Inventory", "f3"),
		F4:  newKey("Nodes", "f4"),
		F5:  newKey("Machines", "f5"),
		F6:  newKey("Crafting", "f6"),
		F7:  newKey("Milestones", "f7"),
		F8:  newKey("Build", "f8"),
		F10: newKey("Quit", "f10"),

		MoveNorth: newKey("north", "w"),
		MoveSouth: newKey("south", "s"),
		MoveWest:  newKey("west", "a"),
		MoveEast:  newKey("east", "d"),

		Mine:     newKey("mine", "m"),
		Place:    newKey("place", "p"),
		Toggle:   newKey("pause/resume", "p"),
		Recipe:   newKey("recipe", "r"),
		Detach:   newKey("detach", "u"),
		New:      newKey("new", "n"),
		Cancel:   newKey("cancel", "x"),
		Clear:    newKey("clear", "c"),
		Build:    newKey("build", "enter", "b"),
		Complete: newKey("complete", "enter", "c"),
	}
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.Quit, km.F10)
}

// FunctionKeyModule returns the module for a function key.
func (km KeyMap) FunctionKeyModule(msg tea.KeyMsg) (Module, bool) {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp, true
	case km.F2.Matches(msg):
		return ModuleDashboard, true
	case km.F3.Matches(msg):
		return ModuleInventory, true
	case km.F4.Matches(msg):
		return ModuleNodes, true
	case km.F5.Matches(msg):
		return ModuleMachines, true
	case km.F6.Matches(msg):
		return ModuleCrafting, true
	case km.F7.Matches(msg):
		return ModuleMilestones, true
	case km.F8.Matches(msg):
		return ModuleBuild, true
	default:
		return "", false
	}
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp(width int) string {
	if width < int(BreakpointMedium) {
		return "F1 Help F2-F8 Views ^S Save F10 Quit"
	}
	return "[F1]Help [F2]Dash [F3]Inv [F4]Nodes [F5]Mach [F6]Craft [F7]Goals [F8]Build [^S]Save [^P]Pause [F10]Quit"
}
