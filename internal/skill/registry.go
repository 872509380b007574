package skill

import (
	"fmt"
	"regexp"
	"slices"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Registry is the immutable allow-list of commands, built once at startup.
type Registry struct {
	commands map[string]Command
	order    []string
}

// NewRegistry validates cmds and returns a registry preserving their order.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{commands: make(map[string]Command, len(cmds))}
	for _, cmd := range cmds {
		if err := validateCommand(cmd); err != nil {
			return nil, err
		}
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("skill %q already registered", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		r.order = append(r.order, cmd.Name)
	}
	return r, nil
}

func validateCommand(cmd Command) error {
	if !namePattern.MatchString(cmd.Name) {
		return fmt.Errorf("invalid skill name %q", cmd.Name)
	}
	switch cmd.Mode {
	case ModeInProcess:
		if cmd.Handler == nil {
			return fmt.Errorf("skill %q: in-process skill has no handler", cmd.Name)
		}
		if cmd.External != nil {
			return fmt.Errorf("skill %q: in-process skill must not declare an external entrypoint", cmd.Name)
		}
	case ModeExternal:
		if cmd.External == nil {
			return fmt.Errorf("skill %q: external skill has no entrypoint", cmd.Name)
		}
		if cmd.Handler != nil {
			return fmt.Errorf("skill %q: external skill must not declare a handler", cmd.Name)
		}
		if err := validateExternal(cmd.External); err != nil {
			return fmt.Errorf("skill %q: %w", cmd.Name, err)
		}
	default:
		return fmt.Errorf("skill %q: unknown mode %d", cmd.Name, cmd.Mode)
	}
	return nil
}

// Resolve looks name up in the allow-list. It never performs I/O.
func (r *Registry) Resolve(name string) (Command, error) {
	cmd, ok := r.commands[name]
	if !ok {
		return Command{}, &Error{Kind: KindNotFound, Skill: name, Err: ErrUnknownCommand}
	}
	return cmd, nil
}

// Has reports whether name is in the allow-list.
func (r *Registry) Has(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// All returns the commands in registration order.
func (r *Registry) All() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// Names returns the sorted command names.
func (r *Registry) Names() []string {
	names := slices.Clone(r.order)
	slices.Sort(names)
	return names
}

// External returns the external commands in registration order.
func (r *Registry) External() []Command {
	var out []Command
	for _, cmd := range r.All() {
		if cmd.Mode == ModeExternal {
			out = append(out, cmd)
		}
	}
	return out
}
