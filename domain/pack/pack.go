// Package pack groups related tools into installable bundles. A run
// assembles its gateway registry from packs; which roles may invoke which
// tools is decided by role capability grants, not by the pack.
package pack

import (
	"errors"

	"github.com/helixforge/labrun/domain/tool"
)

// ErrEmptyName indicates a pack was created without a name.
var ErrEmptyName = errors.New("pack name cannot be empty")

// Pack is a named bundle of tools.
type Pack struct {
	name        string
	description string
	version     string
	tools       []tool.Tool
}

// Name returns the pack name.
func (p *Pack) Name() string {
	return p.name
}

// Description returns the pack description.
func (p *Pack) Description() string {
	return p.description
}

// Version returns the pack version.
func (p *Pack) Version() string {
	return p.version
}

// Tools returns the bundled tools.
func (p *Pack) Tools() []tool.Tool {
	out := make([]tool.Tool, len(p.tools))
	copy(out, p.tools)
	return out
}

// Install registers every tool in the pack.
func (p *Pack) Install(registry tool.Registry) error {
	for _, t := range p.tools {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Builder provides a fluent API for constructing packs.
type Builder struct {
	pack *Pack
}

// NewBuilder creates a pack builder with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{pack: &Pack{name: name}}
}

// WithDescription sets the pack description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.pack.description = desc
	return b
}

// WithVersion sets the pack version.
func (b *Builder) WithVersion(version string) *Builder {
	b.pack.version = version
	return b
}

// AddTools appends tools to the pack.
func (b *Builder) AddTools(tools ...tool.Tool) *Builder {
	b.pack.tools = append(b.pack.tools, tools...)
	return b
}

// Build constructs the pack.
func (b *Builder) Build() (*Pack, error) {
	if b.pack.name == "" {
		return nil, ErrEmptyName
	}
	return b.pack, nil
}

// MustBuild constructs the pack or panics on error.
func (b *Builder) MustBuild() *Pack {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
