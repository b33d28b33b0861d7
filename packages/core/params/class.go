package params

import "strings"

// ProviderFunc produces raw rows. recv is nil for static providers and a
// fresh instance of the declaring class otherwise.
type ProviderFunc func(recv any) (any, error)

// Provider is a named, zero-argument row source declared on a Class.
type Provider struct {
	Name   string
	Static bool
	Func   ProviderFunc
}

// Class is an explicit stand-in for a test class: it declares providers in
// order and may extend a superclass. Provider lookup walks Super links; a nil
// Super ends the hierarchy.
type Class struct {
	Name      string
	Super     *Class
	New       func() (any, error)
	Providers []Provider
}

// NewClass creates a class with no superclass.
func NewClass(name string) *Class {
	return &Class{Name: name}
}

// Extends sets the superclass and returns c for chaining.
func (c *Class) Extends(super *Class) *Class {
	c.Super = super
	return c
}

// WithConstructor sets the constructor used for instance providers.
func (c *Class) WithConstructor(fn func() (any, error)) *Class {
	c.New = fn
	return c
}

// Static declares a provider that needs no instance.
func (c *Class) Static(name string, fn func() (any, error)) *Class {
	c.Providers = append(c.Providers, Provider{
		Name:   name,
		Static: true,
		Func:   func(any) (any, error) { return fn() },
	})
	return c
}

// Instance declares a provider that is called on a fresh instance of c.
func (c *Class) Instance(name string, fn ProviderFunc) *Class {
	c.Providers = append(c.Providers, Provider{Name: name, Func: fn})
	return c
}

// Declared returns the provider declared directly on c, ignoring superclasses.
func (c *Class) Declared(name string) (Provider, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// Hierarchy returns c followed by its superclasses, nearest first.
func (c *Class) Hierarchy() []*Class {
	var chain []*Class
	seen := make(map[*Class]bool)
	for cur := c; cur != nil && !seen[cur]; cur = cur.Super {
		seen[cur] = true
		chain = append(chain, cur)
	}
	return chain
}

func (c *Class) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}

// Registry maps class names to classes. Suites loaded from files resolve
// source references through it.
type Registry struct {
	classes map[string]*Class
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Add registers c, replacing a previous class with the same name.
func (r *Registry) Add(c *Class) {
	if _, ok := r.classes[c.Name]; !ok {
		r.order = append(r.order, c.Name)
	}
	r.classes[c.Name] = c
}

func (r *Registry) Get(name string) (*Class, bool) {
	c, ok := r.classes[strings.TrimSpace(name)]
	return c, ok
}

// Classes returns registered classes in registration order.
func (r *Registry) Classes() []*Class {
	out := make([]*Class, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.classes[name])
	}
	return out
}
