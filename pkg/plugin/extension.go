package plugin

import "fmt"

// ExtensionPoint is a typed, named slot through which modules hand
// implementations of T to the plugin that owns the slot.
type ExtensionPoint[T any] struct {
	id string
}

// NewExtensionPoint returns an ExtensionPoint with the given id. Ids are
// conventionally "<plugin>.<capability>".
func NewExtensionPoint[T any](id string) ExtensionPoint[T] {
	return ExtensionPoint[T]{id: id}
}

// ID returns the extension point's id.
func (e ExtensionPoint[T]) ID() string {
	return e.id
}

func (e ExtensionPoint[T]) String() string {
	return fmt.Sprintf("extensionPoint{%s}", e.id)
}

// Registrar is handed to a Plugin during registration so it can provide
// implementations of the extension points it owns.
type Registrar struct {
	pluginID string
	backend  *Backend
}

// Provide makes impl available to modules under the given extension point.
func Provide[T any](r *Registrar, ep ExtensionPoint[T], impl T) error {
	if ep.id == "" {
		return fmt.Errorf("plugin %q provided an extension point with no id", r.pluginID)
	}
	return r.backend.provide(r.pluginID, ep.id, impl)
}

// Env is handed to a Module during initialization so it can obtain the
// extension points of the plugin it extends.
type Env struct {
	pluginID string
	moduleID string
	backend  *Backend
}

// PluginID returns the id of the plugin being extended.
func (e *Env) PluginID() string {
	return e.pluginID
}

// ModuleID returns the id of the module being initialized.
func (e *Env) ModuleID() string {
	return e.moduleID
}

// Get returns the implementation of an extension point. A module may only
// obtain extension points owned by the plugin it extends.
func Get[T any](env *Env, ep ExtensionPoint[T]) (T, error) {
	var zero T
	impl, owner, err := env.backend.extensionPoint(ep.id)
	if err != nil {
		return zero, err
	}
	if owner != env.pluginID {
		return zero, fmt.Errorf(
			"module %q for plugin %q cannot access %s owned by plugin %q",
			env.moduleID, env.pluginID, ep, owner,
		)
	}
	typed, ok := impl.(T)
	if !ok {
		return zero, fmt.Errorf(
			"%s is provided as %T, which does not implement the requested type",
			ep, impl,
		)
	}
	return typed, nil
}
