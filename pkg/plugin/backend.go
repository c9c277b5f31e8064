package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akuity/devportal/pkg/component"
	"github.com/akuity/devportal/pkg/logging"
)

// ErrBackendStarted is returned by operations that are only legal before
// Start is called.
var ErrBackendStarted = errors.New("backend has already been started")

// Plugin is a unit of backend functionality that may own extension points.
type Plugin interface {
	// ID returns the plugin's unique id.
	ID() string
	// Register provides implementations of the plugin's extension points. It
	// is called before any module is initialized.
	Register(*Registrar) error
	// Init is called after every module extending the plugin has been
	// initialized. From then on the plugin's extension points are closed.
	Init(context.Context) error
}

// Module extends a single plugin through that plugin's extension points.
type Module interface {
	// PluginID returns the id of the plugin this module extends.
	PluginID() string
	// ModuleID returns an id that is unique among the plugin's modules.
	ModuleID() string
	// Init registers the module's contributions.
	Init(context.Context, *Env) error
}

// Backend hosts plugins and modules and drives their initialization:
// extension point registration, then module init, then plugin init. After
// Start returns, the set of extension points is immutable.
type Backend struct {
	mu      sync.Mutex
	plugins []Plugin
	modules []Module
	points  component.NameBasedRegistry[any, string]
	started bool
}

// NewBackend returns an empty Backend.
func NewBackend() *Backend {
	return &Backend{
		points: component.MustNewNameBasedRegistry[any, string](nil),
	}
}

// Add adds plugins and modules to the backend. Anything else is an error.
func (b *Backend) Add(features ...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrBackendStarted
	}
	for _, feature := range features {
		switch f := feature.(type) {
		case Plugin:
			for _, p := range b.plugins {
				if p.ID() == f.ID() {
					return fmt.Errorf("plugin %q has already been added", f.ID())
				}
			}
			b.plugins = append(b.plugins, f)
		case Module:
			for _, m := range b.modules {
				if m.PluginID() == f.PluginID() && m.ModuleID() == f.ModuleID() {
					return fmt.Errorf(
						"module %q for plugin %q has already been added",
						f.ModuleID(), f.PluginID(),
					)
				}
			}
			b.modules = append(b.modules, f)
		default:
			return fmt.Errorf("%T is neither a plugin nor a module", feature)
		}
	}
	return nil
}

// Start initializes every plugin and module. It may only be called once.
func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrBackendStarted
	}
	b.started = true
	plugins := b.plugins
	modules := b.modules
	b.mu.Unlock()

	logger := logging.LoggerFromContext(ctx)

	pluginIDs := make(map[string]struct{}, len(plugins))
	for _, p := range plugins {
		pluginIDs[p.ID()] = struct{}{}
		if err := p.Register(&Registrar{pluginID: p.ID(), backend: b}); err != nil {
			return fmt.Errorf("error registering plugin %q: %w", p.ID(), err)
		}
		logger.Debug("registered plugin", "plugin", p.ID())
	}
	logger.Debug("extension points provided", "extensionPoints", b.ExtensionPointIDs())

	for _, m := range modules {
		if _, ok := pluginIDs[m.PluginID()]; !ok {
			return fmt.Errorf(
				"module %q targets plugin %q, which has not been added",
				m.ModuleID(), m.PluginID(),
			)
		}
		env := &Env{pluginID: m.PluginID(), moduleID: m.ModuleID(), backend: b}
		if err := m.Init(ctx, env); err != nil {
			return fmt.Errorf(
				"error initializing module %q for plugin %q: %w",
				m.ModuleID(), m.PluginID(), err,
			)
		}
		logger.Debug(
			"initialized module",
			"plugin", m.PluginID(),
			"module", m.ModuleID(),
		)
	}

	for _, p := range plugins {
		if err := p.Init(ctx); err != nil {
			return fmt.Errorf("error initializing plugin %q: %w", p.ID(), err)
		}
		logger.Info("plugin initialized", "plugin", p.ID())
	}
	return nil
}

// ExtensionPointIDs returns the ids of all provided extension points.
func (b *Backend) ExtensionPointIDs() []string {
	return b.points.Names()
}

func (b *Backend) provide(pluginID, id string, impl any) error {
	if err := b.points.Register(component.NameBasedRegistration[any, string]{
		Name:     id,
		Value:    impl,
		Metadata: pluginID,
	}); err != nil {
		return fmt.Errorf("error providing extension point %q: %w", id, err)
	}
	return nil
}

func (b *Backend) extensionPoint(id string) (any, string, error) {
	reg, err := b.points.Get(id)
	if component.IsNotFoundError(err) {
		return nil, "", fmt.Errorf(
			"extension point %q is not provided; provided extension points are %v: %w",
			id, b.ExtensionPointIDs(), err,
		)
	}
	if err != nil {
		return nil, "", fmt.Errorf("extension point %q: %w", id, err)
	}
	return reg.Value, reg.Metadata, nil
}

type funcModule struct {
	pluginID string
	moduleID string
	initFn   func(context.Context, *Env) error
}

// NewModule returns a Module for pluginID whose Init calls initFn.
func NewModule(
	pluginID string,
	moduleID string,
	initFn func(context.Context, *Env) error,
) Module {
	return &funcModule{pluginID: pluginID, moduleID: moduleID, initFn: initFn}
}

func (m *funcModule) PluginID() string { return m.pluginID }

func (m *funcModule) ModuleID() string { return m.moduleID }

func (m *funcModule) Init(ctx context.Context, env *Env) error {
	return m.initFn(ctx, env)
}
