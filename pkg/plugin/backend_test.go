package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akuity/devportal/pkg/component"
)

type greeter interface {
	Greet(string)
}

type greetings struct {
	names []string
}

func (g *greetings) Greet(name string) {
	g.names = append(g.names, name)
}

var testGreeterPoint = NewExtensionPoint[greeter]("test.greeter")

type testPlugin struct {
	id          string
	impl        *greetings
	registerErr error
	initErr     error
	events      *[]string
}

func (p *testPlugin) ID() string { return p.id }

func (p *testPlugin) Register(r *Registrar) error {
	*p.events = append(*p.events, "register:"+p.id)
	if p.registerErr != nil {
		return p.registerErr
	}
	if p.impl == nil {
		return nil
	}
	return Provide[greeter](r, testGreeterPoint, p.impl)
}

func (p *testPlugin) Init(context.Context) error {
	*p.events = append(*p.events, "init:"+p.id)
	return p.initErr
}

type testModule struct {
	pluginID string
	moduleID string
	initFn   func(*Env) error
	events   *[]string
}

func (m *testModule) PluginID() string { return m.pluginID }

func (m *testModule) ModuleID() string { return m.moduleID }

func (m *testModule) Init(_ context.Context, env *Env) error {
	*m.events = append(*m.events, "module:"+m.moduleID)
	return m.initFn(env)
}

func TestBackend_Add(t *testing.T) {
	events := []string{}
	b := NewBackend()
	require.NoError(t, b.Add(&testPlugin{id: "greeter", events: &events}))
	require.ErrorContains(
		t,
		b.Add(&testPlugin{id: "greeter", events: &events}),
		"has already been added",
	)
	require.NoError(t, b.Add(&testModule{pluginID: "greeter", moduleID: "m", events: &events}))
	require.ErrorContains(
		t,
		b.Add(&testModule{pluginID: "greeter", moduleID: "m", events: &events}),
		"has already been added",
	)
	require.ErrorContains(t, b.Add("nope"), "neither a plugin nor a module")
}

func TestBackend_Start(t *testing.T) {
	testCases := []struct {
		name       string
		features   func(events *[]string, impl *greetings) []any
		assertions func(t *testing.T, b *Backend, events []string, impl *greetings, err error)
	}{
		{
			name: "modules are initialized between registration and plugin init",
			features: func(events *[]string, impl *greetings) []any {
				return []any{
					&testPlugin{id: "greeter", impl: impl, events: events},
					&testModule{
						pluginID: "greeter",
						moduleID: "hello",
						events:   events,
						initFn: func(env *Env) error {
							g, err := Get(env, testGreeterPoint)
							if err != nil {
								return err
							}
							g.Greet("world")
							return nil
						},
					},
				}
			},
			assertions: func(t *testing.T, b *Backend, events []string, impl *greetings, err error) {
				require.NoError(t, err)
				require.Equal(
					t,
					[]string{"register:greeter", "module:hello", "init:greeter"},
					events,
				)
				require.Equal(t, []string{"world"}, impl.names)
				require.Equal(t, []string{"test.greeter"}, b.ExtensionPointIDs())
			},
		},
		{
			name: "module targets unknown plugin",
			features: func(events *[]string, _ *greetings) []any {
				return []any{
					&testModule{
						pluginID: "missing",
						moduleID: "orphan",
						events:   events,
						initFn:   func(*Env) error { return nil },
					},
				}
			},
			assertions: func(t *testing.T, _ *Backend, _ []string, _ *greetings, err error) {
				require.ErrorContains(t, err, "has not been added")
			},
		},
		{
			name: "module cannot reach another plugin's extension point",
			features: func(events *[]string, impl *greetings) []any {
				return []any{
					&testPlugin{id: "greeter", impl: impl, events: events},
					&testPlugin{id: "other", events: events},
					&testModule{
						pluginID: "other",
						moduleID: "sneaky",
						events:   events,
						initFn: func(env *Env) error {
							_, err := Get(env, testGreeterPoint)
							return err
						},
					},
				}
			},
			assertions: func(t *testing.T, _ *Backend, _ []string, _ *greetings, err error) {
				require.ErrorContains(t, err, "cannot access")
			},
		},
		{
			name: "unknown extension point",
			features: func(events *[]string, _ *greetings) []any {
				return []any{
					&testPlugin{id: "greeter", events: events},
					&testModule{
						pluginID: "greeter",
						moduleID: "m",
						events:   events,
						initFn: func(env *Env) error {
							_, err := Get(env, testGreeterPoint)
							return err
						},
					},
				}
			},
			assertions: func(t *testing.T, _ *Backend, _ []string, _ *greetings, err error) {
				require.Error(t, err)
				require.True(t, component.IsNotFoundError(err))
				require.ErrorContains(t, err, "provided extension points are []")
			},
		},
		{
			name: "duplicate extension point id",
			features: func(events *[]string, impl *greetings) []any {
				return []any{
					&testPlugin{id: "a", impl: impl, events: events},
					&testPlugin{id: "b", impl: impl, events: events},
				}
			},
			assertions: func(t *testing.T, _ *Backend, _ []string, _ *greetings, err error) {
				require.ErrorContains(t, err, "cannot overwrite registration")
			},
		},
		{
			name: "plugin init error",
			features: func(events *[]string, _ *greetings) []any {
				return []any{
					&testPlugin{
						id:      "greeter",
						events:  events,
						initErr: errors.New("something went wrong"),
					},
				}
			},
			assertions: func(t *testing.T, _ *Backend, _ []string, _ *greetings, err error) {
				require.ErrorContains(t, err, "error initializing plugin")
				require.ErrorContains(t, err, "something went wrong")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			events := []string{}
			impl := &greetings{}
			b := NewBackend()
			require.NoError(t, b.Add(testCase.features(&events, impl)...))
			err := b.Start(context.Background())
			testCase.assertions(t, b, events, impl, err)
		})
	}
}

func TestBackend_StartTwice(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Start(context.Background()))
	require.ErrorIs(t, b.Start(context.Background()), ErrBackendStarted)
	require.ErrorIs(t, b.Add(&testPlugin{id: "late"}), ErrBackendStarted)
}

func TestNewModule(t *testing.T) {
	events := []string{}
	impl := &greetings{}
	b := NewBackend()
	require.NoError(t, b.Add(
		&testPlugin{id: "greeter", impl: impl, events: &events},
		NewModule("greeter", "hello", func(_ context.Context, env *Env) error {
			g, err := Get(env, testGreeterPoint)
			if err != nil {
				return err
			}
			g.Greet(env.ModuleID())
			return nil
		}),
	))
	require.NoError(t, b.Start(context.Background()))
	require.Equal(t, []string{"hello"}, impl.names)
}
