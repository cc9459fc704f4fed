package rtdgi

import (
	"reflect"

	rtapp "github.com/gekko3d/rtdgi/voxelrt/rt/app"
)

// Module adds resources to an App while it is being built.
type Module interface {
	Install(app *App)
}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: &App{
		resources: make(map[reflect.Type]any),
		profiler:  rtapp.NewProfiler(),
	}}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

// Build installs the modules in the order they were added.
func (b *AppBuilder) Build() *App {
	app := b.app

	for _, module := range b.modules {
		module.Install(app)
	}
	app.modules = b.modules

	return app
}
