package rtdgi

import (
	"errors"
	"fmt"
	"reflect"

	rtapp "github.com/gekko3d/rtdgi/voxelrt/rt/app"
)

var ErrMissingResource = errors.New("rtdgi: missing resource")

// App owns the resources a frame is rendered from. Resources are keyed by
// their pointed-to type, so each type may be installed once.
type App struct {
	modules   []Module
	resources map[reflect.Type]any
	profiler  *rtapp.Profiler
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// AddResources installs pointer resources after Build. It panics when a
// resource of the same type is already present.
func (app *App) AddResources(resources ...any) *App {
	return app.addResources(resources...)
}

// Resource returns the installed *T.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	v, ok := r.(*T)
	return v, ok
}

func mustHave[T any](app *App, name string) (*T, error) {
	v, ok := Resource[T](app)
	if !ok {
		return nil, fmt.Errorf("rtdgi: resource %s: %w", name, ErrMissingResource)
	}
	return v, nil
}

func (app *App) Profiler() *rtapp.Profiler {
	return app.profiler
}
