package rtdgi

import "testing"

type MockModule struct {
	installed bool
}

func (m *MockModule) Install(app *App) {
	m.installed = true
}

type MockModule2 struct {
	installed bool
}

func (m *MockModule2) Install(app *App) {
	m.installed = true
}

func TestAppBuilder_Empty(t *testing.T) {
	app := NewAppBuilder().Build()

	if app.resources == nil {
		t.Errorf("Expected resources map to be initialised")
	}
	if app.Profiler() == nil {
		t.Errorf("Expected a profiler")
	}
	if len(app.modules) != 0 {
		t.Errorf("Expected no modules, got %v", len(app.modules))
	}
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	mockModule := &MockModule{}
	builder.UseModule(mockModule)

	if len(builder.modules) != 1 {
		t.Errorf("Expected modules to contain 1 module, got %v", len(builder.modules))
	}
	if mockModule.installed {
		t.Errorf("Expected Install to wait for Build")
	}
}

func TestAppBuilder_Build_WithMultipleModules(t *testing.T) {
	module1 := &MockModule{}
	module2 := &MockModule2{}

	builder := NewAppBuilder()
	builder.UseModule(module1)
	builder.UseModule(module2)

	app := builder.Build()

	if len(app.modules) != 2 {
		t.Errorf("Expected 2 modules, got %v", len(app.modules))
	}
	if !module1.installed {
		t.Errorf("Expected Install to be called on the module 1, but it was not")
	}
	if !module2.installed {
		t.Errorf("Expected Install to be called on the module 2, but it was not")
	}
}
