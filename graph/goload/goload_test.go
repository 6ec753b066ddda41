package goload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/broady/ctrlgen/extract"
	"github.com/broady/ctrlgen/graph"
	"github.com/broady/ctrlgen/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixturePkg = "github.com/broady/ctrlgen/internal/testfixtures"
	mvcPkg     = "github.com/broady/ctrlgen/mvc"
)

func loadFixture(t *testing.T) graph.Module {
	t.Helper()
	t.Setenv("GOWORK", "off")
	mods, err := New().Load(context.Background(), fixturePkg)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	return mods[0]
}

func classNames(mod graph.Module) []string {
	var names []string
	for _, c := range mod.Classes() {
		names = append(names, c.Name.Name)
	}
	return names
}

func findClass(t *testing.T, mod graph.Module, name string) *graph.Class {
	t.Helper()
	c, ok := mod.Lookup(fixturePkg + "." + name)
	require.True(t, ok, "class %s", name)
	return c
}

func methodNames(c *graph.Class) []string {
	var names []string
	for _, m := range c.Methods {
		names = append(names, m.Name)
	}
	return names
}

func TestLoad_Classes(t *testing.T) {
	mod := loadFixture(t)
	assert.Equal(t, fixturePkg, mod.Path())
	assert.Equal(t, []string{
		"Widget", "Filter", "WidgetController", "apiBase", "GadgetController",
		"HealthController", "Paged", "Plain",
	}, classNames(mod))

	widget := findClass(t, mod, "WidgetController")
	assert.Equal(t, []graph.TypeName{{Pkg: mvcPkg, Name: "Controller"}}, widget.Bases)
	require.Len(t, widget.Facts, 1)
	assert.Equal(t, graph.FactRoute, widget.Facts[0].Kind)
	assert.Equal(t, []string{"widgets"}, widget.Facts[0].Args)
	assert.Equal(t, "types.go", filepath.Base(widget.Pos.Filename))
	assert.Equal(t, []string{"Get", "Create", "Search", "Delete", "Register", "count"}, methodNames(widget))

	gadget := findClass(t, mod, "GadgetController")
	assert.Equal(t, []graph.TypeName{{Pkg: fixturePkg, Name: "apiBase"}}, gadget.Bases)
	assert.Empty(t, gadget.Facts)

	health := findClass(t, mod, "HealthController")
	require.Len(t, health.Facts, 2)
	assert.Equal(t, graph.FactController, health.Facts[0].Kind)
	assert.Equal(t, graph.FactRoute, health.Facts[1].Kind)

	paged := findClass(t, mod, "Paged")
	assert.True(t, paged.Generic)
	assert.Empty(t, paged.Methods)

	plain := findClass(t, mod, "Plain")
	assert.Equal(t, []graph.TypeName{{Pkg: fixturePkg, Name: "Widget"}}, plain.Bases)
}

func TestLoad_LookupReferenced(t *testing.T) {
	mod := loadFixture(t)

	ctrl, ok := mod.Lookup(mvcPkg + ".Controller")
	require.True(t, ok)
	assert.Equal(t, []graph.TypeName{{Pkg: mvcPkg, Name: "ControllerBase"}}, ctrl.Bases)
	assert.Empty(t, ctrl.Methods, "referenced classes carry no methods")

	_, ok = mod.Lookup(mvcPkg + ".ControllerBase")
	assert.True(t, ok)

	_, ok = mod.Lookup("time.Time")
	assert.True(t, ok)

	_, ok = mod.Lookup(mvcPkg + ".DoesNotExist")
	assert.False(t, ok)
	_, ok = mod.Lookup("example.com/unrelated.Thing")
	assert.False(t, ok)
	_, ok = mod.Lookup(mvcPkg + ".NoContent")
	assert.False(t, ok, "functions are not classes")
}

func TestLoad_MethodTypes(t *testing.T) {
	mod := loadFixture(t)
	widget := findClass(t, mod, "WidgetController")

	get := widget.Methods[0]
	assert.True(t, get.Exported)
	require.Len(t, get.Params, 2)
	assert.Equal(t, "ctx", get.Params[0].Name)
	assert.Equal(t, "context.Context", get.Params[0].Type.String())
	assert.Equal(t, "int", get.Params[1].Type.String())
	assert.Equal(t, "("+mvcPkg+".ActionResult["+fixturePkg+".Widget], error)", get.Results.String())
	require.Len(t, get.Facts, 1)
	assert.Equal(t, "GET", get.Facts[0].Verb)
	assert.Equal(t, []string{"{id}"}, get.Facts[0].Args)

	create := widget.Methods[1]
	assert.Equal(t, "(*"+mvcPkg+".ActionResult["+fixturePkg+".Widget], error)", create.Results.String())

	search := widget.Methods[2]
	assert.Equal(t, []string{"search/{color}"}, search.Facts[0].Args)
	color := search.Params[1].Type
	assert.True(t, color.Enum)
	assert.Equal(t, "testfixtures", color.PkgName)
	assert.False(t, search.Params[2].Type.Enum)
	assert.Equal(t, "([]"+fixturePkg+".Widget, error)", search.Results.String())

	count := widget.Methods[5]
	assert.False(t, count.Exported)

	touch := findClass(t, mod, "GadgetController").Methods[0]
	require.Len(t, touch.Params, 3)
	assert.Equal(t, "_", touch.Params[1].Name)
	assert.False(t, touch.Params[2].Type.Enum, "Size has no constants")
	assert.Equal(t, "(error)", touch.Results.String())

	ping := findClass(t, mod, "HealthController").Methods[0]
	assert.Equal(t, "", ping.Params[0].Name)
}

func TestLoad_Extract(t *testing.T) {
	mod := loadFixture(t)

	controllers, err := extract.New(extract.Config{}).Scan(mod)
	require.NoError(t, err)

	var names []string
	for _, c := range controllers {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Widget", "Gadget", "Health"}, names)

	widget := controllers[0]
	assert.Equal(t, "widgets", widget.BaseRoute)
	require.Len(t, widget.Actions, 4)

	search := widget.Actions[2]
	assert.Equal(t, ir.Get, search.Verb)
	require.NotNil(t, search.Body)
	assert.Equal(t, "f", search.Body.Key)
	assert.Equal(t, "[]"+fixturePkg+".Widget", search.Return.String())

	del := widget.Actions[3]
	assert.Equal(t, ir.Delete, del.Verb)
	assert.Nil(t, del.Return)

	touch := controllers[1].Actions[0]
	assert.Equal(t, ir.Put, touch.Verb)
	require.NotNil(t, touch.Body)
	assert.Equal(t, "p2", touch.Body.Key)
	assert.Equal(t, "p1", touch.Parameters[0].Key)
	assert.Nil(t, touch.Return)

	health := controllers[2]
	assert.Equal(t, "health", health.BaseRoute)
	assert.Equal(t, "string", health.Actions[0].Return.String())
	assert.Empty(t, health.Actions[0].Parameters)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("GOWORK", "off")

	_, err := New().Load(context.Background())
	assert.ErrorContains(t, err, "no packages specified")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/broken\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package broken\n\nvar x int = \"s\"\n"), 0o644))

	_, err = New().WithDir(dir).Load(context.Background(), ".")
	assert.ErrorContains(t, err, "package example.com/broken has errors")
}

func TestLoad_BadDirective(t *testing.T) {
	t.Setenv("GOWORK", "off")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/bad\n\ngo 1.22\n"), 0o644))
	src := "package bad\n\n//ctrlgen:frobnicate\ntype Thing struct{}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.go"), []byte(src), 0o644))

	_, err := New().WithDir(dir).Load(context.Background(), ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directive //ctrlgen:frobnicate")
	assert.Contains(t, err.Error(), "bad.go:3:1")
}

func TestLoad_MarkerPackageHasNoControllers(t *testing.T) {
	t.Setenv("GOWORK", "off")
	mods, err := New().Load(context.Background(), mvcPkg)
	require.NoError(t, err)
	require.Len(t, mods, 1)

	controller, ok := mods[0].Lookup(mvcPkg + ".Controller")
	require.True(t, ok)
	require.NotEmpty(t, controller.Facts)
	assert.Equal(t, graph.FactIgnore, controller.Facts[0].Kind)

	controllers, err := extract.New(extract.Config{}).Scan(mods[0])
	require.NoError(t, err)
	assert.Empty(t, controllers)
}
