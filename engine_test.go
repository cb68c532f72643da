package pysubclasses

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree materializes a Python source tree in a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func analyzed(t *testing.T, root string, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	require.NoError(t, eng.Analyze(context.Background()))
	return eng
}

func names(refs []ClassRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ModulePath + "." + r.ClassName
	}
	return out
}

func TestFindSubclassesLinearChain(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animals.py": `
class Animal:
    pass

class Dog(Animal):
    pass

class Puppy(Dog):
    pass
`,
	})
	eng := analyzed(t, root)

	subs, err := eng.FindSubclasses("Animal", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"animals.Dog", "animals.Puppy"}, names(subs))

	direct, err := eng.FindSubclasses("Animal", "", ModeDirect)
	require.NoError(t, err)
	assert.Equal(t, []string{"animals.Dog"}, names(direct))

	leaf, err := eng.FindSubclasses("Puppy", "", ModeAll)
	require.NoError(t, err)
	assert.Empty(t, leaf)

	assert.Equal(t, 3, eng.ClassCount())
}

func TestFindSubclassesAcrossFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"zoo/__init__.py": "",
		"zoo/base.py": `
class Animal:
    pass
`,
		"zoo/dogs.py": `
from zoo.base import Animal

class Dog(Animal):
    pass
`,
		"zoo/cats.py": `
import zoo.base

class Cat(zoo.base.Animal):
    pass
`,
		"zoo/birds.py": `
from zoo import base

class Bird(base.Animal):
    pass
`,
	})
	eng := analyzed(t, root)

	subs, err := eng.FindSubclasses("Animal", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"zoo.birds.Bird", "zoo.cats.Cat", "zoo.dogs.Dog"}, names(subs))
}

func TestFindSubclassesRelativeImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/__init__.py":     "",
		"app/sub/__init__.py": "",
		"app/base.py": `
class Model:
    pass
`,
		"app/sub/users.py": `
from ..base import Model

class User(Model):
    pass
`,
		"app/orders.py": `
from .base import Model

class Order(Model):
    pass
`,
	})
	eng := analyzed(t, root)

	subs, err := eng.FindSubclasses("Model", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.orders.Order", "app.sub.users.User"}, names(subs))
}

func TestFindSubclassesThroughReexport(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": `
from pkg.impl import Animal
`,
		"pkg/impl.py": `
class Animal:
    pass
`,
		"main.py": `
from pkg import Animal

class Dog(Animal):
    pass
`,
	})
	eng := analyzed(t, root)

	// Importing through the package facade resolves to the defining module.
	subs, err := eng.FindSubclasses("Animal", "pkg.impl", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.Dog"}, names(subs))

	// Querying via the re-exporting module yields the same result.
	viaFacade, err := eng.FindSubclasses("Animal", "pkg", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, names(subs), names(viaFacade))
}

func TestAmbiguousBareName(t *testing.T) {
	root := writeTree(t, map[string]string{
		"farm.py": "class Animal:\n    pass\n",
		"zoo.py":  "class Animal:\n    pass\n",
	})
	eng := analyzed(t, root)

	_, err := eng.FindSubclasses("Animal", "", ModeAll)
	var amb *AmbiguousClassError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "Class 'Animal' found in multiple modules: farm, zoo", amb.Error())

	// The same two classes never collide during base resolution.
	_, err = eng.FindSubclasses("Animal", "farm", ModeAll)
	assert.NoError(t, err)
}

func TestPackageShadowsSameNamedModule(t *testing.T) {
	// pkg.py and pkg/__init__.py both map to module "pkg"; Python's import
	// system picks the package, and so does discovery. Valid source must
	// never trip the registry's duplicate-ClassID guard.
	root := writeTree(t, map[string]string{
		"pkg.py": `
class Thing:
    pass

class Orphan(Thing):
    pass
`,
		"pkg/__init__.py": `
class Thing:
    pass
`,
		"main.py": `
from pkg import Thing

class Widget(Thing):
    pass
`,
	})
	eng := analyzed(t, root)

	ref, err := eng.ResolveClass("Thing", "pkg")
	require.NoError(t, err)
	assert.Equal(t, "pkg/__init__.py", ref.FilePath)

	subs, err := eng.FindSubclasses("Thing", "pkg", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.Widget"}, names(subs))

	// The shadowed file's classes are not analyzed.
	assert.Equal(t, 2, eng.ClassCount())
}

func TestClassNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animals.py": "class Animal:\n    pass\n",
	})
	eng := analyzed(t, root)

	_, err := eng.FindSubclasses("Unicorn", "", ModeAll)
	var nf *ClassNotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = eng.FindSubclasses("Animal", "plants", ModeAll)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Class 'Animal' not found in module 'plants'", nf.Error())
}

func TestDiamondInheritance(t *testing.T) {
	root := writeTree(t, map[string]string{
		"shapes.py": `
class Base:
    pass

class Left(Base):
    pass

class Right(Base):
    pass

class Bottom(Left, Right):
    pass
`,
	})
	eng := analyzed(t, root)

	subs, err := eng.FindSubclasses("Base", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"shapes.Bottom", "shapes.Left", "shapes.Right"}, names(subs))

	parents, err := eng.FindParents("Bottom", "shapes")
	require.NoError(t, err)
	assert.Equal(t, []string{"shapes.Left", "shapes.Right"}, names(parents))
}

func TestResolveClass(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animals.py": "class Animal:\n    pass\n",
	})
	eng := analyzed(t, root)

	ref, err := eng.ResolveClass("Animal", "")
	require.NoError(t, err)
	assert.Equal(t, ClassRef{ClassName: "Animal", ModulePath: "animals", FilePath: "animals.py"}, ref)
}

func TestParseErrorIsCollectedNotFatal(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.py":   "class Animal:\n    pass\n",
		"broken.py": "class Oops(\n",
	})
	eng := analyzed(t, root)

	perrs := eng.ParseErrors()
	require.Len(t, perrs, 1)
	assert.Equal(t, "broken.py", perrs[0].FilePath)

	_, err := eng.FindSubclasses("Animal", "", ModeAll)
	assert.NoError(t, err)
}

func TestDiscoverySkipsJunkAndExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/models.py":           "class Model:\n    pass\n",
		"app/models_test.py":      "class ModelTest(Model):\n    pass\n",
		".hidden/secret.py":       "class Model:\n    pass\n",
		".dotfile.py":             "class Model:\n    pass\n",
		"app/.generated.py":       "class Model:\n    pass\n",
		"__pycache__/models.py":   "class Model:\n    pass\n",
		"venv/lib/site.py":        "class Model:\n    pass\n",
		"notes.txt":               "not python",
		"app/__init__.py":         "",
		"generated/models_gen.py": "class ModelGen(Model):\n    pass\n",
	})
	eng := analyzed(t, root, WithExcludes("generated/**", "**/*_test.py"))

	assert.Equal(t, 1, eng.ClassCount())
	ref, err := eng.ResolveClass("Model", "")
	require.NoError(t, err)
	assert.Equal(t, "app.models", ref.ModulePath)
}

func TestConfigFileMergesUnderOptions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.py":          "class Keep:\n    pass\n",
		"skipme/nope.py":   "class Nope:\n    pass\n",
		"also/unwanted.py": "class Unwanted:\n    pass\n",
		"also/__init__.py": "",
		ConfigFileName:     "exclude = [\"skipme/**\"]\ncache = false\n",
	})
	eng := analyzed(t, root, WithExcludes("also/**"))

	// Config excludes and option excludes both apply; config disables cache.
	assert.Equal(t, 1, eng.ClassCount())
	assert.NoFileExists(t, filepath.Join(root, ".pysubclasses.cache.db"))
}

func TestCacheIdempotence(t *testing.T) {
	files := map[string]string{
		"animals.py": `
class Animal:
    pass

class Dog(Animal):
    pass
`,
		"plants.py": "class Tree:\n    pass\n",
	}
	root := writeTree(t, files)
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	first := analyzed(t, root, WithCachePath(cachePath))
	subs1, err := first.FindSubclasses("Animal", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheStats().Hits)
	assert.Equal(t, 2, first.CacheStats().Misses)

	// Second run over unchanged content re-parses nothing.
	second := analyzed(t, root, WithCachePath(cachePath))
	subs2, err := second.FindSubclasses("Animal", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheStats().Hits)
	assert.Equal(t, 0, second.CacheStats().Misses)
	assert.Equal(t, subs1, subs2)

	// Touching one file invalidates only that file's entry.
	require.NoError(t, os.WriteFile(filepath.Join(root, "plants.py"),
		[]byte("class Tree:\n    pass\n\nclass Oak(Tree):\n    pass\n"), 0o644))
	third := analyzed(t, root, WithCachePath(cachePath))
	assert.Equal(t, 1, third.CacheStats().Hits)
	assert.Equal(t, 1, third.CacheStats().Misses)

	oaks, err := third.FindSubclasses("Tree", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"plants.Oak"}, names(oaks))
}

func TestNoCacheDisablesStore(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animals.py": "class Animal:\n    pass\n",
	})

	eng := analyzed(t, root, WithCache(false))
	assert.Equal(t, 0, eng.CacheStats().Hits)
	assert.Equal(t, 1, eng.CacheStats().Misses)
	assert.NoFileExists(t, filepath.Join(root, ".pysubclasses.cache.db"))

	again := analyzed(t, root, WithCache(false))
	assert.Equal(t, 0, again.CacheStats().Hits)
}

func TestNewRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestNewRejectsBadExcludePattern(t *testing.T) {
	_, err := New(t.TempDir(), WithExcludes("[invalid"))
	assert.Error(t, err)
}

func TestClassRedefinitionLastWins(t *testing.T) {
	root := writeTree(t, map[string]string{
		"m.py": `
class Base:
    pass

class Thing:
    pass

class Thing(Base):
    pass
`,
	})
	eng := analyzed(t, root, WithCache(false))

	subs, err := eng.FindSubclasses("Base", "", ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"m.Thing"}, names(subs))
	assert.Equal(t, 2, eng.ClassCount())
}
