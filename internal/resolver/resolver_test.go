package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/source"
	"github.com/tako0614/takomusic/internal/stdlib"
)

func TestResolveOrdersDependenciesBeforeDependents(t *testing.T) {
	host := source.NewMapProvider(map[string]string{
		"./a.tako": `export fn helper() -> Number { return 1; }`,
	})
	provider := source.NewComposite(stdlib.NewProvider(), host)

	entry := `import helper from "./a.tako";
export fn main() -> Number { return helper(); }`

	bag := diag.NewBag()
	mods := Resolve(entry, "main", provider, bag)
	require.False(t, bag.HasErrors(), bag.All())
	require.Len(t, mods, 2)
	assert.Equal(t, "./a.tako", mods[0].Key)
	assert.Equal(t, "main", mods[1].Key)
}

func TestResolveDetectsCycle(t *testing.T) {
	host := source.NewMapProvider(map[string]string{
		"./a.tako": `import x from "./b.tako";
export fn a() -> Number { return x(); }`,
		"./b.tako": `import a from "./a.tako";
export fn x() -> Number { return a(); }`,
	})
	provider := source.NewComposite(stdlib.NewProvider(), host)

	entry := `import a from "./a.tako";
export fn main() -> Number { return a(); }`

	bag := diag.NewBag()
	Resolve(entry, "main", provider, bag)
	require.True(t, bag.HasErrors())
	found := false
	for _, d := range bag.All() {
		if d.Code == "import-cycle" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveReportsMissingExport(t *testing.T) {
	host := source.NewMapProvider(map[string]string{
		"./a.tako": `fn internalOnly() -> Number { return 1; }`,
	})
	provider := source.NewComposite(stdlib.NewProvider(), host)

	entry := `import internalOnly from "./a.tako";
export fn main() -> Number { return internalOnly(); }`

	bag := diag.NewBag()
	Resolve(entry, "main", provider, bag)
	require.True(t, bag.HasErrors())
	assert.Equal(t, "missing-export", bag.All()[len(bag.All())-1].Code)
}

func TestResolveRoutesStdPrefixToEmbeddedProvider(t *testing.T) {
	provider := source.NewComposite(stdlib.NewProvider(), source.NewMapProvider(nil))
	entry := `import scale from "std:theory";
export fn main() -> Array { return scale(60, MAJOR); }`
	bag := diag.NewBag()
	mods := Resolve(entry, "main", provider, bag)
	require.False(t, bag.HasErrors(), bag.All())
	require.Len(t, mods, 2)
	assert.Equal(t, "std:theory", mods[0].Key)
}
