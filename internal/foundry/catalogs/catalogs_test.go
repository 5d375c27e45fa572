package catalogs

import (
	"os"
	"path/filepath"
	"testing"

	"foundry.ai/internal/foundry/model"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, r := range append(model.CarrierRoles(), model.ModuleRoles()...) {
		if _, ok := c.Recipes.Get(r); !ok {
			t.Fatalf("missing recipe for %s", r)
		}
	}
	if len(c.Recipes.Digest) != 64 {
		t.Fatalf("digest = %q", c.Recipes.Digest)
	}
}

func TestParseRecipes_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown role":    `[{"role":"BATTLESTAR","inputs":[{"kind":"ALLOY","amount":1}]}]`,
		"duplicate role":  `[{"role":"HULL","inputs":[{"kind":"ALLOY","amount":1}]},{"role":"HULL","inputs":[{"kind":"ALLOY","amount":2}]}]`,
		"no inputs":       `[{"role":"HULL","inputs":[]}]`,
		"zero amount":     `[{"role":"HULL","inputs":[{"kind":"ALLOY","amount":0}]}]`,
		"duplicate input": `[{"role":"HULL","inputs":[{"kind":"ALLOY","amount":1},{"kind":"ALLOY","amount":1}]}]`,
		"bad json":        `{`,
	}
	for name, raw := range cases {
		var rc RecipeCatalog
		if err := ParseRecipes([]byte(raw), &rc); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
