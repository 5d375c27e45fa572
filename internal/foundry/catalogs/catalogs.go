package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/protocol"
)

type Catalogs struct {
	Recipes RecipeCatalog
}

type RecipeCatalog struct {
	ByRole map[model.Role]RecipeDef
	Raw    []byte
	Digest string
}

// RecipeDef is the base (count 0) resource cost of crafting one item of Role.
type RecipeDef struct {
	Role   model.Role                `json:"role"`
	Inputs []protocol.ResourceAmount `json:"inputs"`
}

func (c RecipeCatalog) Get(role model.Role) (RecipeDef, bool) {
	r, ok := c.ByRole[role]
	return r, ok
}

// Roles returns the craftable roles in a stable order.
func (c RecipeCatalog) Roles() []model.Role {
	out := make([]model.Role, 0, len(c.ByRole))
	for r := range c.ByRole {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return ParseRecipes(raw, out)
}

// ParseRecipes decodes a recipes.json document.
func ParseRecipes(raw []byte, out *RecipeCatalog) error {
	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.ByRole = map[model.Role]RecipeDef{}
	for _, r := range defs {
		if _, ok := r.Role.Kind(); !ok {
			return fmt.Errorf("recipes.json: unknown role %q", r.Role)
		}
		if _, dup := out.ByRole[r.Role]; dup {
			return fmt.Errorf("recipes.json: duplicate role %q", r.Role)
		}
		if len(r.Inputs) == 0 {
			return fmt.Errorf("recipes.json: %s: no inputs", r.Role)
		}
		seen := map[string]bool{}
		for _, in := range r.Inputs {
			if in.Kind == "" || in.Amount <= 0 {
				return fmt.Errorf("recipes.json: %s: invalid input %q=%d", r.Role, in.Kind, in.Amount)
			}
			if seen[in.Kind] {
				return fmt.Errorf("recipes.json: %s: duplicate input %q", r.Role, in.Kind)
			}
			seen[in.Kind] = true
		}
		out.ByRole[r.Role] = r
	}
	out.Raw = raw
	out.Digest = sha256Hex(raw)
	return nil
}
