package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"craftguard/internal/sim/item"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load configs: %v", err)
	}
	if c.Items.Palette[0] != item.KindAir || c.Items.Index[item.KindAir] != 0 {
		t.Fatalf("AIR must be palette id 0, got %v", c.Items.Palette[:1])
	}
	torch, ok := c.Recipes.ByID["torch"]
	if !ok {
		t.Fatalf("missing torch recipe")
	}
	if torch.Type != RecipeShaped || torch.Results[0].Count != 4 {
		t.Fatalf("unexpected torch recipe %+v", torch)
	}
	if torch.Keys["C"].Damage != item.AnyDamage || torch.Keys["S"].Count != 1 {
		t.Fatalf("keys not normalized: %+v", torch.Keys)
	}
	if len(c.Recipes.Digest) != 64 || len(c.Items.DefsDigest) != 64 {
		t.Fatalf("expected sha256 digests")
	}
	if got := c.Recipes.Ordered(); got[0].RecipeID != "planks_from_log" {
		t.Fatalf("order not preserved: first=%s", got[0].RecipeID)
	}
}

func writeConfigs(t *testing.T, items, recipes string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "items.json"), []byte(items), 0o644); err != nil {
		t.Fatalf("write items: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "recipes.json"), []byte(recipes), 0o644); err != nil {
		t.Fatalf("write recipes: %v", err)
	}
	return dir
}

func TestLoad_UnknownItemRejected(t *testing.T) {
	dir := writeConfigs(t,
		`[{"id":"STICK"}]`,
		`[{"recipe_id":"x","type":"SHAPELESS","ingredients":[{"item":"STICK"}],"results":[{"item":"TORCH"}]}]`)
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "unknown item TORCH") {
		t.Fatalf("expected unknown item error, got %v", err)
	}
}

func TestLoad_DuplicateRecipeRejected(t *testing.T) {
	r := `{"recipe_id":"x","type":"SHAPELESS","ingredients":[{"item":"STICK"}],"results":[{"item":"STICK","count":2}]}`
	dir := writeConfigs(t, `[{"id":"STICK"}]`, "["+r+","+r+"]")
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoad_SchemaViolationRejected(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"stick"}]`, `[]`)
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "items.json") {
		t.Fatalf("expected items.json schema error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
