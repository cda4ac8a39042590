package bundler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestCompilationAssetOrder(t *testing.T) {
	c := newCompilation(nil)
	c.chunks = []*Chunk{{Name: "main", Files: []string{"main.1234abcd.js", "main.1234abcd.js.map"}}}

	for _, name := range []string{"main.1234abcd.js", "main.1234abcd.js.map", "index.html"} {
		if err := c.EmitAsset(name, []byte(name)); err != nil {
			t.Fatalf("EmitAsset: %v", err)
		}
	}
	if err := c.EmitAsset("index.html", nil); err == nil {
		t.Error("expected duplicate emit to fail")
	}

	if err := c.RenameAsset("main.1234abcd.js", "main.js"); err != nil {
		t.Fatalf("RenameAsset: %v", err)
	}
	if want := []string{"main.js", "main.1234abcd.js.map", "index.html"}; !reflect.DeepEqual(c.AssetNames(), want) {
		t.Errorf("expected %v, got %v", want, c.AssetNames())
	}
	if c.Chunk("main").Files[0] != "main.js" {
		t.Errorf("expected chunk files to follow rename, got %v", c.Chunk("main").Files)
	}
	if source, _ := c.Asset("main.js"); string(source) != "main.1234abcd.js" {
		t.Errorf("expected source to move with the asset, got %s", source)
	}

	if err := c.RenameAsset("main.js", "index.html"); err == nil {
		t.Error("expected rename onto an existing asset to fail")
	}
	if err := c.UpdateAsset("missing.js", nil); err == nil {
		t.Error("expected update of a missing asset to fail")
	}

	c.DeleteAsset("main.1234abcd.js.map")
	if want := []string{"main.js", "index.html"}; !reflect.DeepEqual(c.AssetNames(), want) {
		t.Errorf("expected %v, got %v", want, c.AssetNames())
	}
	if len(c.Chunk("main").Files) != 1 {
		t.Errorf("expected deleted asset to leave the chunk, got %v", c.Chunk("main").Files)
	}
}

func TestProcessAssetsStageOrder(t *testing.T) {
	c := newCompilation(nil)

	var order []string
	record := func(name string) func(*Compilation) error {
		return func(*Compilation) error {
			order = append(order, name)
			return nil
		}
	}

	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "summarize", Stage: ProcessAssetsStageSummarize}, record("summarize"))
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "additional", Stage: ProcessAssetsStageAdditional}, record("additional"))
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "optimize-a", Stage: ProcessAssetsStageOptimize}, record("optimize-a"))
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "optimize-b", Stage: ProcessAssetsStageOptimize}, record("optimize-b"))

	c.processAssets()

	if want := "additional,optimize-a,optimize-b,summarize"; strings.Join(order, ",") != want {
		t.Errorf("expected %s, got %s", want, strings.Join(order, ","))
	}
}

func TestProcessAssetsAdditionalAssets(t *testing.T) {
	c := newCompilation(nil)
	c.EmitAsset("main.js", []byte("m"))

	var seen [][]string
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "manifest", Stage: ProcessAssetsStageSummarize, AdditionalAssets: true}, func(c *Compilation) error {
		seen = append(seen, c.AssetNames())
		return nil
	})
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "once", Stage: ProcessAssetsStageOptimize}, func(c *Compilation) error {
		seen = append(seen, nil)
		return nil
	})
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "late", Stage: ProcessAssetsStageReport}, func(c *Compilation) error {
		return c.EmitAsset("report.json", []byte("{}"))
	})

	c.processAssets()

	if len(seen) != 3 {
		t.Fatalf("expected 3 tap runs, got %d", len(seen))
	}
	if !reflect.DeepEqual(seen[1], []string{"main.js"}) {
		t.Errorf("expected first manifest run on main.js only, got %v", seen[1])
	}
	if !reflect.DeepEqual(seen[2], []string{"main.js", "report.json"}) {
		t.Errorf("expected re-run to see report.json, got %v", seen[2])
	}
}

func TestProcessAssetsCollectsErrors(t *testing.T) {
	c := newCompilation(nil)
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "failing"}, func(*Compilation) error {
		return errors.New("boom")
	})
	ran := false
	c.Hooks.ProcessAssets.Tap(TapOptions{Name: "next", Stage: 1}, func(*Compilation) error {
		ran = true
		return nil
	})

	c.processAssets()

	if len(c.Errors) != 1 || c.Errors[0].Error() != "failing: boom" {
		t.Errorf("expected one wrapped error, got %v", c.Errors)
	}
	if !ran {
		t.Error("expected later taps to run after an error")
	}
}
