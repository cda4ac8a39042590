package html

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestScriptSources(t *testing.T) {
	page := []byte(`<!DOCTYPE html><html><head><script defer src="main.js"></script><script>inline()</script></head>
<body><script src="vendor/lib.js"></script><script src=""></script></body></html>`)

	sources, err := ScriptSources(page)
	if err != nil {
		t.Fatalf("ScriptSources: %v", err)
	}
	if want := []string{"main.js", "vendor/lib.js"}; !reflect.DeepEqual(sources, want) {
		t.Errorf("expected %v, got %v", want, sources)
	}
}

func TestRenderWithScriptNode(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<!DOCTYPE html><html><head><title> App </title></head><body></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	doc.Find("head").AppendNodes(ScriptNode("main.js"))

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(string(out), "<!DOCTYPE html>") {
		t.Errorf("expected doctype, got %s", out)
	}
	if !strings.Contains(string(out), `<script defer="" src="main.js"></script>`) {
		t.Errorf("expected script tag, got %s", out)
	}

	title, err := Title(out)
	if err != nil || title != "App" {
		t.Errorf("expected title App, got %q (%v)", title, err)
	}
}
