package render

import (
	"strings"
	"testing"
)

func TestRender_HeadingsAndHTML(t *testing.T) {
	src := "# Hello World\n\nSome *text*.\n\n## Second Part\n\n- [x] done\n"
	res, err := New().Render([]byte(src))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Headings) != 2 {
		t.Fatalf("headings = %+v", res.Headings)
	}
	if res.Headings[0].Level != 1 || res.Headings[0].ID != "hello-world" || res.Headings[0].Text != "Hello World" {
		t.Errorf("heading[0] = %+v", res.Headings[0])
	}
	if !strings.Contains(res.HTML, `<h2 id="second-part">Second Part</h2>`) {
		t.Errorf("html = %s", res.HTML)
	}
	if !strings.Contains(res.HTML, `type="checkbox"`) {
		t.Errorf("task list not rendered: %s", res.HTML)
	}
}

func TestRender_EscapesRawHTML(t *testing.T) {
	res, err := New().Render([]byte("<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.HTML, "<script>") {
		t.Errorf("raw html leaked: %s", res.HTML)
	}
}

func TestRender_Linkify(t *testing.T) {
	res, _ := New().Render([]byte("see https://example.com now"))
	if !strings.Contains(res.HTML, `<a href="https://example.com">`) {
		t.Errorf("html = %s", res.HTML)
	}
}
