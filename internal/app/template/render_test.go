package template

import (
	"reflect"
	"testing"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

func TestRenderStringSingleVar(t *testing.T) {
	out, err := RenderString("--port={{port}}", map[string]string{"port": "9099"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "--port=9099" {
		t.Fatalf("expected replaced string, got %q", out)
	}
}

func TestRenderStringErrors(t *testing.T) {
	cases := []string{"{{missing}}", "{{ }}", "{{host"}
	for _, in := range cases {
		_, err := RenderString(in, map[string]string{"host": "h"})
		if !domain.IsKind(err, domain.KindInvalidConfig) {
			t.Fatalf("%q: expected KindInvalidConfig, got %v", in, err)
		}
	}
}

func TestLaunchSpec_DefaultServer(t *testing.T) {
	spec, err := LaunchSpec(domain.DefaultConfig().Server, "/srv")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	want := domain.LaunchSpec{
		Command: "uvicorn",
		Args: []string{
			"main:app",
			"--host", "0.0.0.0",
			"--port", "9099",
			"--forwarded-allow-ips", "*",
			"--loop", "auto",
		},
		Dir: "/srv",
	}
	if !reflect.DeepEqual(spec, want) {
		t.Fatalf("spec = %#v\nwant %#v", spec, want)
	}
}

func TestLaunchSpec_EmptyCommand(t *testing.T) {
	cfg := domain.DefaultConfig().Server
	cfg.Command = "  "
	if _, err := LaunchSpec(cfg, ""); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected KindInvalidConfig, got %v", err)
	}
}
