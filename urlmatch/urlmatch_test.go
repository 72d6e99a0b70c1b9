package urlmatch

import "testing"

func TestCompileAndMatch(t *testing.T) {
	p, err := Compile("/create-processing-statement/:documentNumber/add-catch-details/:catchIndex")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		match  bool
		params map[string]string
	}{
		{
			name:   "exact",
			path:   "/create-processing-statement/:documentNumber/add-catch-details/2",
			match:  true,
			params: map[string]string{"documentNumber": ":documentNumber", "catchIndex": "2"},
		},
		{
			name:   "trailing slash",
			path:   "/create-processing-statement/GBR-2026-PS-ABCDEFGHI/add-catch-details/0/",
			match:  true,
			params: map[string]string{"documentNumber": "GBR-2026-PS-ABCDEFGHI", "catchIndex": "0"},
		},
		{name: "missing segment", path: "/create-processing-statement/x/add-catch-details", match: false},
		{name: "extra segment", path: "/create-processing-statement/x/add-catch-details/0/more", match: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, ok := p.Match(tt.path)
			if ok != tt.match {
				t.Fatalf("Expected match=%v, got %v", tt.match, ok)
			}
			for k, v := range tt.params {
				if params[k] != v {
					t.Errorf("Expected param %s=%q, got %q", k, v, params[k])
				}
			}
		})
	}
}

func TestCompileRejectsBadTemplates(t *testing.T) {
	for _, tmpl := range []string{"no-slash", "/a/:", "/a/:x/:x", "/a/:9bad"} {
		if _, err := Compile(tmpl); err == nil {
			t.Errorf("Expected error for %q", tmpl)
		}
	}
}

func TestCompileQuotesLiterals(t *testing.T) {
	p, err := Compile("/a.b/:id")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := p.Match("/aXb/1"); ok {
		t.Error("Expected dot to match literally")
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	var table Table[string]
	if err := table.Add("/doc/:documentNumber/catches/new", "static"); err != nil {
		t.Fatal(err)
	}
	if err := table.Add("/doc/:documentNumber/catches/:catchIndex", "param"); err != nil {
		t.Fatal(err)
	}
	if err := table.Add("/doc/:documentNumber/catches/new", "dup"); err == nil {
		t.Error("Expected duplicate registration to fail")
	}

	h, _, ok := table.Match("/doc/x/catches/new?x=1")
	if !ok || h != "static" {
		t.Errorf("Expected static handler, got %q (%v)", h, ok)
	}
	h, params, ok := table.Match("/doc/x/catches/4")
	if !ok || h != "param" || params["catchIndex"] != "4" {
		t.Errorf("Expected param handler with index 4, got %q %v", h, params)
	}
	if _, _, ok := table.Match("/unknown"); ok {
		t.Error("Expected no match")
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", table.Len())
	}
}
