package raw

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("LOG_LEVEL", " warn ")
	t.Setenv("LOG_FORMAT", "")

	log := New().Prefix("LOG_")
	tests := []struct {
		name, key, def, want string
	}{
		{name: "trimmed hit", key: "LEVEL", def: "info", want: "warn"},
		{name: "empty uses default", key: "FORMAT", def: "console", want: "console"},
		{name: "missing uses default", key: "NOPE", def: "x", want: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := log.Get(tt.key, tt.def); got != tt.want {
				t.Fatalf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("APP_A", "YES")
	t.Setenv("APP_B", "1")
	t.Setenv("APP_C", " true ")
	t.Setenv("APP_D", "off")

	app := New().Prefix("APP_")
	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{"A", false, true},
		{"B", false, true},
		{"C", false, true},
		{"D", true, false},
		{"MISSING", true, true},
	}
	for _, tt := range tests {
		if got := app.GetBool(tt.key, tt.def); got != tt.want {
			t.Fatalf("GetBool(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestNestedPrefix(t *testing.T) {
	t.Setenv("CORE_LOG_MODE", "json")
	if got := New().Prefix("CORE_").Prefix("LOG_").Get("MODE", ""); got != "json" {
		t.Fatalf("nested prefix lookup = %q", got)
	}
}
