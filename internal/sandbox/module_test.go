package sandbox

import (
	"errors"
	"testing"
)

func TestResolveModule(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"simple", "module foo; endmodule", "foo"},
		{"underscores", "module _my_top(input clk);", "_my_top"},
		{"first wins", "module a; endmodule\nmodule b; endmodule", "a"},
		{"leading text", "// comment\n\n  module\tAccumulator (\n", "Accumulator"},
		{"newline separator", "module\nfoo;", "foo"},
		{"skips non-keyword", "submodule x;\nmodule top;", "top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveModule(tt.code)
			if err != nil {
				t.Fatalf("ResolveModule: %v", err)
			}
			if got != tt.want {
				t.Errorf("module = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveModule_NotFound(t *testing.T) {
	for _, code := range []string{"", "endmodule", "modulefoo;", "module ;", "module 123;"} {
		_, err := ResolveModule(code)
		if !errors.Is(err, ErrModuleNotFound) {
			t.Errorf("ResolveModule(%q) error = %v, want ErrModuleNotFound", code, err)
		}
		if KindOf(err) != KindUnableToFindModule {
			t.Errorf("kind = %v, want %v", KindOf(err), KindUnableToFindModule)
		}
	}
}
