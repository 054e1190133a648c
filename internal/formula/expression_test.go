package formula

import (
	"errors"
	"testing"
)

func vars(kv ...interface{}) Vars {
	v := make(Vars)
	for i := 0; i < len(kv)-1; i += 2 {
		v[kv[i].(string)] = kv[i+1].(float64)
	}
	return v
}

type evalCase struct {
	name    string
	expr    string
	vars    Vars
	want    float64
	wantErr bool
}

func TestEvaluate(t *testing.T) {
	cases := []evalCase{
		// Arithmetic
		{
			name: "literal",
			expr: "1.5",
			want: 1.5,
		},
		{
			name: "precedence",
			expr: "1 + 2 * 3",
			want: 7,
		},
		{
			name: "parentheses",
			expr: "(1 + 2) * 3",
			want: 9,
		},
		{
			name: "left associative minus",
			expr: "10 - 4 - 3",
			want: 3,
		},
		{
			name: "unary minus",
			expr: "-size + 4",
			vars: vars("size", float64(1)),
			want: 3,
		},
		{
			name: "binary minus without spaces",
			expr: "size-1",
			vars: vars("size", float64(10)),
			want: 9,
		},
		{
			name: "exponent literal",
			expr: "2e-1 * 10",
			want: 2,
		},
		// Fields
		{
			name: "dotted field",
			expr: "edge.cost * 2 + target.size",
			vars: vars("edge.cost", float64(1.5), "target.size", float64(4)),
			want: 7,
		},
		{
			name: "linear network",
			expr: "0.5 + size * 0.1",
			vars: vars("size", float64(10)),
			want: 1.5,
		},
		// Comparisons yield 1 or 0
		{
			name: "gt true",
			expr: "size > 100",
			vars: vars("size", float64(150)),
			want: 1,
		},
		{
			name: "gte equal",
			expr: "size >= 100",
			vars: vars("size", float64(100)),
			want: 1,
		},
		{
			name: "eq tolerance",
			expr: "0.1 + 0.2 == 0.3",
			want: 1,
		},
		{
			name: "piecewise",
			expr: "(size > 100) * 5 + 1",
			vars: vars("size", float64(50)),
			want: 1,
		},
		// AND / OR / NOT
		{
			name: "AND both true",
			expr: "pid == 0 AND size > 1",
			vars: vars("pid", float64(0), "size", float64(2)),
			want: 1,
		},
		{
			name: "OR short-circuits past missing field",
			expr: "true OR missing > 1",
			want: 1,
		},
		{
			name: "AND short-circuits past missing field",
			expr: "false AND missing > 1",
			want: 0,
		},
		{
			name: "NOT",
			expr: "NOT size > 1000",
			vars: vars("size", float64(500)),
			want: 1,
		},
		// Functions
		{
			name: "max",
			expr: "max(edge.cost, 0.5, 0.25)",
			vars: vars("edge.cost", float64(0.1)),
			want: 0.5,
		},
		{
			name: "min",
			expr: "min(size, 3)",
			vars: vars("size", float64(10)),
			want: 3,
		},
		{
			name: "abs",
			expr: "abs(source - target)",
			vars: vars("source", float64(1), "target", float64(3)),
			want: 2,
		},
		// Error cases
		{
			name:    "unknown field",
			expr:    "missing > 10",
			vars:    vars("size", float64(100)),
			wantErr: true,
		},
		{
			name:    "division by zero",
			expr:    "1 / size",
			vars:    vars("size", float64(0)),
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ast, err := Parse(tc.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.expr, err)
			}
			got, err := Evaluate(ast, tc.vars)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil (result=%v)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate error: %v", err)
			}
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvaluate_DivisionByZeroIsTyped(t *testing.T) {
	ast, err := Parse("1 / 0")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Evaluate(ast, nil); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("got %v, want ErrDivisionByZero", err)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		`size 1000`, // missing operator
		``,
		`(1 + 2`,
		`1 +`,
		`size = 1`,
		`nope(1)`,
		`abs(1, 2)`,
		`1 $ 2`,
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			if err == nil {
				t.Errorf("expected parse error for %q, got nil", expr)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	f, err := Compile("edge.cost * factor", "edge.cost", "factor")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	got, err := f.Eval(Vars{"edge.cost": 2, "factor": 3})
	if err != nil || got != 6 {
		t.Fatalf("Eval = %v, %v; want 6, nil", got, err)
	}
	if f.String() != "edge.cost * factor" {
		t.Errorf("String() = %q", f.String())
	}

	if _, err := Compile("edge.cost + size", "edge.cost"); err == nil {
		t.Fatal("expected unknown variable error")
	}
}

func TestFields(t *testing.T) {
	ast, err := Parse("max(b, a) + -c * (a > 1) OR NOT d")
	if err != nil {
		t.Fatal(err)
	}
	got := Fields(ast)
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("Fields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Fields = %v, want %v", got, want)
		}
	}
}
