package scenario

import (
	"errors"
	"testing"
)

func TestParseValid(t *testing.T) {
	s, err := Parse([]byte(`
title = "order total"

[[cells]]
name = "price"
value = 3.5

[[cells]]
name = "qty"
value = 2

[[sets]]
name = "tags"
items = ["sale", "new"]

[[nodes]]
name = "total"
op = "mul"
inputs = ["price", "qty"]

[[nodes]]
name = "tag-count"
op = "count"
inputs = ["tags"]

[[transactions]]
  [[transactions.set]]
  cell = "qty"
  value = 5

  [[transactions.add]]
  set = "tags"
  item = "clearance"

outputs = ["total", "tag-count"]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Title != "order total" {
		t.Errorf("Title = %q", s.Title)
	}
	if len(s.Cells) != 2 || len(s.Sets) != 1 || len(s.Nodes) != 2 {
		t.Errorf("declaration counts = %d cells, %d sets, %d nodes",
			len(s.Cells), len(s.Sets), len(s.Nodes))
	}
	if len(s.Transactions) != 1 || len(s.Transactions[0].Set) != 1 || len(s.Transactions[0].Add) != 1 {
		t.Errorf("transactions not decoded: %+v", s.Transactions)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		wantErr error
	}{
		{
			name: "duplicate name",
			toml: `
[[cells]]
name = "x"
value = 1
[[cells]]
name = "x"
value = 2
`,
			wantErr: ErrDuplicateName,
		},
		{
			name: "unknown op",
			toml: `
[[cells]]
name = "x"
value = 1
[[nodes]]
name = "n"
op = "median"
inputs = ["x"]
`,
			wantErr: ErrUnknownOp,
		},
		{
			name: "forward reference",
			toml: `
[[nodes]]
name = "a"
op = "sum"
inputs = ["b"]
[[nodes]]
name = "b"
op = "sum"
inputs = ["a"]
`,
			wantErr: ErrUnknownName,
		},
		{
			name: "sub needs two inputs",
			toml: `
[[cells]]
name = "x"
value = 1
[[nodes]]
name = "n"
op = "sub"
inputs = ["x"]
`,
			wantErr: ErrArity,
		},
		{
			name: "count wants a set",
			toml: `
[[cells]]
name = "x"
value = 1
[[nodes]]
name = "n"
op = "count"
inputs = ["x"]
`,
			wantErr: ErrArity,
		},
		{
			name: "numeric op over a set",
			toml: `
[[sets]]
name = "s"
items = ["a"]
[[nodes]]
name = "n"
op = "sum"
inputs = ["s"]
`,
			wantErr: ErrArity,
		},
		{
			name: "set as output",
			toml: `
outputs = ["s"]
[[sets]]
name = "s"
items = ["a"]
`,
			wantErr: ErrArity,
		},
		{
			name: "transaction writes unknown cell",
			toml: `
[[cells]]
name = "x"
value = 1
[[transactions]]
  [[transactions.set]]
  cell = "y"
  value = 2
`,
			wantErr: ErrUnknownName,
		},
		{
			name: "force targets a cell",
			toml: `
[[cells]]
name = "x"
value = 1
[[transactions]]
force = ["x"]
`,
			wantErr: ErrUnknownName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
