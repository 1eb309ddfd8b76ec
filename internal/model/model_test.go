package model

import "testing"

func TestStr(t *testing.T) {
	var unknown Str
	if unknown.Known || unknown.Or("fallback") != "fallback" {
		t.Errorf("zero Str = %+v", unknown)
	}
	// A source stating an empty string is not the same as silence.
	empty := String("")
	if !empty.Known || empty.Or("fallback") != "" {
		t.Errorf("String(\"\") = %+v", empty)
	}
}

func TestPrototype(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{Name: String("uselib")}, "? uselib(?)"},
		{Record{Name: String("fork"), Return: String("pid_t"), Params: []Param{}}, "pid_t fork()"},
		{
			Record{
				Name:   String("exit"),
				Return: String("void"),
				Params: []Param{{Type: String("int"), Name: String("error_code")}},
			},
			"void exit(int error_code)",
		},
		{
			// Parameter types without names, names without types.
			Record{
				Name: String("write"),
				Params: []Param{
					{Type: String("int")},
					{Name: String("buf")},
				},
			},
			"? write(int, ? buf)",
		},
	}
	for _, tt := range tests {
		if got := tt.rec.Prototype(); got != tt.want {
			t.Errorf("Prototype() = %q, want %q", got, tt.want)
		}
	}
}

func TestRecordSources(t *testing.T) {
	var r Record
	r.AddSource("tbl")
	r.AddSource("linux")
	r.AddSource("tbl")
	if len(r.Sources) != 2 {
		t.Errorf("Sources = %v", r.Sources)
	}
	if !r.HasSource("linux") || r.HasSource("man") {
		t.Errorf("HasSource wrong: %v", r.Sources)
	}
}

func TestTableLookup(t *testing.T) {
	table := &Table{Records: []Record{{Number: 0}, {Number: 60}}}
	if rec := table.Lookup(60); rec == nil || rec.Number != 60 {
		t.Errorf("Lookup(60) = %+v", rec)
	}
	if rec := table.Lookup(61); rec != nil {
		t.Errorf("Lookup(61) = %+v", rec)
	}
}

func valid() *Table {
	return &Table{Records: []Record{
		{Number: 0, Name: String("read"), Sources: []string{"tbl"}},
		{Number: 1, Name: String("write"), Sources: []string{"tbl"}},
		{Number: 134, Sources: []string{"tbl"}},
	}}
}

func TestValidate(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Errorf("valid table rejected: %v", err)
	}

	tests := []struct {
		name  string
		mutat func(*Table)
	}{
		{"empty", func(t *Table) { t.Records = nil }},
		{"duplicate number", func(t *Table) { t.Records[1].Number = 0 }},
		{"out of order", func(t *Table) { t.Records[0].Number = 200 }},
		{"negative number", func(t *Table) { t.Records[0].Number = -5 }},
		{"known field without source", func(t *Table) { t.Records[0].Sources = nil }},
	}
	for _, tt := range tests {
		table := valid()
		tt.mutat(table)
		err := Validate(table)
		if err == nil {
			t.Errorf("%s: accepted", tt.name)
			continue
		}
		if _, ok := err.(*ValidationError); !ok {
			t.Errorf("%s: error = %T, want *ValidationError", tt.name, err)
		}
	}
}
