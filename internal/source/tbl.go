package source

import (
	"strconv"
	"strings"

	"sysgen/internal/model"
)

// TblParser parses `arch/x86/entry/syscalls/syscall_64.tbl`: fixed-column
// text, one syscall per line, fields number / ABI / name / entry point. It is
// the mandatory source, authoritative for numbering and the baseline name and
// entry symbol.
type TblParser struct {
	text string
}

func NewTblParser(text string) *TblParser {
	return &TblParser{text: text}
}

func (p *TblParser) Name() string { return Tbl }

func (p *TblParser) Parse(opts Options) (*Result, error) {
	res := &Result{}

	for i, line := range strings.Split(p.text, "\n") {
		lineno := i + 1
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// 0	common	read	sys_read
		// The entry point is absent for unimplemented syscalls.
		fields := strings.Fields(line)
		if len(fields) < 3 {
			if opts.Mode == ModeStrict {
				return nil, &ParseError{Source: Tbl, Line: lineno, Reason: "too few fields: " + line}
			}
			res.Diags.Addf(Tbl, lineno, DiagMalformed, "too few fields: %s", line)
			continue
		}

		number, err := strconv.Atoi(fields[0])
		if err != nil || number < 0 {
			if opts.Mode == ModeStrict {
				return nil, &ParseError{Source: Tbl, Line: lineno, Reason: "bad syscall number: " + fields[0]}
			}
			res.Diags.Addf(Tbl, lineno, DiagMalformed, "bad syscall number: %s", fields[0])
			continue
		}

		// The x32 ABI shares the table but is not part of x86_64 proper.
		abi := fields[1]
		if abi != "common" && abi != "64" {
			continue
		}

		partial := model.NewPartial(Tbl)
		partial.Number = number
		partial.ABI = abi
		partial.Name = model.String(fields[2])
		if len(fields) >= 4 {
			partial.Entry = model.String(fields[3])
		}
		res.Partials = append(res.Partials, partial)
	}

	return res, nil
}
