package seeder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"
)

const directivePrefix = "-- +seed"

type section int

const (
	sectionNone section = iota
	sectionApply
	sectionRevert
)

// SQLSeed is a parsed SQL seed file. A nil statement slice means the section
// is absent; an empty non-nil slice means it is present but empty.
type SQLSeed struct {
	Apply  []string
	Revert []string
}

// ParseSQL splits a SQL seed into its Apply and Revert statements.
//
// Statements end at a line whose trimmed text ends with ";". Lines between
// "-- +seed StatementBegin" and "-- +seed StatementEnd" form a single
// statement, for bodies that contain semicolons of their own.
func ParseSQL(r io.Reader) (*SQLSeed, error) {
	var (
		out     SQLSeed
		cur     = sectionNone
		buf     strings.Builder
		inBlock bool
		lineNo  int
	)

	flush := func() {
		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		if stmt == "" {
			return
		}
		switch cur {
		case sectionApply:
			out.Apply = append(out.Apply, stmt)
		case sectionRevert:
			out.Revert = append(out.Revert, stmt)
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, directivePrefix) {
			directive := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, directivePrefix)))
			switch directive {
			case "apply", "up":
				flush()
				cur = sectionApply
				if out.Apply == nil {
					out.Apply = []string{}
				}
			case "revert", "down":
				flush()
				cur = sectionRevert
				if out.Revert == nil {
					out.Revert = []string{}
				}
			case "statementbegin":
				if cur == sectionNone {
					return nil, fmt.Errorf("line %d: StatementBegin outside a section", lineNo)
				}
				flush()
				inBlock = true
			case "statementend":
				if !inBlock {
					return nil, fmt.Errorf("line %d: StatementEnd without StatementBegin", lineNo)
				}
				inBlock = false
				flush()
			default:
				return nil, fmt.Errorf("line %d: unknown directive %q", lineNo, trimmed)
			}
			continue
		}

		if cur == sectionNone {
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			return nil, fmt.Errorf("line %d: statement outside an Apply or Revert section", lineNo)
		}

		if !inBlock && (trimmed == "" || strings.HasPrefix(trimmed, "--")) && buf.Len() == 0 {
			continue
		}

		buf.WriteString(line)
		buf.WriteByte('\n')

		if !inBlock && strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inBlock {
		return nil, errors.New("unterminated StatementBegin block")
	}
	flush()

	return &out, nil
}

// execFunc runs statements one by one on db.
func execFunc(stmts []string) Func {
	if stmts == nil {
		return nil
	}
	return func(ctx context.Context, db *gorm.DB) error {
		for i, stmt := range stmts {
			if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil
	}
}
