// Package cli is the main routine shared by every cmd/*def binary
// (psqldef, mysqldef, sqlite3def, mssqldef), grounded on the teacher's
// root sqldef.go Run/readFile/showDDLs, generalized to drive
// schema/diff/order/dialect through database.BuildPlan/database.Run
// instead of the teacher's monolithic GenerateIdempotentDDLs.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
)

// Options is the CLI-facing counterpart to database.GeneratorConfig:
// the flags every cmd/*def binary parses regardless of dialect.
type Options struct {
	File    string
	Export  bool
	DryRun  bool
	Verbose bool
	Config  database.GeneratorConfig
}

// Run drives one CLI invocation to completion: --export dumps the
// current schema through the dialect's ToSQL, otherwise it reads the
// desired DDL, builds a plan, and either prints it (--dry-run) or
// applies it, exactly the branch structure of the teacher's sqldef.Run.
func Run(ctx context.Context, d dialect.Dialect, db dialect.Database, logger database.Logger, opts Options) error {
	if opts.Export {
		snap, err := db.DumpSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("dumping current schema: %w", err)
		}
		ddl := d.ToSQL(snap)
		if ddl == "" {
			logger.Println("-- No schema exists --")
		} else {
			logger.Print(ddl)
		}
		return nil
	}

	desiredSQL, err := readSQL(opts.File)
	if err != nil {
		return fmt.Errorf("reading %q: %w", opts.File, err)
	}

	plan, err := database.BuildPlan(ctx, d, db, desiredSQL, opts.Config)
	if err != nil {
		return err
	}

	if opts.Verbose && len(plan.Diagnostics.SkippedOps) > 0 {
		pp.Println(plan.Diagnostics.SkippedOps)
	}

	if len(plan.Statements) == 0 && len(plan.Diagnostics.SkippedOps) == 0 {
		logger.Println("-- Nothing is modified --")
		return nil
	}

	return database.Run(ctx, db, plan, logger, opts.DryRun)
}

// readSQL mirrors the teacher's readFile: "-" reads the desired DDL
// from stdin (refusing an interactive terminal with nothing piped),
// anything else is a plain file path.
func readSQL(path string) (string, error) {
	if path == "-" || path == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", fmt.Errorf("stdin is not piped")
		}
		var buf bytes.Buffer
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
		for scanner.Scan() {
			buf.WriteString(scanner.Text())
			buf.WriteByte('\n')
		}
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
