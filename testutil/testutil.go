// Package testutil is the YAML fixture runner (expansion, SPEC_FULL.md
// §8): testdata/*.yml fixtures carry current/desired schema text plus
// the expected forward (up) and reverse (down) DDL, and ReadTests/
// RunTest drive them through the real schema/diff/order/dialect/
// database pipeline, grounded on the teacher's cmd/testutils/
// testutils.go ReadTests/RunTest.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/diff"
)

// TestCase is one named fixture entry. Current/Desired are DDL text in
// the fixture's dialect; Up/Down are the expected rendered migration in
// each direction. A fixture with neither Up nor Down set is an
// idempotency-only check: applying Desired twice must produce nothing
// the second time.
type TestCase struct {
	Current      string
	Desired      string
	Up           *string
	Down         *string
	Error        *string
	MinVersion   string `yaml:"min_version"`
	EnableDrop   *bool  `yaml:"enable_drop"`
	ManagedTable string `yaml:"managed_table"`
}

// ReadTests loads every testdata/*.yml file matching pattern into one
// map keyed by test case name, failing on a duplicate name across
// files the same way the teacher's ReadTests does.
func ReadTests(pattern string) (map[string]TestCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	ret := map[string]TestCase{}
	seenIn := map[string]string{}
	for _, file := range files {
		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		var tests map[string]*TestCase
		dec := yaml.NewDecoder(bytes.NewReader(buf))
		if err := dec.Decode(&tests); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		for name, test := range tests {
			if other, ok := seenIn[name]; ok {
				return nil, fmt.Errorf("duplicate test case name %q: defined in both %q and %q", name, other, file)
			}
			seenIn[name] = file
			ret[name] = *test
		}
	}
	return ret, nil
}

// RunTest drives one fixture against a live (or fake, in unit tests)
// dialect.Database end to end: apply Current, assert Current is
// idempotent, migrate to Desired and, when Up is set, assert the
// rendered SQL matches Up, assert Desired is
// idempotent, then — if Down is set — migrate back to Current and
// assert that matches Down too.
func RunTest(t *testing.T, ctx context.Context, d dialect.Dialect, db dialect.Database, test TestCase) {
	t.Helper()

	enableDrop := true
	if test.EnableDrop != nil {
		enableDrop = *test.EnableDrop
	}
	cfg := database.GeneratorConfig{EnableDrop: enableDrop}

	if test.Current != "" {
		plan, err := database.BuildPlan(ctx, d, db, test.Current, database.GeneratorConfig{EnableDrop: true})
		require.NoError(t, err)
		require.NoError(t, db.RunStatements(ctx, plan.Statements))
	}

	assertIdempotent(t, ctx, d, db, test.Current, cfg, "current")

	plan, err := database.BuildPlan(ctx, d, db, test.Desired, cfg)
	if test.Error != nil {
		require.Error(t, err)
		assert.Equal(t, *test.Error, err.Error())
		return
	}
	require.NoError(t, err)

	if test.Up != nil {
		assert.Equal(t, strings.TrimSpace(*test.Up), strings.TrimSpace(joinStatements(plan.Statements)), "forward migration did not produce the expected DDL")
	}

	require.NoError(t, db.RunStatements(ctx, plan.Statements))
	assertIdempotent(t, ctx, d, db, test.Desired, cfg, "desired")

	if test.Down == nil {
		return
	}

	backPlan, err := database.BuildPlan(ctx, d, db, test.Current, cfg)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(*test.Down), strings.TrimSpace(joinStatements(backPlan.Statements)), "reverse migration did not produce the expected DDL")

	require.NoError(t, db.RunStatements(ctx, backPlan.Statements))
	assertIdempotent(t, ctx, d, db, test.Current, cfg, "current (after reverse migration)")
}

func assertIdempotent(t *testing.T, ctx context.Context, d dialect.Dialect, db dialect.Database, desiredSQL string, cfg database.GeneratorConfig, label string) {
	t.Helper()
	plan, err := database.BuildPlan(ctx, d, db, desiredSQL, cfg)
	require.NoError(t, err)
	if len(plan.Statements) > 0 {
		t.Errorf("%s schema is not idempotent: reapplying it produced:\n%s", label, joinStatements(plan.Statements))
	}
}

func joinStatements(statements []diff.Statement) string {
	var b strings.Builder
	for _, stmt := range statements {
		if stmt.IsBatchBoundary {
			continue
		}
		b.WriteString(stmt.SQL)
		b.WriteString(";\n")
	}
	return b.String()
}

// MinVersionSatisfied reports whether version meets test's min_version
// constraint (dotted-numeric comparison, left-to-right, missing
// segments treated as equal), grounded on the teacher's compareVersion.
func MinVersionSatisfied(test TestCase, version string) bool {
	if test.MinVersion == "" || version == "" {
		return true
	}
	return compareVersion(version, test.MinVersion) >= 0
}

func compareVersion(left, right string) int {
	ls := strings.Split(left, ".")
	rs := strings.Split(right, ".")
	n := len(ls)
	if len(rs) < n {
		n = len(rs)
	}
	for i := 0; i < n; i++ {
		l, lerr := strconv.Atoi(ls[i])
		r, rerr := strconv.Atoi(rs[i])
		if lerr != nil || rerr != nil {
			continue
		}
		if l != r {
			return l - r
		}
	}
	return 0
}
