package diff

import "github.com/stateql/stateql/schema"

// RebuildStep tags one of the six SQLite table-rebuild steps (§4.4).
type RebuildStep int

const (
	StepCreateShadowTable RebuildStep = iota
	StepCopyData
	StepDropOldTable
	StepRenameShadowTable
	StepRecreateIndexes
	StepRecreateTriggers
)

func (s RebuildStep) String() string {
	switch s {
	case StepCreateShadowTable:
		return "CreateShadowTable"
	case StepCopyData:
		return "CopyData"
	case StepDropOldTable:
		return "DropOldTable"
	case StepRenameShadowTable:
		return "RenameShadowTable"
	case StepRecreateIndexes:
		return "RecreateIndexes"
	case StepRecreateTriggers:
		return "RecreateTriggers"
	default:
		return "Unknown"
	}
}

// ShadowTablePrefix names the temporary table used by the SQLite rebuild
// plan (§4.4, glossary "Shadow table").
const ShadowTablePrefix = "__stateql_rebuild_"

// ShadowTableName returns the shadow table name for a given table.
func ShadowTableName(name schema.Ident) schema.Ident {
	return schema.NewIdent(ShadowTablePrefix + name.Value)
}

// Context tags a Statement with rendering/execution metadata beyond the
// raw SQL text (§6's Statement stream Context variant).
type Context struct {
	IsSqliteRebuild bool
	Table           schema.QualifiedName
	Step            RebuildStep
}

// Statement is one entry in the core-to-executor stream (§6): either a
// SQL statement (optionally transactional, optionally tagged with a
// rebuild Context) or a BatchBoundary marking a batch split; whether a
// boundary ends the transaction is up to the executing adapter (see
// dialect.Database).
type Statement struct {
	IsBatchBoundary bool
	SQL             string
	Transactional   bool
	Context         *Context
}

// SQLStatement constructs an ordinary transactional statement.
func SQLStatement(sql string) Statement {
	return Statement{SQL: sql, Transactional: true}
}

// BatchBoundary is the stream's batch-split marker.
func BatchBoundary() Statement {
	return Statement{IsBatchBoundary: true}
}
