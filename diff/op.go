// Package diff computes the unordered set of reconciliation operations
// between two normalized schema.Snapshot values (§4.2), plus the
// view-rebuild (§4.3) and SQLite table-rebuild (§4.4) expansions.
package diff

import "github.com/stateql/stateql/schema"

// OpKind tags one of the 48 DiffOp variants (§6, §9). The vocabulary is a
// closed tagged union: every consumer (order.Order, a dialect's
// generate_ddl, diagnostics) matches it exhaustively, enforced here by
// ExpectedOpKindCount and, at test time, by a switch-exhaustiveness check.
type OpKind int

const (
	OpDropPolicy OpKind = iota
	OpDropTrigger
	OpDropView
	OpDropMaterializedView
	OpDropForeignKey
	OpDropIndex
	OpDropTable
	OpDropSequence
	OpDropDomain
	OpDropType
	OpDropFunction
	OpDropSchema
	OpDropExtension
	OpCreateExtension
	OpCreateSchema
	OpCreateType
	OpAlterType
	OpCreateDomain
	OpAlterDomain
	OpCreateSequence
	OpAlterSequence
	OpCreateTable
	OpRenameTable
	OpRenameColumn
	OpAlterColumn
	OpAddColumn
	OpDropColumn
	OpAddPrimaryKey
	OpDropPrimaryKey
	OpAddCheck
	OpDropCheck
	OpAddExclusion
	OpDropExclusion
	OpAddPartition
	OpDropPartition
	OpSetTableOptions
	OpAddForeignKey
	OpCreateView
	OpCreateMaterializedView
	OpAddIndex
	OpRenameIndex
	OpCreateTrigger
	OpCreateFunction
	OpCreatePolicy
	OpSetComment
	OpDropComment
	OpGrant
	OpRevoke

	opKindCount
)

// ExpectedOpKindCount is the closed union's stable size (§9).
const ExpectedOpKindCount = int(opKindCount)

var opKindTags = [...]string{
	"DropPolicy", "DropTrigger", "DropView", "DropMaterializedView",
	"DropForeignKey", "DropIndex", "DropTable", "DropSequence", "DropDomain",
	"DropType", "DropFunction", "DropSchema", "DropExtension",
	"CreateExtension", "CreateSchema", "CreateType", "AlterType",
	"CreateDomain", "AlterDomain", "CreateSequence", "AlterSequence",
	"CreateTable", "RenameTable", "RenameColumn", "AlterColumn", "AddColumn",
	"DropColumn", "AddPrimaryKey", "DropPrimaryKey", "AddCheck", "DropCheck",
	"AddExclusion", "DropExclusion", "AddPartition", "DropPartition",
	"SetTableOptions", "AddForeignKey", "CreateView", "CreateMaterializedView",
	"AddIndex", "RenameIndex", "CreateTrigger", "CreateFunction",
	"CreatePolicy", "SetComment", "DropComment", "Grant", "Revoke",
}

// Tag returns the DiffOp's stable variant-name string, used by
// diagnostics and test fixtures (diffop_variant_tag in §6).
func (k OpKind) Tag() string {
	if int(k) < 0 || int(k) >= len(opKindTags) {
		return "Unknown"
	}
	return opKindTags[k]
}

// IsDestructive reports whether this variant is gated by
// DiffConfig.EnableDrop (§4.2: every Drop* op, plus Revoke and
// DropComment).
func (k OpKind) IsDestructive() bool {
	switch k {
	case OpDropPolicy, OpDropTrigger, OpDropView, OpDropMaterializedView,
		OpDropForeignKey, OpDropIndex, OpDropTable, OpDropSequence,
		OpDropDomain, OpDropType, OpDropFunction, OpDropSchema,
		OpDropExtension, OpDropColumn, OpDropPrimaryKey, OpDropCheck,
		OpDropExclusion, OpDropPartition, OpRevoke, OpDropComment:
		return true
	default:
		return false
	}
}

// Priority returns the op's priority group (1-30, §4.5). Lower runs
// first.
func (k OpKind) Priority() int {
	switch k {
	case OpDropPolicy:
		return 1
	case OpDropTrigger:
		return 2
	case OpDropView, OpDropMaterializedView:
		return 3
	case OpDropForeignKey:
		return 4
	case OpDropIndex:
		return 5
	case OpDropTable:
		return 6
	case OpDropSequence:
		return 7
	case OpDropDomain:
		return 8
	case OpDropType:
		return 9
	case OpDropFunction:
		return 10
	case OpDropSchema:
		return 11
	case OpDropExtension:
		return 12
	case OpCreateExtension:
		return 13
	case OpCreateSchema:
		return 14
	case OpCreateType:
		return 15
	case OpAlterType:
		return 16
	case OpCreateDomain:
		return 17
	case OpAlterDomain:
		return 18
	case OpCreateSequence:
		return 19
	case OpAlterSequence:
		return 20
	case OpCreateTable:
		return 21
	case OpRenameTable, OpRenameColumn, OpAlterColumn, OpAddColumn, OpDropColumn,
		OpAddPrimaryKey, OpDropPrimaryKey, OpAddCheck, OpDropCheck,
		OpAddExclusion, OpDropExclusion, OpAddPartition, OpDropPartition,
		OpSetTableOptions:
		return 22
	case OpAddForeignKey:
		return 23
	case OpCreateView:
		return 24
	case OpCreateMaterializedView:
		return 25
	case OpAddIndex, OpRenameIndex:
		return 26
	case OpCreateTrigger, OpCreateFunction:
		return 27
	case OpCreatePolicy:
		return 28
	case OpSetComment, OpDropComment:
		return 29
	case OpGrant, OpRevoke:
		return 30
	default:
		return 99
	}
}

// TableSubPriority returns the intra-table sub-ordering used within
// priority group 22 (§4.5): RenameTable(0) .. TableOptions(8).
func (k OpKind) TableSubPriority() int {
	switch k {
	case OpRenameTable:
		return 0
	case OpRenameColumn:
		return 1
	case OpAlterColumn:
		return 2
	case OpAddColumn:
		return 3
	case OpDropColumn:
		return 4
	case OpAddPrimaryKey, OpDropPrimaryKey:
		return 5
	case OpAddCheck, OpDropCheck, OpAddExclusion, OpDropExclusion:
		return 6
	case OpAddPartition, OpDropPartition:
		return 7
	case OpSetTableOptions:
		return 8
	default:
		return 9
	}
}

// Op is a single DiffOp. Only the fields relevant to Kind are populated,
// mirroring schema.Expr's flattened tagged-union shape (§9: "prefer
// language features that enforce exhaustiveness at the match site;
// otherwise enforce via a central tag(op) function").
type Op struct {
	Kind OpKind

	// Table-identifying ops: CreateTable/DropTable and every
	// TableScoped op (owner table name).
	Table schema.QualifiedName

	// OpCreateTable
	NewTable *schema.Table

	// OpRenameTable
	NewTableName schema.QualifiedName

	// OpAddColumn / OpAlterColumn (pre-change) / OpDropColumn / OpRenameColumn
	Column       schema.Column
	ColumnName   schema.Ident
	NewColumnName schema.Ident
	ColumnChanges []ColumnChange

	// OpAddPrimaryKey / OpDropPrimaryKey
	PrimaryKey schema.IndexDef

	// OpAddCheck / OpDropCheck
	Check     schema.CheckConstraint
	CheckName schema.Ident

	// OpAddExclusion / OpDropExclusion
	Exclusion     schema.ExclusionConstraint
	ExclusionName schema.Ident

	// OpAddPartition / OpDropPartition
	Partition     schema.PartitionElement
	PartitionName schema.Ident

	// OpSetTableOptions
	TableOptions map[string]string

	// OpAddForeignKey / OpDropForeignKey
	ForeignKey     schema.ForeignKey
	ForeignKeyName schema.Ident

	// OpAddIndex / OpDropIndex / OpRenameIndex
	Index         schema.IndexDef
	IndexName     schema.Ident
	NewIndexName  schema.Ident

	// OpCreateView / OpDropView
	View     *schema.View
	ViewName schema.QualifiedName

	// OpCreateMaterializedView / OpDropMaterializedView
	MaterializedView *schema.MaterializedView

	// OpCreateSequence / OpDropSequence / OpAlterSequence
	Sequence        *schema.Sequence
	SequenceName    schema.QualifiedName
	SequenceChanges []SequenceChange

	// OpCreateDomain / OpDropDomain / OpAlterDomain
	Domain        *schema.Domain
	DomainName    schema.QualifiedName
	DomainChanges []DomainChange

	// OpCreateType / OpDropType / OpAlterType
	TypeDef    *schema.TypeDef
	TypeName   schema.QualifiedName
	TypeChange *TypeChange

	// OpCreateTrigger / OpDropTrigger
	Trigger     *schema.Trigger
	TriggerName schema.Ident

	// OpCreateFunction / OpDropFunction
	Function     *schema.Function
	FunctionName schema.QualifiedName

	// OpCreatePolicy / OpDropPolicy
	Policy     *schema.Policy
	PolicyName schema.Ident

	// OpSetComment / OpDropComment
	Comment *schema.Comment

	// OpGrant / OpRevoke
	Privilege *schema.Privilege

	// OpCreateSchema / OpDropSchema
	SchemaName schema.Ident

	// OpCreateExtension / OpDropExtension
	Extension     *schema.Extension
	ExtensionName schema.Ident

	// OriginalIndex is the position this op was emitted at by the diff
	// engine, used as the stable tie-break key by the orderer (§4.5).
	OriginalIndex int
}

// ---- change vocabularies (§6) ----------------------------------------

type ColumnChangeKind int

const (
	ColumnSetType ColumnChangeKind = iota
	ColumnSetNotNull
	ColumnSetDefault
	ColumnSetIdentity
	ColumnSetGenerated
	ColumnSetCollation
)

type ColumnChange struct {
	Kind      ColumnChangeKind
	Type      *schema.DataType
	NotNull   *bool
	Default   *schema.Expr // nil pointer value with DropDefault=true means "drop default"
	DropDefault bool
	Identity  *schema.IdentitySpec
	Generated *schema.GeneratedSpec
	Collation *string
}

type SequenceChangeKind int

const (
	SequenceSetType SequenceChangeKind = iota
	SequenceSetIncrement
	SequenceSetMinValue
	SequenceSetMaxValue
	SequenceSetStart
	SequenceSetCache
	SequenceSetCycle
)

type SequenceChange struct {
	Kind      SequenceChangeKind
	Type      *schema.DataType
	Int64Val  *int64
	BoolVal   *bool
}

type TypeChangeKind int

const (
	TypeAddValue TypeChangeKind = iota
	TypeRenameValue
)

type TypeChange struct {
	Kind     TypeChangeKind
	Value    string // AddValue
	Position *int   // AddValue: nil means append
	OldLabel string // RenameValue
	NewLabel string // RenameValue
}

type DomainChangeKind int

const (
	DomainSetDefault DomainChangeKind = iota
	DomainSetNotNull
	DomainAddCheck
	DomainDropCheck
)

type DomainChange struct {
	Kind    DomainChangeKind
	Default *schema.Expr
	NotNull *bool
	Check   *schema.CheckConstraint
	CheckName schema.Ident
}
