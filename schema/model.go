package schema

// ObjectKind tags every entity kind the diff engine buckets objects by.
type ObjectKind int

const (
	KindTable ObjectKind = iota
	KindIndex
	KindView
	KindMaterializedView
	KindSequence
	KindTrigger
	KindFunction
	KindType
	KindDomain
	KindPolicy
	KindPrivilege
	KindComment
	KindSchemaObj
	KindExtension
)

// Object is implemented by every entity in §3 so the diff engine can
// bucket a mixed snapshot by kind without a type switch at every call
// site.
type Object interface {
	ObjectKind() ObjectKind
}

// ---- Table -----------------------------------------------------------

type Table struct {
	Name        QualifiedName
	Columns     []Column
	PrimaryKey  *IndexDef
	ForeignKeys []ForeignKey
	Checks      []CheckConstraint
	Exclusions  []ExclusionConstraint
	Partition   *PartitionSpec
	Options     map[string]string
	RenamedFrom *QualifiedName
}

func (*Table) ObjectKind() ObjectKind { return KindTable }

func (t *Table) Column(name Ident) *Column {
	for i := range t.Columns {
		if SameIdent(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

type PartitionSpec struct {
	Strategy   string // "range" | "list" | "hash"
	Columns    []string
	Partitions []PartitionElement
}

type PartitionElement struct {
	Name       Ident
	Bound      string
	ParentName *QualifiedName // folded child, see §4.1 partition folding
}

type ForeignKey struct {
	ConstraintName   Ident
	Columns          []Ident
	RefTable         QualifiedName
	RefColumns       []Ident
	OnDelete         string
	OnUpdate         string
	Deferrable       bool
	InitiallyDefer   bool
	NotForReplicaton bool
}

type CheckConstraint struct {
	ConstraintName Ident
	Expr           Expr
	NoInherit      bool
}

type ExclusionConstraint struct {
	ConstraintName Ident
	Elements       []ExclusionElement
	Predicate      *Expr
}

type ExclusionElement struct {
	Expr     Expr
	Operator string
}

// ---- Column ------------------------------------------------------------

type Column struct {
	Name        Ident
	Type        DataType
	NotNull     bool
	Default     *Expr
	Identity    *IdentitySpec
	Sequence    *Sequence // populated transiently before sequence-contract folding (§4.1)
	Generated   *GeneratedSpec
	Collation   string
	RenamedFrom *Ident
	Extra       map[string]string
}

type IdentityBehavior int

const (
	IdentityNone IdentityBehavior = iota
	IdentityAlways
	IdentityByDefault
)

type IdentitySpec struct {
	Behavior  IdentityBehavior
	Increment *int64
	MinValue  *int64
	MaxValue  *int64
	StartValue *int64
	Cache     *int64
	Cycle     bool
}

type GeneratedKind int

const (
	GeneratedNone GeneratedKind = iota
	GeneratedStored
	GeneratedVirtual
)

type GeneratedSpec struct {
	Expr Expr
	Kind GeneratedKind
}

// ---- IndexDef ------------------------------------------------------------

// IndexDef's Owner is the table/view/materialized view it is defined
// against; I1 requires it to resolve within the same snapshot.
type IndexDef struct {
	Owner      QualifiedName
	Name       *Ident
	Columns    []IndexColumn
	Unique     bool
	Method     string
	Predicate  *Expr
	Concurrent bool
	Primary    bool
	RenamedFrom *Ident
}

func (*IndexDef) ObjectKind() ObjectKind { return KindIndex }

type IndexColumn struct {
	Expr      Expr
	Direction string // "asc" | "desc"
	Length    *int
}

// ---- View / MaterializedView --------------------------------------------

type View struct {
	Name         QualifiedName
	Columns      []Ident
	Query        string
	CheckOption  string // "", "local", "cascaded"
	SecurityMode string // "", "invoker", "definer"
}

func (*View) ObjectKind() ObjectKind { return KindView }

type MaterializedView struct {
	Name    QualifiedName
	Columns []Column
	Query   string
	Options map[string]string
}

func (*MaterializedView) ObjectKind() ObjectKind { return KindMaterializedView }

// ---- Sequence ------------------------------------------------------------

type Sequence struct {
	Name        QualifiedName
	Type        DataType
	IncrementBy *int64
	MinValue    *int64
	MaxValue    *int64
	StartValue  *int64
	Cache       *int64
	Cycle       bool
	OwnedBy     *ColumnRef
}

func (*Sequence) ObjectKind() ObjectKind { return KindSequence }

type ColumnRef struct {
	Table  QualifiedName
	Column Ident
}

// ---- Trigger / Function ---------------------------------------------------

type Trigger struct {
	Name      Ident
	Table     QualifiedName
	Timing    string // "before" | "after" | "instead_of"
	Events    []string
	ForEach   string // "row" | "statement"
	When      *Expr
	Body      string
}

func (*Trigger) ObjectKind() ObjectKind { return KindTrigger }

type Function struct {
	Name       QualifiedName
	Params     []FunctionParam
	ReturnType DataType
	Language   string
	Body       string
	Volatility string // "volatile" | "stable" | "immutable"
	Security   string // "invoker" | "definer"
}

func (*Function) ObjectKind() ObjectKind { return KindFunction }

type FunctionParam struct {
	Name Ident
	Type DataType
	Mode string // "in" | "out" | "inout"
}

// ---- TypeDef / Domain ------------------------------------------------------

type TypeDefKind int

const (
	TypeDefEnum TypeDefKind = iota
	TypeDefComposite
	TypeDefRange
)

type TypeDef struct {
	Name   QualifiedName
	Kind   TypeDefKind
	Labels []string          // TypeDefEnum, ordered
	Fields []FunctionParam   // TypeDefComposite
	Subtype *DataType        // TypeDefRange
}

func (*TypeDef) ObjectKind() ObjectKind { return KindType }

type Domain struct {
	Name       QualifiedName
	Underlying DataType
	Default    *Expr
	NotNull    bool
	Checks     []CheckConstraint
}

func (*Domain) ObjectKind() ObjectKind { return KindDomain }

// ---- Policy / Privilege / Comment ------------------------------------------

type Policy struct {
	Name       Ident
	Table      QualifiedName
	Command    string // "all" | "select" | "insert" | "update" | "delete"
	Using      *Expr
	WithCheck  *Expr
	Roles      []Ident
	Permissive bool
}

func (*Policy) ObjectKind() ObjectKind { return KindPolicy }

type Privilege struct {
	Operations []string // e.g. "select", "insert", "update", "delete", "usage"
	Target     QualifiedName
	Grantee    Ident
	WithGrant  bool
}

func (*Privilege) ObjectKind() ObjectKind { return KindPrivilege }

type CommentTargetKind int

const (
	CommentOnTable CommentTargetKind = iota
	CommentOnColumn
	CommentOnIndex
	CommentOnView
	CommentOnFunction
)

type Comment struct {
	TargetKind CommentTargetKind
	Target     QualifiedName
	Column     *Ident // CommentOnColumn only
	Text       *string // nil means "drop comment"
}

func (*Comment) ObjectKind() ObjectKind { return KindComment }

type SchemaObj struct {
	Name Ident
}

func (*SchemaObj) ObjectKind() ObjectKind { return KindSchemaObj }

type Extension struct {
	Name    Ident
	Version string
}

func (*Extension) ObjectKind() ObjectKind { return KindExtension }

// Snapshot is an ordered sequence of objects: a desired or current schema
// as described in §3. Ordering carries no equality weight but is used as
// the fallback tie-break during ordering (§4.5).
type Snapshot struct {
	Tables             []*Table
	Indexes            []*IndexDef
	Views              []*View
	MaterializedViews  []*MaterializedView
	Sequences          []*Sequence
	Triggers           []*Trigger
	Functions          []*Function
	Types              []*TypeDef
	Domains            []*Domain
	Policies           []*Policy
	Privileges         []*Privilege
	Comments           []*Comment
	Schemas            []*SchemaObj
	Extensions         []*Extension
}

func (s *Snapshot) FindTable(key QualifiedNameKey) *Table {
	for _, t := range s.Tables {
		if t.Name.Key() == key {
			return t
		}
	}
	return nil
}

func (s *Snapshot) FindView(key QualifiedNameKey) *View {
	for _, v := range s.Views {
		if v.Name.Key() == key {
			return v
		}
	}
	return nil
}

// ResolvesOwner reports whether owner resolves to a table/view/materialized
// view present in the snapshot — I1.
func (s *Snapshot) ResolvesOwner(owner QualifiedName) bool {
	k := owner.Key()
	if s.FindTable(k) != nil || s.FindView(k) != nil {
		return true
	}
	for _, mv := range s.MaterializedViews {
		if mv.Name.Key() == k {
			return true
		}
	}
	return false
}
