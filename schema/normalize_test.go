package schema

import "testing"

// P2 (Normalizer idempotence): normalize(normalize(o)) == normalize(o).
func TestNormalizeSnapshotIdempotent(t *testing.T) {
	build := func() *Snapshot {
		return &Snapshot{
			Tables: []*Table{
				{
					Name: NewQualifiedName("Public", "Users"),
					Columns: []Column{
						{Name: NewIdent("ID"), Type: DataType{Kind: TypeCustom, CustomName: "INT4"}},
						{Name: NewIdent("Name"), Type: DataType{Kind: TypeCustom, CustomName: "  VARCHAR "}, Default: exprPtr(RawExpr("  'x'  "))},
					},
				},
			},
		}
	}

	once := NormalizeSnapshot(build(), ModePostgres)
	twice := NormalizeSnapshot(once, ModePostgres)

	if once.Tables[0].Columns[0].Type.Kind != twice.Tables[0].Columns[0].Type.Kind {
		t.Fatalf("normalization not idempotent for column type")
	}
	if once.Tables[0].Name.Key() != twice.Tables[0].Name.Key() {
		t.Fatalf("normalization not idempotent for table name")
	}
}

func exprPtr(e Expr) *Expr { return &e }

func TestNormalizeTypeNameAliases(t *testing.T) {
	dt := NormalizeTypeName("int4", nil, nil)
	if dt.Kind != TypeInteger {
		t.Fatalf("expected int4 to normalize to TypeInteger, got %v", dt.Kind)
	}

	dt = NormalizeTypeName("bool", nil, nil)
	if dt.Kind != TypeBoolean {
		t.Fatalf("expected bool to normalize to TypeBoolean, got %v", dt.Kind)
	}

	length := 255
	dt = NormalizeTypeName("nvarchar", &length, nil)
	if dt.Kind != TypeVarchar || dt.Length == nil || *dt.Length != 255 {
		t.Fatalf("expected nvarchar(255) to normalize to Varchar{255}, got %+v", dt)
	}

	dt = NormalizeTypeName("  Geometry  ", nil, nil)
	if dt.Kind != TypeCustom || dt.CustomName != "geometry" {
		t.Fatalf("expected unknown type to become lowercased custom, got %+v", dt)
	}
}

func TestNormalizeIdentNamePerDialect(t *testing.T) {
	quoted := Ident{Value: "Users", Quoted: true}
	unquoted := Ident{Value: "Users"}

	if got := NormalizeIdentName(unquoted, ModeMssql); got.Value != "users" {
		t.Errorf("mssql should force lowercase unquoted, got %q", got.Value)
	}
	if got := NormalizeIdentName(quoted, ModeMssql); got.Value != "users" || got.Quoted {
		t.Errorf("mssql should force lowercase even quoted idents, got %+v", got)
	}
	if got := NormalizeIdentName(unquoted, ModeMysql); got.Value != "Users" {
		t.Errorf("mysql should retain case as parsed, got %q", got.Value)
	}
	if got := NormalizeIdentName(quoted, ModePostgres); got.Value != "Users" || !got.Quoted {
		t.Errorf("postgres should preserve quoted idents, got %+v", got)
	}
	if got := NormalizeIdentName(unquoted, ModePostgres); got.Value != "users" {
		t.Errorf("postgres should fold unquoted to lowercase, got %q", got.Value)
	}
}

// Scenario 8 (§8): identity/sequence contract folding.
func TestPostgresSequenceContractFolding(t *testing.T) {
	startVal := int64(5)
	table := &Table{
		Name: NewQualifiedName("", "users"),
		Columns: []Column{
			{Name: NewIdent("id"), Type: DataType{Kind: TypeInteger}, Identity: &IdentitySpec{Behavior: IdentityAlways}},
		},
	}
	seq := &Sequence{
		Name:       NewQualifiedName("", "users_id_seq"),
		StartValue: &startVal,
		OwnedBy:    &ColumnRef{Table: NewQualifiedName("", "users"), Column: NewIdent("id")},
	}
	snap := &Snapshot{Tables: []*Table{table}, Sequences: []*Sequence{seq}}

	NormalizeSnapshot(snap, ModePostgres)

	if len(snap.Sequences) != 0 {
		t.Fatalf("expected owned sequence to be removed from snapshot, got %d remaining", len(snap.Sequences))
	}
	id := snap.Tables[0].Columns[0].Identity
	if id == nil || id.StartValue == nil || *id.StartValue != 5 {
		t.Fatalf("expected sequence start value folded into identity, got %+v", id)
	}
}

func TestPostgresSerialRewrite(t *testing.T) {
	table := &Table{
		Name: NewQualifiedName("", "widgets"),
		Columns: []Column{
			{Name: NewIdent("id"), Type: DataType{Kind: TypeCustom, CustomName: "serial"}},
		},
	}
	snap := &Snapshot{Tables: []*Table{table}}
	NormalizeSnapshot(snap, ModePostgres)

	col := snap.Tables[0].Columns[0]
	if col.Type.Kind != TypeInteger {
		t.Fatalf("expected serial to rewrite to Integer, got %v", col.Type.Kind)
	}
	if col.Default == nil {
		t.Fatalf("expected implicit nextval default to be added")
	}
}
