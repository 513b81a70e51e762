package metadata

import "fmt"

// TableIndex identifies one of the ECMA-335 metadata tables.
type TableIndex uint8

const (
	TableModule                 TableIndex = 0x00
	TableTypeRef                TableIndex = 0x01
	TableTypeDef                TableIndex = 0x02
	TableFieldPtr               TableIndex = 0x03
	TableField                  TableIndex = 0x04
	TableMethodPtr              TableIndex = 0x05
	TableMethod                 TableIndex = 0x06
	TableParamPtr               TableIndex = 0x07
	TableParam                  TableIndex = 0x08
	TableInterfaceImpl          TableIndex = 0x09
	TableMemberRef              TableIndex = 0x0A
	TableConstant               TableIndex = 0x0B
	TableCustomAttribute        TableIndex = 0x0C
	TableFieldMarshal           TableIndex = 0x0D
	TableDeclSecurity           TableIndex = 0x0E
	TableClassLayout            TableIndex = 0x0F
	TableFieldLayout            TableIndex = 0x10
	TableStandAloneSig          TableIndex = 0x11
	TableEventMap               TableIndex = 0x12
	TableEventPtr               TableIndex = 0x13
	TableEvent                  TableIndex = 0x14
	TablePropertyMap            TableIndex = 0x15
	TablePropertyPtr            TableIndex = 0x16
	TableProperty               TableIndex = 0x17
	TableMethodSemantics        TableIndex = 0x18
	TableMethodImpl             TableIndex = 0x19
	TableModuleRef              TableIndex = 0x1A
	TableTypeSpec               TableIndex = 0x1B
	TableImplMap                TableIndex = 0x1C
	TableFieldRVA               TableIndex = 0x1D
	TableEncLog                 TableIndex = 0x1E
	TableEncMap                 TableIndex = 0x1F
	TableAssembly               TableIndex = 0x20
	TableAssemblyProcessor      TableIndex = 0x21
	TableAssemblyOS             TableIndex = 0x22
	TableAssemblyRef            TableIndex = 0x23
	TableAssemblyRefProcessor   TableIndex = 0x24
	TableAssemblyRefOS          TableIndex = 0x25
	TableFile                   TableIndex = 0x26
	TableExportedType           TableIndex = 0x27
	TableManifestResource       TableIndex = 0x28
	TableNestedClass            TableIndex = 0x29
	TableGenericParam           TableIndex = 0x2A
	TableMethodSpec             TableIndex = 0x2B
	TableGenericParamConstraint TableIndex = 0x2C

	// TableUserString is not a real table; the 0x70 prefix addresses
	// the #US heap in ldstr operands.
	TableUserString TableIndex = 0x70

	tableCount = 0x2D
)

var tableNames = map[TableIndex]string{
	TableModule:                 "Module",
	TableTypeRef:                "TypeRef",
	TableTypeDef:                "TypeDef",
	TableFieldPtr:               "FieldPtr",
	TableField:                  "Field",
	TableMethodPtr:              "MethodPtr",
	TableMethod:                 "Method",
	TableParamPtr:               "ParamPtr",
	TableParam:                  "Param",
	TableInterfaceImpl:          "InterfaceImpl",
	TableMemberRef:              "MemberRef",
	TableConstant:               "Constant",
	TableCustomAttribute:        "CustomAttribute",
	TableFieldMarshal:           "FieldMarshal",
	TableDeclSecurity:           "DeclSecurity",
	TableClassLayout:            "ClassLayout",
	TableFieldLayout:            "FieldLayout",
	TableStandAloneSig:          "StandAloneSig",
	TableEventMap:               "EventMap",
	TableEventPtr:               "EventPtr",
	TableEvent:                  "Event",
	TablePropertyMap:            "PropertyMap",
	TablePropertyPtr:            "PropertyPtr",
	TableProperty:               "Property",
	TableMethodSemantics:        "MethodSemantics",
	TableMethodImpl:             "MethodImpl",
	TableModuleRef:              "ModuleRef",
	TableTypeSpec:               "TypeSpec",
	TableImplMap:                "ImplMap",
	TableFieldRVA:               "FieldRVA",
	TableEncLog:                 "EncLog",
	TableEncMap:                 "EncMap",
	TableAssembly:               "Assembly",
	TableAssemblyProcessor:      "AssemblyProcessor",
	TableAssemblyOS:             "AssemblyOS",
	TableAssemblyRef:            "AssemblyRef",
	TableAssemblyRefProcessor:   "AssemblyRefProcessor",
	TableAssemblyRefOS:          "AssemblyRefOS",
	TableFile:                   "File",
	TableExportedType:           "ExportedType",
	TableManifestResource:       "ManifestResource",
	TableNestedClass:            "NestedClass",
	TableGenericParam:           "GenericParam",
	TableMethodSpec:             "MethodSpec",
	TableGenericParamConstraint: "GenericParamConstraint",
	TableUserString:             "UserString",
}

// String returns the conventional table name, or a hex fallback for an
// index outside the known range.
func (t TableIndex) String() string {
	if name, ok := tableNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Table(0x%02X)", uint8(t))
}

// IsKnown reports whether the index names a real metadata table.
func (t TableIndex) IsKnown() bool {
	return t < tableCount
}

// RawRow is the untyped column view of a single table row as handed
// out by a TableProvider. Only the columns the entity graph needs are
// modeled; everything else travels opaquely in Blob.
type RawRow struct {
	// Name and Namespace are raw string values already resolved from
	// the #Strings heap by the provider.
	Name      string
	Namespace string

	// Scope is a token referencing the resolution scope or the parent
	// entity (declaring type for members, resolution scope for type
	// references). Null when not applicable.
	Scope Token

	// Member is a second token column, used by CustomAttribute rows
	// for the constructor. Null when not applicable.
	Member Token

	// Flags carries the row's attribute bits verbatim.
	Flags uint32

	// Version is populated for Assembly and AssemblyRef rows only.
	Version AssemblyVersion

	// Blob holds signature or value bytes the core does not interpret.
	Blob []byte

	// Code holds a method row's encoded instruction stream, carried
	// verbatim through a rebuild.
	Code []byte
}

// TableProvider exposes raw row data per table. The entity graph never
// parses table bytes itself; it dispatches on table index and reads
// rows through this interface.
type TableProvider interface {
	// RowCount returns the number of rows stored for the table.
	RowCount(table TableIndex) uint32

	// ReadRow returns the raw row at the given 1-based row id.
	ReadRow(table TableIndex, rid uint32) (RawRow, error)
}

// StringProvider resolves indexes into the user-string heap.
type StringProvider interface {
	// UserString returns the string at the given heap index, and false
	// when the index is out of range.
	UserString(index uint32) (string, bool)
}
