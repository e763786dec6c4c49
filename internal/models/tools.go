package models

// ToolKind identifies one of the PostgreSQL client executables.
type ToolKind int

// Tool kinds.
const (
	ToolDump ToolKind = iota
	ToolRestore
	ToolInteractiveSQL
)

// AllToolKinds lists every tool kind in inventory order.
var AllToolKinds = []ToolKind{ToolDump, ToolRestore, ToolInteractiveSQL}

// Name returns the executable base name without any platform suffix.
func (k ToolKind) Name() string {
	switch k {
	case ToolDump:
		return "pg_dump"
	case ToolRestore:
		return "pg_restore"
	case ToolInteractiveSQL:
		return "psql"
	default:
		return ""
	}
}

// Executable returns the executable file name on the given GOOS.
func (k ToolKind) Executable(goos string) string {
	if goos == "windows" {
		return k.Name() + ".exe"
	}
	return k.Name()
}

// ToolDescriptor describes whether an executable was found and where.
type ToolDescriptor struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path"`
	Version   string `json:"version"`
}

// ToolInventory holds the descriptors for all three tools.
type ToolInventory struct {
	Dump           ToolDescriptor `json:"pgDump"`
	Restore        ToolDescriptor `json:"pgRestore"`
	InteractiveSQL ToolDescriptor `json:"psql"`
}

// Get returns the descriptor for the given kind.
func (inv ToolInventory) Get(kind ToolKind) ToolDescriptor {
	switch kind {
	case ToolDump:
		return inv.Dump
	case ToolRestore:
		return inv.Restore
	default:
		return inv.InteractiveSQL
	}
}

// Set stores the descriptor for the given kind.
func (inv *ToolInventory) Set(kind ToolKind, d ToolDescriptor) {
	switch kind {
	case ToolDump:
		inv.Dump = d
	case ToolRestore:
		inv.Restore = d
	default:
		inv.InteractiveSQL = d
	}
}
