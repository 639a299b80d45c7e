package infobar

// Op is the sum type tag for an OperationCommand. Represented as a
// string enum rather than a subtype hierarchy per the polymorphism
// design note: the parser emits variants directly and the updater
// switches on them.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// OperationCommand is one parsed instruction from the model's reply.
// Row and the keys of Data are always 1-based once normalized; Delete
// operations carry no Data.
type OperationCommand struct {
	Op    Op
	Panel string
	Row   int
	Data  map[int]string
}

// Format classifies the shape of the extracted <infobar_data> body.
type Format string

const (
	FormatOperationCommands Format = "operation_commands"
	FormatLegacyTextual     Format = "legacy_textual"
	FormatForbidden         Format = "forbidden"
	FormatUnknown           Format = "unknown"
)
