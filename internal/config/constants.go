package config

// Version is reported by `tlua version`.
const Version = "0.1.0"

const SourceFileExt = ".tlua"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".tlua", ".lua"}

// Project file names, searched in this order.
var ProjectFileNames = []string{"tlua.yaml", "tlua.yml", "tlua.jsonc", "tlua.json"}

// Runtime type registry
const (
	// RegistryName is the global table holding type predicates.
	RegistryName = "types"
	// TempPrefix prefixes identifiers generated for check temporaries.
	TempPrefix = "__tlua_"
)

// Registry helper names used by compiled type expressions
const (
	StringHelper   = "__string"
	TableHelper    = "__table"
	FunctionHelper = "__function"
	// OperatorHelperPrefix + operator, e.g. "__or"
	OperatorHelperPrefix = "__"
)

// Pragma recognized in comments: --@typecheck on|off
const TypecheckPragma = "typecheck"

// Built-in function names
const (
	PrintFuncName    = "print"
	TypeFuncName     = "type"
	ToStringFuncName = "tostring"
	ToNumberFuncName = "tonumber"
	ErrorFuncName    = "error"
	AssertFuncName   = "assert"
	PcallFuncName    = "pcall"
	SelectFuncName   = "select"
	PairsFuncName    = "pairs"
	IpairsFuncName   = "ipairs"
	NextFuncName     = "next"
	RawGetFuncName   = "rawget"
	RawSetFuncName   = "rawset"
)

// Error kinds raised at run time
const (
	RuntimeErrorKind = "RuntimeError"
	TypeMismatchKind = "TypeMismatch"
)
