package response

// Stock type codes.
const (
	TypeStdout   = "OUT"
	TypeStderr   = "ERR"
	TypeExitCode = "EXC"
	TypeFileEdit = "FIL"
	TypeReturn   = "RET"
	TypeServer   = "SRV"
	TypeClient   = "CLI"
)

// DefaultRegistry returns a registry with the stock response types.
func DefaultRegistry() *Registry {
	return NewRegistry().
		MustRegister(TypeStdout, RawFactory(TypeStdout)).
		MustRegister(TypeStderr, RawFactory(TypeStderr)).
		MustRegister(TypeExitCode, newExitCode).
		MustRegister(TypeFileEdit, newFileEdit).
		MustRegister(TypeReturn, RawFactory(TypeReturn)).
		MustRegister(TypeServer, RawFactory(TypeServer)).
		MustRegister(TypeClient, RawFactory(TypeClient))
}
