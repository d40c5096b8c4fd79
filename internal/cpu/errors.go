package cpu

import "fmt"

// DecodeError reports an opcode the decoder refuses to execute: an
// undefined SM83 opcode. core wraps this into a core.FatalError for the
// host.
type DecodeError struct {
	PC     uint16
	Opcode byte
	Prefix bool
}

func (e *DecodeError) Error() string {
	if e.Prefix {
		return fmt.Sprintf("undefined opcode CB %02X at PC=%04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("undefined opcode %02X at PC=%04X", e.Opcode, e.PC)
}
