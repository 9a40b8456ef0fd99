package vm

// setOp installs op at the table slot identified by (opcodeByte, twoByte,
// override, group). Handler registration files use this directly instead
// of fillGroups/fillOverride when an opcode's decoding genuinely differs
// across those axes (e.g. operand size changes with the 0x66 prefix).
func setOp(t *OpcodeTable, opcodeByte byte, twoByte, override bool, group int, op Opcode) {
	t.entries[composeIndex(opcodeByte, twoByte, override, group)] = op
}

// setRange installs the same op at opcodeByte..opcodeByte+7, for the
// register-suffix opcode families (e.g. 0xB8-0xBF, 0x50-0x57).
func setRange(t *OpcodeTable, opcodeByte byte, twoByte, override bool, op Opcode) {
	for i := byte(0); i < 8; i++ {
		setOp(t, opcodeByte+i, twoByte, override, 0, op)
	}
}
