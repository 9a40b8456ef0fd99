package vm

// conditionMatches evaluates one of the 16 IA-32 condition codes, selected
// by the low nibble of a Jcc/SETcc/CMOVcc opcode byte, against the current
// flags. Order matches spec §4.6: O, NO, B, AE, E, NE, BE, A, S, NS, P, NP,
// L, GE, LE, G.
func conditionMatches(cc uint8, f Flags) bool {
	switch cc & 0xF {
	case 0x0: // O
		return f.OF
	case 0x1: // NO
		return !f.OF
	case 0x2: // B / NAE / C
		return f.CF
	case 0x3: // AE / NB / NC
		return !f.CF
	case 0x4: // E / Z
		return f.ZF
	case 0x5: // NE / NZ
		return !f.ZF
	case 0x6: // BE / NA
		return f.CF || f.ZF
	case 0x7: // A / NBE
		return !f.CF && !f.ZF
	case 0x8: // S
		return f.SF
	case 0x9: // NS
		return !f.SF
	case 0xA: // P / PE
		return f.PF
	case 0xB: // NP / PO
		return !f.PF
	case 0xC: // L / NGE
		return f.SF != f.OF
	case 0xD: // GE / NL
		return f.SF == f.OF
	case 0xE: // LE / NG
		return f.ZF || (f.SF != f.OF)
	case 0xF: // G / NLE
		return !f.ZF && (f.SF == f.OF)
	default:
		return false
	}
}
