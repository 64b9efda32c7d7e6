// Package catalog holds the static, read-only tables describing the Y16
// instruction set: opcodes, addressing-mode masks, registers, and
// directives. Nothing in this package carries per-assembly state; the
// Assembler consults it but never mutates it.
package catalog

// AddrMode is the resolved 4-bit addressing mode written to the output
// stream. Values match the architecture's on-disk encoding exactly.
type AddrMode uint8

const (
	AddrImmediate         AddrMode = 0b0000
	AddrRegDirect         AddrMode = 0b0001
	AddrRegIndirect       AddrMode = 0b0010
	AddrRegIndirectOffset AddrMode = 0b0011
	AddrMemDirect         AddrMode = 0b0100
	AddrRegDirectOffset   AddrMode = 0b0101 // PC-relative
)

// AddrModeMask is a bitmask over the six addressing modes, used by the
// instruction table to describe which modes an operand position permits,
// and by the parser to stage an operand whose mode is still ambiguous.
type AddrModeMask uint8

const (
	MaskImmediate         AddrModeMask = 1 << 0
	MaskRegDirect         AddrModeMask = 1 << 1
	MaskRegDirectOffset   AddrModeMask = 1 << 2
	MaskRegIndirect       AddrModeMask = 1 << 3
	MaskRegIndirectOffset AddrModeMask = 1 << 4
	MaskMemDirect         AddrModeMask = 1 << 5

	MaskAny = MaskImmediate | MaskRegDirect | MaskRegDirectOffset |
		MaskRegIndirect | MaskRegIndirectOffset | MaskMemDirect
	MaskAnyNoImmediate = MaskAny &^ MaskImmediate

	// MaskAmbiguousMemOrImm is staged by the parser for a bare literal or
	// symbol operand; the instruction's syntax class resolves it in pass 1.
	MaskAmbiguousMemOrImm = MaskMemDirect | MaskImmediate
)

// Bit returns the single mask bit that corresponds to the resolved mode
// a (0 for an unknown mode). The receiver's own bits are not consulted.
func (m AddrModeMask) Bit(a AddrMode) AddrModeMask {
	switch a {
	case AddrImmediate:
		return MaskImmediate
	case AddrRegDirect:
		return MaskRegDirect
	case AddrRegDirectOffset:
		return MaskRegDirectOffset
	case AddrRegIndirect:
		return MaskRegIndirect
	case AddrRegIndirectOffset:
		return MaskRegIndirectOffset
	case AddrMemDirect:
		return MaskMemDirect
	default:
		return 0
	}
}

// Allows reports whether the mask permits the resolved mode a.
func (m AddrModeMask) Allows(a AddrMode) bool {
	return m&m.Bit(a) != 0
}

// SyntaxClass distinguishes the two operand syntaxes an instruction can
// require: data instructions take plain operands, jump instructions take
// the `*`-prefixed / bare-target forms described in spec §4.4.
type SyntaxClass int

const (
	SyntaxData SyntaxClass = iota
	SyntaxJump
)

// RegIndUpdate is the register-indirect auto-update code, encoded in the
// upper nibble of the AddrMode byte. Only push/pop synthesize non-None.
type RegIndUpdate uint8

const (
	RegIndNone    RegIndUpdate = 0x0
	RegIndPreDec  RegIndUpdate = 0x1
	RegIndPreInc  RegIndUpdate = 0x2
	RegIndPostDec RegIndUpdate = 0x3
	RegIndPostInc RegIndUpdate = 0x4
)

// Instruction is a static, fully-specified instruction descriptor.
type Instruction struct {
	Name     string
	Opcode   uint8
	Syntax   SyntaxClass
	NumArgs  int
	ArgModes [2]AddrModeMask
}

// FixedOneRegForm reports whether the encoding is the one-operand
// register short form: opcode + RegDescr, no AddrMode byte, no payload.
func (i Instruction) FixedOneRegForm() bool {
	return i.NumArgs == 1 && i.ArgModes[0] == MaskRegDirect
}

// FixedTwoRegForm reports whether the encoding is the two-register short
// form: opcode + RegDescr, no AddrMode byte, no payload.
func (i Instruction) FixedTwoRegForm() bool {
	return i.NumArgs == 2 && i.ArgModes[0] == MaskRegDirect && i.ArgModes[1] == MaskRegDirect
}

var instructions = []Instruction{
	{Name: "halt", Opcode: 0x00, Syntax: SyntaxData, NumArgs: 0},
	{Name: "int", Opcode: 0x10, Syntax: SyntaxData, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskRegDirect, 0}},
	{Name: "iret", Opcode: 0x20, Syntax: SyntaxData, NumArgs: 0},
	{Name: "call", Opcode: 0x30, Syntax: SyntaxJump, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskAny, 0}},
	{Name: "ret", Opcode: 0x40, Syntax: SyntaxData, NumArgs: 0},
	{Name: "jmp", Opcode: 0x50, Syntax: SyntaxJump, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskAny, 0}},
	{Name: "jeq", Opcode: 0x51, Syntax: SyntaxJump, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskAny, 0}},
	{Name: "jne", Opcode: 0x52, Syntax: SyntaxJump, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskAny, 0}},
	{Name: "jgt", Opcode: 0x53, Syntax: SyntaxJump, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskAny, 0}},
	{Name: "xchg", Opcode: 0x60, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "add", Opcode: 0x70, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "sub", Opcode: 0x71, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "mul", Opcode: 0x72, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "div", Opcode: 0x73, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "cmp", Opcode: 0x74, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "not", Opcode: 0x80, Syntax: SyntaxData, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskRegDirect, 0}},
	{Name: "and", Opcode: 0x81, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "or", Opcode: 0x82, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "xor", Opcode: 0x83, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "test", Opcode: 0x84, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "shl", Opcode: 0x90, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "shr", Opcode: 0x91, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskRegDirect}},
	{Name: "ldr", Opcode: 0xA0, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskAny}},
	{Name: "str", Opcode: 0xB0, Syntax: SyntaxData, NumArgs: 2, ArgModes: [2]AddrModeMask{MaskRegDirect, MaskAnyNoImmediate}},
	// Pseudo-ops rewritten by the assembler before encoding (spec §4.4);
	// their table entries exist only so argument-count/addressing-mode
	// checks in the parser-facing surface have something to name.
	{Name: "push", Opcode: 0xB0, Syntax: SyntaxData, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskRegDirect, 0}},
	{Name: "pop", Opcode: 0xA0, Syntax: SyntaxData, NumArgs: 1, ArgModes: [2]AddrModeMask{MaskRegDirect, 0}},
}

var instructionsByName = func() map[string]Instruction {
	m := make(map[string]Instruction, len(instructions))
	for _, ins := range instructions {
		m[ins.Name] = ins
	}
	return m
}()

// LookupInstruction returns the static descriptor for a mnemonic.
func LookupInstruction(name string) (Instruction, bool) {
	ins, ok := instructionsByName[name]
	return ins, ok
}

// Register identifiers. SP aliases r6, PC aliases r7; PSW has no general
// purpose use and exists only to be named in operand position.
const (
	RegR0  = 0
	RegR1  = 1
	RegR2  = 2
	RegR3  = 3
	RegR4  = 4
	RegR5  = 5
	RegR6  = 6
	RegR7  = 7
	RegSP  = RegR6
	RegPC  = RegR7
	RegPSW = 8
)

var registerNames = map[string]int{
	"r0": RegR0, "r1": RegR1, "r2": RegR2, "r3": RegR3,
	"r4": RegR4, "r5": RegR5, "r6": RegR6, "r7": RegR7,
	"sp": RegSP, "pc": RegPC, "psw": RegPSW,
}

// LookupRegister resolves a lower-case register name to its numeric id;
// the parser lowercases register names before calling it.
func LookupRegister(name string) (int, bool) {
	id, ok := registerNames[name]
	return id, ok
}

// Directive is the static record described in spec §4.3: argument shape,
// whether leading labels are allowed, and whether an active section is
// required.
type Directive struct {
	Name            string
	AllowsLabel     bool
	RequiresSection bool
}

var directives = map[string]Directive{
	".global":  {Name: ".global", AllowsLabel: false, RequiresSection: false},
	".extern":  {Name: ".extern", AllowsLabel: false, RequiresSection: false},
	".section": {Name: ".section", AllowsLabel: false, RequiresSection: false},
	".word":    {Name: ".word", AllowsLabel: true, RequiresSection: true},
	".skip":    {Name: ".skip", AllowsLabel: true, RequiresSection: true},
	".equ":     {Name: ".equ", AllowsLabel: false, RequiresSection: false},
	".end":     {Name: ".end", AllowsLabel: false, RequiresSection: false},
}

// LookupDirective returns the static descriptor for a directive name
// (including its leading dot).
func LookupDirective(name string) (Directive, bool) {
	d, ok := directives[name]
	return d, ok
}
