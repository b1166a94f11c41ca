// Package codegen walks a parsed Blitz program once and emits NASM-flavored
// x86-64 assembly text. The emission target (Linux syscalls or the Win64
// console API) is an explicit configuration value, never inferred from the
// machine running the compiler.
package codegen

import (
	"fmt"
	"strings"

	"github.com/blitz-lang/blitz/internal/lexer"
	"github.com/blitz-lang/blitz/internal/parser"
)

// CodeGenError describes a failure during code generation.
type CodeGenError struct {
	Function string // function being generated, if any
	Message  string
}

func (e *CodeGenError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("codegen error in %s: %s", e.Function, e.Message)
	}
	return fmt.Sprintf("codegen error: %s", e.Message)
}

// varInfo records a local variable's stack slot.
type varInfo struct {
	offset int // negative frame offset relative to rbp
	size   int // 4 for i32, 8 otherwise
}

// Generator emits assembly for one compilation. The label counter and the
// string literal table are scoped to the instance, so a Generator must not
// be shared or reused across unrelated compilations.
type Generator struct {
	target Target
	out    []string

	// Per-function state, reset by genFunction.
	currentFunction string
	vars            map[string]varInfo
	stackOffset     int
	framePatch      int // index of the frame reservation placeholder in out

	// Instance-wide state.
	stringLiterals []string          // distinct literals in order of appearance
	stringLabels   map[string]string // literal text -> data label
	labelCount     int
}

// NewGenerator creates a generator for the given target platform.
func NewGenerator(target Target) *Generator {
	return &Generator{
		target:       target,
		stringLabels: make(map[string]string),
	}
}

// Generate emits the assembly listing for the program.
func (g *Generator) Generate(program *parser.Program) (string, error) {
	g.collectProgramLiterals(program)
	g.emitHeader(program)

	for _, fn := range program.Functions {
		if err := g.genFunction(fn); err != nil {
			return "", err
		}
	}

	g.emitHelpers()
	return strings.Join(g.out, "\n") + "\n", nil
}

func (g *Generator) emit(line string) {
	g.out = append(g.out, line)
}

func (g *Generator) emitf(format string, args ...interface{}) {
	g.out = append(g.out, fmt.Sprintf(format, args...))
}

// uniqueLabel returns a fresh internal label so generated jump targets do
// not collide across call sites.
func (g *Generator) uniqueLabel(base string) string {
	label := fmt.Sprintf("%s_%d", base, g.labelCount)
	g.labelCount++
	return label
}

// errf builds a CodeGenError in the current function.
func (g *Generator) errf(format string, args ...interface{}) error {
	return &CodeGenError{Function: g.currentFunction, Message: fmt.Sprintf(format, args...)}
}

// ====== String literal table ======

// collectProgramLiterals walks the AST and registers every distinct string
// literal, in order of first appearance, before any code is emitted.
func (g *Generator) collectProgramLiterals(program *parser.Program) {
	for _, fn := range program.Functions {
		for _, stmt := range fn.Body {
			g.collectStatementLiterals(stmt)
		}
	}
}

func (g *Generator) collectStatementLiterals(stmt parser.Statement) {
	switch s := stmt.(type) {
	case *parser.ReturnStatement:
		g.collectExpressionLiterals(s.Value)
	case *parser.VariableDeclaration:
		if s.Initializer != nil {
			g.collectExpressionLiterals(s.Initializer)
		}
	case *parser.ExpressionStatement:
		g.collectExpressionLiterals(s.Expression)
	}
}

func (g *Generator) collectExpressionLiterals(expr parser.Expression) {
	switch e := expr.(type) {
	case *parser.StringLiteral:
		g.addStringLiteral(e.Value)
	case *parser.BinaryExpression:
		g.collectExpressionLiterals(e.Left)
		g.collectExpressionLiterals(e.Right)
	case *parser.CallExpression:
		for _, arg := range e.Arguments {
			g.collectExpressionLiterals(arg)
		}
	}
}

// addStringLiteral registers a literal, deduplicated by exact text equality.
func (g *Generator) addStringLiteral(text string) {
	if _, ok := g.stringLabels[text]; ok {
		return
	}
	label := fmt.Sprintf("str_%d", len(g.stringLiterals))
	g.stringLiterals = append(g.stringLiterals, text)
	g.stringLabels[text] = label
}

// ====== Header and data section ======

func (g *Generator) emitHeader(program *parser.Program) {
	g.emit("; Blitz compiler output")
	g.emit("bits 64")
	g.emit("default rel")
	g.emit("")
	g.emit("section .text")

	hasMain := false
	for _, fn := range program.Functions {
		if fn.Name.Value == "main" {
			hasMain = true
			break
		}
	}

	if hasMain {
		g.emit("global main")
		if g.target == TargetWindows {
			g.emit("extern GetStdHandle")
			g.emit("extern WriteConsoleA")
			g.emit("extern ExitProcess")
		}
	} else {
		g.emit("; warning: no main function found")
	}

	g.emit("")
	g.emit("section .data")
	g.emit("    last_printed_value dd 0")
	g.emit("    digit_buffer db '0123456789', 0")
	g.emit("    output_buffer times 256 db 0")
	if g.target == TargetWindows {
		g.emit("    newline db 13, 10")
		g.emit("    STD_OUTPUT_HANDLE equ -11")
		g.emit("    chars_written dq 0")
	} else {
		g.emit("    newline db 10")
	}
	for _, text := range g.stringLiterals {
		escaped := strings.ReplaceAll(text, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		g.emitf("    %s db \"%s\", 0", g.stringLabels[text], escaped)
	}
	g.emit("")
	g.emit("section .text")
}

// ====== Functions ======

func (g *Generator) genFunction(fn *parser.FunctionDeclaration) error {
	g.currentFunction = fn.Name.Value
	g.vars = make(map[string]varInfo)
	g.stackOffset = 0

	g.emit("")
	g.emitf("%s:", fn.Name.Value)
	g.emit("    push rbp")
	g.emit("    mov rbp, rsp")

	// Frame size is unknown until the body has been generated; reserve a
	// placeholder and remember its index for the backfill below.
	g.framePatch = len(g.out)
	g.emit("    sub rsp, 0")

	for _, stmt := range fn.Body {
		if err := g.genStatement(stmt); err != nil {
			return err
		}
	}

	// Epilogue when the body does not end in an explicit return.
	needsEpilogue := true
	if n := len(fn.Body); n > 0 {
		if _, ok := fn.Body[n-1].(*parser.ReturnStatement); ok {
			needsEpilogue = false
		}
	}
	if needsEpilogue {
		if fn.Name.Value == "main" {
			g.emit("    mov rax, 0")
		}
		g.emitReturn()
	}

	// Backfill the frame reservation, rounded up to the 16-byte alignment
	// the calling convention requires.
	if g.stackOffset > 0 {
		aligned := (g.stackOffset + 15) &^ 15
		g.out[g.framePatch] = fmt.Sprintf("    sub rsp, %d", aligned)
	}
	return nil
}

// emitReturn emits the function return path. On Linux, main exits through
// the exit syscall so the returned value becomes the process exit code even
// under a bare ld link; everything else unwinds the frame and returns.
func (g *Generator) emitReturn() {
	if g.target == TargetLinux && g.currentFunction == "main" {
		g.emit("    mov rdi, rax")
		g.emit("    mov rax, 60")
		g.emit("    syscall")
		return
	}
	g.emit("    leave")
	g.emit("    ret")
}

// ====== Statements ======

func (g *Generator) genStatement(stmt parser.Statement) error {
	switch s := stmt.(type) {
	case *parser.ReturnStatement:
		if err := g.genExpression(s.Value); err != nil {
			return err
		}
		g.emitReturn()
		return nil
	case *parser.VariableDeclaration:
		return g.genDeclaration(s)
	case *parser.ExpressionStatement:
		// Value is discarded; it only exists in rax.
		return g.genExpression(s.Expression)
	default:
		return g.errf("unsupported statement %T", stmt)
	}
}

func (g *Generator) genDeclaration(decl *parser.VariableDeclaration) error {
	size := 8
	if decl.TypeName == "i32" {
		size = 4
	}
	g.stackOffset += size
	info := varInfo{offset: -g.stackOffset, size: size}
	g.vars[decl.Name.Value] = info

	if decl.Initializer == nil {
		return nil
	}
	if err := g.genExpression(decl.Initializer); err != nil {
		return err
	}
	if size == 4 {
		g.emitf("    mov dword [rbp%d], eax", info.offset)
	} else {
		g.emitf("    mov qword [rbp%d], rax", info.offset)
	}
	return nil
}

// ====== Expressions ======

// genExpression emits code leaving the expression's value in rax.
func (g *Generator) genExpression(expr parser.Expression) error {
	switch e := expr.(type) {
	case *parser.NumberLiteral:
		g.emitf("    mov rax, %d", e.Value)
		return nil

	case *parser.StringLiteral:
		label, ok := g.stringLabels[e.Value]
		if !ok {
			return g.errf("string literal %q missing from literal table", e.Value)
		}
		g.emitf("    mov rax, %s", label)
		return nil

	case *parser.Identifier:
		info, ok := g.vars[e.Value]
		if !ok {
			return g.errf("undefined variable %q", e.Value)
		}
		if info.size == 4 {
			g.emitf("    mov eax, dword [rbp%d]", info.offset)
		} else {
			g.emitf("    mov rax, qword [rbp%d]", info.offset)
		}
		return nil

	case *parser.CallExpression:
		if e.Callee.Value == "printnl" {
			return g.genPrintnl(e.Arguments)
		}
		return g.errf("unknown function %q", e.Callee.Value)

	case *parser.BinaryExpression:
		return g.genBinary(e)

	default:
		return g.errf("unsupported expression %T", expr)
	}
}

func (g *Generator) genBinary(expr *parser.BinaryExpression) error {
	if expr.Operator == lexer.TokenPlus && (isStringLiteral(expr.Left) || isStringLiteral(expr.Right)) {
		return g.genStringConcat(expr)
	}

	// Evaluate the right operand first and park it on the native stack, so
	// the left operand lands in rax and the right in rcx regardless of
	// nesting depth.
	if err := g.genExpression(expr.Right); err != nil {
		return err
	}
	g.emit("    push rax")
	if err := g.genExpression(expr.Left); err != nil {
		return err
	}
	g.emit("    pop rcx")

	switch expr.Operator {
	case lexer.TokenPlus:
		g.emit("    add rax, rcx")
	case lexer.TokenMinus:
		g.emit("    sub rax, rcx")
	case lexer.TokenMul:
		g.emit("    imul rax, rcx")
	case lexer.TokenDiv:
		g.emit("    cqo")
		g.emit("    idiv rcx")
	default:
		return g.errf("unsupported binary operator %s", expr.Operator)
	}
	return nil
}

func isStringLiteral(expr parser.Expression) bool {
	_, ok := expr.(*parser.StringLiteral)
	return ok
}

// genStringConcat assembles the concatenation of two operands in the global
// output buffer. String literal operands are copied byte for byte; anything
// else is evaluated numerically and rendered as decimal ASCII. The result
// in rax is the buffer's base address, null-terminated after the last
// write.
func (g *Generator) genStringConcat(expr *parser.BinaryExpression) error {
	g.emit("    mov rdi, output_buffer")

	for _, operand := range []parser.Expression{expr.Left, expr.Right} {
		if err := g.genExpression(operand); err != nil {
			return err
		}
		if isStringLiteral(operand) {
			g.emit("    mov rsi, rax")
			g.emit("    call _string_copy")
			g.emit("    add rdi, rax")
		} else {
			g.emitNumberToBuffer()
		}
	}

	g.emit("    mov byte [rdi], 0")
	g.emit("    mov rax, output_buffer")
	return nil
}

// emitNumberToBuffer converts the value in rax to decimal ASCII in the
// digit buffer (filled back to front by repeated division by ten), then
// appends the digits at rdi and advances rdi past them.
func (g *Generator) emitNumberToBuffer() {
	loop := g.uniqueLabel("num_to_str")

	g.emit("    push rdi")
	g.emit("    mov rcx, 10")
	g.emit("    mov rbx, digit_buffer")
	g.emit("    add rbx, 10")
	g.emit("    mov byte [rbx], 0")
	g.emitf("%s:", loop)
	g.emit("    xor rdx, rdx")
	g.emit("    div rcx")
	g.emit("    add dl, '0'")
	g.emit("    dec rbx")
	g.emit("    mov [rbx], dl")
	g.emit("    test rax, rax")
	g.emitf("    jnz %s", loop)
	g.emit("    pop rdi")
	g.emit("    mov rsi, rbx")
	g.emit("    call _string_copy")
	g.emit("    add rdi, rax")
}

// ====== printnl builtin ======

// genPrintnl emits the platform I/O path for the printnl builtin. The call
// result in rax mirrors last_printed_value: 1 for the string path, the
// printed value for the numeric path.
func (g *Generator) genPrintnl(arguments []parser.Expression) error {
	if len(arguments) == 0 {
		return g.errf("printnl requires at least one argument")
	}
	if err := g.genExpression(arguments[0]); err != nil {
		return err
	}

	if isStringArgument(arguments[0]) {
		if g.target == TargetWindows {
			g.genPrintStringWindows()
		} else {
			g.genPrintStringLinux()
		}
	} else {
		if g.target == TargetWindows {
			g.genPrintNumberWindows()
		} else {
			g.genPrintNumberLinux()
		}
	}

	g.emit("    mov eax, dword [last_printed_value]")
	return nil
}

// isStringArgument reports whether the argument takes the string output
// path: a string literal, or a concatenation with a string literal operand.
func isStringArgument(expr parser.Expression) bool {
	if isStringLiteral(expr) {
		return true
	}
	if bin, ok := expr.(*parser.BinaryExpression); ok {
		return isStringLiteral(bin.Left) || isStringLiteral(bin.Right)
	}
	return false
}

func (g *Generator) genPrintStringWindows() {
	loop := g.uniqueLabel("strlen_loop")
	done := g.uniqueLabel("strlen_done")

	g.emit("    mov dword [last_printed_value], 1")
	g.emit("    mov rsi, rax")
	// Resolve the stdout handle; 32 bytes of shadow space per Win64 ABI.
	g.emit("    mov rcx, STD_OUTPUT_HANDLE")
	g.emit("    sub rsp, 32")
	g.emit("    call GetStdHandle")
	g.emit("    add rsp, 32")
	g.emit("    mov rbx, rax")
	// Scan for the terminator to get the byte count.
	g.emit("    mov rdi, rsi")
	g.emit("    xor rcx, rcx")
	g.emitf("%s:", loop)
	g.emit("    cmp byte [rdi+rcx], 0")
	g.emitf("    je %s", done)
	g.emit("    inc rcx")
	g.emitf("    jmp %s", loop)
	g.emitf("%s:", done)
	g.emit("    mov r8, rcx")
	g.emitWriteConsole("rbx", "rsi", "")
	g.emitWriteConsole("rbx", "newline", "2")
}

func (g *Generator) genPrintNumberWindows() {
	g.emit("    mov dword [last_printed_value], eax")
	g.emitNumberToOutputBuffer()
	g.emit("    mov rcx, STD_OUTPUT_HANDLE")
	g.emit("    sub rsp, 32")
	g.emit("    call GetStdHandle")
	g.emit("    add rsp, 32")
	g.emit("    mov rsi, rax")
	// Digits run from rbx up to output_buffer+30.
	g.emit("    mov rdi, rbx")
	g.emit("    mov rcx, output_buffer")
	g.emit("    add rcx, 30")
	g.emit("    sub rcx, rdi")
	g.emit("    mov r8, rcx")
	g.emitWriteConsole("rsi", "rdi", "")
	g.emitWriteConsole("rsi", "newline", "2")
}

// emitWriteConsole emits one WriteConsoleA call. handle and text are
// registers or data labels; length is an immediate, or empty when r8 is
// already loaded.
func (g *Generator) emitWriteConsole(handle, text, length string) {
	g.emitf("    mov rcx, %s", handle)
	g.emitf("    mov rdx, %s", text)
	if length != "" {
		g.emitf("    mov r8, %s", length)
	}
	g.emit("    lea r9, [chars_written]")
	g.emit("    push 0")
	g.emit("    sub rsp, 32")
	g.emit("    call WriteConsoleA")
	g.emit("    add rsp, 40")
}

func (g *Generator) genPrintStringLinux() {
	loop := g.uniqueLabel("strlen_loop")
	done := g.uniqueLabel("strlen_done")

	g.emit("    mov dword [last_printed_value], 1")
	g.emit("    mov rsi, rax")
	g.emit("    xor rcx, rcx")
	g.emitf("%s:", loop)
	g.emit("    cmp byte [rsi+rcx], 0")
	g.emitf("    je %s", done)
	g.emit("    inc rcx")
	g.emitf("    jmp %s", loop)
	g.emitf("%s:", done)
	g.emit("    mov rdx, rcx")
	g.emitWriteSyscall()
	g.emit("    mov rsi, newline")
	g.emit("    mov rdx, 1")
	g.emitWriteSyscall()
}

func (g *Generator) genPrintNumberLinux() {
	g.emit("    mov dword [last_printed_value], eax")
	g.emitNumberToOutputBuffer()
	g.emit("    mov rsi, rbx")
	g.emit("    mov rdx, output_buffer")
	g.emit("    add rdx, 30")
	g.emit("    sub rdx, rbx")
	g.emitWriteSyscall()
	g.emit("    mov rsi, newline")
	g.emit("    mov rdx, 1")
	g.emitWriteSyscall()
}

// emitWriteSyscall emits a write(2) to stdout; rsi and rdx must already
// hold the buffer and length.
func (g *Generator) emitWriteSyscall() {
	g.emit("    mov rax, 1")
	g.emit("    mov rdi, 1")
	g.emit("    syscall")
}

// emitNumberToOutputBuffer converts the value in rax to decimal ASCII at
// the tail of the output buffer. On return rbx points at the first digit
// and the terminator sits at output_buffer+30.
func (g *Generator) emitNumberToOutputBuffer() {
	loop := g.uniqueLabel("int_to_str")

	g.emit("    mov rcx, 10")
	g.emit("    mov rbx, output_buffer")
	g.emit("    add rbx, 30")
	g.emit("    mov byte [rbx], 0")
	g.emit("    dec rbx")
	g.emitf("%s:", loop)
	g.emit("    xor rdx, rdx")
	g.emit("    div rcx")
	g.emit("    add dl, '0'")
	g.emit("    mov [rbx], dl")
	g.emit("    dec rbx")
	g.emit("    test rax, rax")
	g.emitf("    jnz %s", loop)
	g.emit("    inc rbx")
}

// ====== Shared runtime helpers ======

func (g *Generator) emitHelpers() {
	g.emit("")
	g.emit("; copy bytes from rsi to rdi until the NUL terminator; length in rax")
	g.emit("_string_copy:")
	g.emit("    xor rcx, rcx")
	g.emit(".copy_loop:")
	g.emit("    mov al, [rsi+rcx]")
	g.emit("    mov [rdi+rcx], al")
	g.emit("    inc rcx")
	g.emit("    test al, al")
	g.emit("    jnz .copy_loop")
	g.emit("    dec rcx")
	g.emit("    mov rax, rcx")
	g.emit("    ret")
}
