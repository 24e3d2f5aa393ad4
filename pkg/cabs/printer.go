// Package cabs provides AST printing functionality, used by the CLI's
// debug-dump flags.
package cabs

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs the AST in a human-readable, re-parseable-ish form.
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// PrintProgram prints a complete program.
func (p *Printer) PrintProgram(prog *Program) {
	for _, d := range prog.Decls {
		p.printExternalDecl(d)
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printExternalDecl(d ExternalDecl) {
	switch v := d.(type) {
	case *FunDef:
		p.printFunDef(v)
	case *DeclGroup:
		p.printDeclGroup(v)
	default:
		fmt.Fprintf(p.w, "/* unknown external decl %T */\n", d)
	}
}

func (p *Printer) printFunDef(f *FunDef) {
	fmt.Fprintf(p.w, "%s %s(", p.typeSpec(f.Type.Return), f.Name)
	for i, param := range f.Type.Params {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		name := ""
		if i < len(f.ParamNames) {
			name = f.ParamNames[i]
		}
		fmt.Fprintf(p.w, "%s %s", p.typeSpec(param.Type), name)
	}
	if f.Type.Variadic {
		if len(f.Type.Params) > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprint(p.w, "...")
	}
	fmt.Fprintln(p.w, ")")
	p.printBlock(f.Body)
}

func (p *Printer) printDeclGroup(d *DeclGroup) {
	if len(d.Declarators) == 0 {
		p.printTagOnlyDecl(d.BaseType)
		return
	}
	for i, decl := range d.Declarators {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		} else {
			if decl.IsTypedef {
				fmt.Fprint(p.w, "typedef ")
			} else if decl.IsStatic {
				fmt.Fprint(p.w, "static ")
			} else if decl.IsExtern {
				fmt.Fprint(p.w, "extern ")
			}
			fmt.Fprintf(p.w, "%s ", p.typeSpec(d.BaseType))
		}
		fmt.Fprintf(p.w, "%s", decl.Identifier)
		if decl.Initializer != nil {
			fmt.Fprint(p.w, " = ")
			p.printInitializer(decl.Initializer)
		}
	}
	fmt.Fprintln(p.w, ";")
}

// printTagOnlyDecl prints a declaration with no declarators: either a
// struct/union body introduction (`struct Foo { ... };`) or a bare tag
// reference, which carries no visible effect beyond the semicolon.
func (p *Printer) printTagOnlyDecl(t *TypeSpec) {
	if t != nil && t.Kind == KindStructOrUnion && t.HasFields {
		kw := "struct"
		if t.IsUnion {
			kw = "union"
		}
		fmt.Fprintf(p.w, "%s %s {\n", kw, t.TagIdent)
		p.indent++
		for _, f := range t.Fields {
			p.writeIndent()
			fmt.Fprintf(p.w, "%s %s;\n", p.typeSpec(f.Type), f.Name)
		}
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, "};")
		return
	}
	fmt.Fprintln(p.w, ";")
}

func (p *Printer) printInitializer(init Initializer) {
	switch v := init.(type) {
	case ExprInitializer:
		p.printExpr(v.Expr)
	case ListInitializer:
		fmt.Fprint(p.w, "{ ")
		for i, e := range v.Elements {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			p.printInitializer(e)
		}
		fmt.Fprint(p.w, " }")
	}
}

func (p *Printer) typeSpec(t *TypeSpec) string {
	if t == nil {
		return "?"
	}
	prefix := ""
	if t.IsConst {
		prefix = "const "
	}
	switch t.Kind {
	case KindVoid:
		return prefix + "void"
	case KindBool:
		return prefix + "_Bool"
	case KindChar, KindShort, KindInt, KindLong, KindLongLong:
		name := map[TypeKind]string{KindChar: "char", KindShort: "short", KindInt: "int", KindLong: "long", KindLongLong: "long long"}[t.Kind]
		if t.Unsigned {
			name = "unsigned " + name
		}
		return prefix + name
	case KindFloat:
		return prefix + "float"
	case KindDouble:
		return prefix + "double"
	case KindLongDouble:
		return prefix + "long double"
	case KindPointer:
		return prefix + p.typeSpec(t.Elem) + " *"
	case KindArray:
		return prefix + p.typeSpec(t.Elem) + " []"
	case KindStructOrUnion:
		kw := "struct"
		if t.IsUnion {
			kw = "union"
		}
		return prefix + kw + " " + t.TagIdent
	case KindTypedefName:
		return prefix + t.Name
	case KindFunction:
		return prefix + p.typeSpec(t.Return) + " (...)"
	default:
		return "?"
	}
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, item := range b.Items {
		if item.Decl != nil {
			p.writeIndent()
			p.printDeclGroup(item.Decl)
		} else {
			p.printStmt(item.Stmt)
		}
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printStmt(stmt Stmt) {
	p.writeIndent()
	switch s := stmt.(type) {
	case *ReturnStmt:
		fmt.Fprint(p.w, "return")
		if s.Expr != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case *ExprStmt:
		if s.Expr != nil {
			p.printExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case *IfStmt:
		fmt.Fprint(p.w, "if (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.indent++
		p.printStmt(s.Then)
		p.indent--
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.indent++
			p.printStmt(s.Else)
			p.indent--
		}
	case *WhileStmt:
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.indent++
		p.printStmt(s.Body)
		p.indent--
	case *DoWhileStmt:
		fmt.Fprintln(p.w, "do")
		p.indent++
		p.printStmt(s.Body)
		p.indent--
		p.writeIndent()
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ");")
	case *ForStmt:
		fmt.Fprint(p.w, "for (")
		if s.InitDecl != nil {
			p.printDeclGroupInline(s.InitDecl)
		} else if s.Init != nil {
			p.printExpr(s.Init)
		}
		fmt.Fprint(p.w, "; ")
		if s.Cond != nil {
			p.printExpr(s.Cond)
		}
		fmt.Fprint(p.w, "; ")
		if s.Post != nil {
			p.printExpr(s.Post)
		}
		fmt.Fprintln(p.w, ")")
		p.indent++
		p.printStmt(s.Body)
		p.indent--
	case *BreakStmt:
		fmt.Fprintln(p.w, "break;")
	case *ContinueStmt:
		fmt.Fprintln(p.w, "continue;")
	case *GotoStmt:
		fmt.Fprintf(p.w, "goto %s;\n", s.Label)
	case *LabelStmt:
		fmt.Fprintf(p.w, "%s:\n", s.Label)
		p.printStmt(s.Stmt)
	case *Block:
		p.indent--
		p.printBlock(s)
		p.indent++
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

func (p *Printer) printDeclGroupInline(d *DeclGroup) {
	fmt.Fprintf(p.w, "%s ", p.typeSpec(d.BaseType))
	for i, decl := range d.Declarators {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprint(p.w, decl.Identifier)
		if decl.Initializer != nil {
			fmt.Fprint(p.w, " = ")
			p.printInitializer(decl.Initializer)
		}
	}
}

func (p *Printer) printExpr(expr Expr) {
	switch e := expr.(type) {
	case *IntLit:
		fmt.Fprintf(p.w, "%d", e.Value)
	case *FloatLit:
		fmt.Fprintf(p.w, "%g", e.Value)
	case *StringLit:
		fmt.Fprintf(p.w, "%q", e.Value)
	case *CharLit:
		fmt.Fprintf(p.w, "'\\x%02x'", e.Value)
	case *Ident:
		fmt.Fprint(p.w, e.Name)
	case *UnaryExpr:
		fmt.Fprint(p.w, e.Op.String())
		p.printExpr(e.Expr)
	case *IncDecExpr:
		op := "++"
		if !e.Inc {
			op = "--"
		}
		if e.Prefix {
			fmt.Fprint(p.w, op)
			p.printExpr(e.Expr)
		} else {
			p.printExpr(e.Expr)
			fmt.Fprint(p.w, op)
		}
	case *BinaryExpr:
		p.printExpr(e.Left)
		fmt.Fprintf(p.w, " %s ", e.Op.String())
		p.printExpr(e.Right)
	case *AssignExpr:
		p.printExpr(e.Left)
		fmt.Fprint(p.w, " = ")
		p.printExpr(e.Right)
	case *ParenExpr:
		fmt.Fprint(p.w, "(")
		p.printExpr(e.Expr)
		fmt.Fprint(p.w, ")")
	case *CondExpr:
		p.printExpr(e.Cond)
		fmt.Fprint(p.w, " ? ")
		p.printExpr(e.Then)
		fmt.Fprint(p.w, " : ")
		p.printExpr(e.Else)
	case *CallExpr:
		p.printExpr(e.Callee)
		fmt.Fprint(p.w, "(")
		for i, arg := range e.Args {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			p.printExpr(arg)
		}
		fmt.Fprint(p.w, ")")
	case *IndexExpr:
		p.printExpr(e.Array)
		fmt.Fprint(p.w, "[")
		p.printExpr(e.Index)
		fmt.Fprint(p.w, "]")
	case *MemberExpr:
		p.printExpr(e.Target)
		if e.IsArrow {
			fmt.Fprint(p.w, "->")
		} else {
			fmt.Fprint(p.w, ".")
		}
		fmt.Fprint(p.w, e.Name)
	case *SizeofExpr:
		fmt.Fprint(p.w, "sizeof ")
		p.printExpr(e.Expr)
	case *SizeofType:
		fmt.Fprintf(p.w, "sizeof(%s)", p.typeSpec(e.Type))
	case *CastExpr:
		fmt.Fprintf(p.w, "(%s)", p.typeSpec(e.Type))
		p.printExpr(e.Expr)
	default:
		fmt.Fprintf(p.w, "/* unknown expr %T */", expr)
	}
}
