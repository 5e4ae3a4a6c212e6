package model

import (
	"fmt"
	"strings"
)

// Format renders e as compact, deterministic text for error messages and
// debugging. The output is not query language text.
func Format(e Expr) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

func format(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Constant:
		switch v := n.Value.(type) {
		case string:
			fmt.Fprintf(b, "%q", v)
		case *Lambda:
			format(b, v)
		case nil:
			b.WriteString("null")
		default:
			fmt.Fprintf(b, "%v", v)
		}
	case *CollectionRef:
		switch {
		case n.Collection != "":
			fmt.Fprintf(b, "Collection(%s)", n.Collection)
		case n.ItemType != nil:
			fmt.Fprintf(b, "Collection(%s)", n.ItemType.Name())
		default:
			b.WriteString("Query()")
		}
	case *Parameter:
		b.WriteString(n.Name)
	case *Lambda:
		if len(n.Params) == 1 {
			b.WriteString(n.Params[0].Name)
		} else {
			b.WriteByte('(')
			for i, p := range n.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(p.Name)
			}
			b.WriteByte(')')
		}
		b.WriteString(" => ")
		format(b, n.Body)
	case *Quote:
		format(b, n.Operand)
	case *Member:
		format(b, n.Target)
		b.WriteByte('.')
		b.WriteString(n.Name)
	case *Index:
		format(b, n.Target)
		b.WriteByte('[')
		format(b, n.Index)
		b.WriteByte(']')
	case *Binary:
		b.WriteByte('(')
		format(b, n.Left)
		fmt.Fprintf(b, " %s ", n.Op)
		format(b, n.Right)
		b.WriteByte(')')
	case *Unary:
		b.WriteString(n.Op.String())
		format(b, n.Operand)
	case *Conditional:
		b.WriteByte('(')
		format(b, n.Test)
		b.WriteString(" ? ")
		format(b, n.Then)
		b.WriteString(" : ")
		format(b, n.Else)
		b.WriteByte(')')
	case *Convert:
		b.WriteString("Convert(")
		format(b, n.Operand)
		fmt.Fprintf(b, ", %v)", n.Type)
	case *Call:
		b.WriteString(n.Function)
		formatArgs(b, n.Args)
	case *MethodCall:
		format(b, n.Source)
		b.WriteByte('.')
		b.WriteString(n.Method)
		if len(n.TypeArgs) > 0 {
			b.WriteByte('[')
			for i, t := range n.TypeArgs {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(b, "%v", t)
			}
			b.WriteByte(']')
		}
		formatArgs(b, n.Args)
	case *New:
		b.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			format(b, f.Value)
		}
		b.WriteByte('}')
	case *List:
		b.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, item)
		}
		b.WriteByte(']')
	case *SourceRef:
		fmt.Fprintf(b, "[#%d]", n.Source)
	case *SubQuery:
		if n.Model != nil {
			fmt.Fprintf(b, "{%s}", n.Model)
		} else {
			b.WriteByte('{')
			format(b, n.Chain)
			b.WriteByte('}')
		}
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func formatArgs(b *strings.Builder, args []Expr) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, a)
	}
	b.WriteByte(')')
}
