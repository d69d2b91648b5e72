package compile

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"

	"github.com/shipq/queries/dbstrings"
)

// Names are the package-level identifiers generated for one interface.
type Names struct {
	Interface string
	DB        string
	Tx        string
	NewDB     string
	NewTx     string
}

// NamesFor returns the identifiers generated for interface iface. Unexported
// interfaces get unexported constructors.
func NamesFor(iface string) Names {
	n := Names{Interface: iface, DB: iface + "DB", Tx: iface + "Tx"}
	if ast.IsExported(iface) {
		n.NewDB, n.NewTx = "New"+iface+"DB", "New"+iface+"Tx"
	} else {
		upper := dbstrings.ToUpperFirst(iface)
		n.NewDB, n.NewTx = "new"+upper+"DB", "new"+upper+"Tx"
	}
	return n
}

// SQLConst is the constant holding the query text of op.
func (n Names) SQLConst(op string) string {
	return dbstrings.ToLowerCamel(n.Interface) + op + "SQL"
}

// RunFunc is the function both receivers call to run op.
func (n Names) RunFunc(op string) string {
	return "run" + dbstrings.ToUpperFirst(n.Interface) + op
}

// checkNames reports package-level identifiers that two declarations of
// plan would both generate or declare.
func checkNames(errs *scanner.ErrorList, plan *Plan) {
	owner := make(map[string]string)
	claim := func(ident, by string, pos token.Position) {
		if prev, ok := owner[ident]; ok {
			errs.Add(pos, fmt.Sprintf("%s: generated identifier %s collides with %s", by, ident, prev))
			return
		}
		owner[ident] = by
	}

	for _, iface := range plan.Interfaces {
		claim(iface.Name, "interface "+iface.Name, iface.Pos)
	}
	for _, iface := range plan.Interfaces {
		n := NamesFor(iface.Name)
		for _, ident := range []string{n.DB, n.Tx, n.NewDB, n.NewTx} {
			claim(ident, "interface "+iface.Name, iface.Pos)
		}
		for _, op := range iface.Operations {
			by := iface.Name + "." + op.Name
			claim(n.SQLConst(op.Name), by, op.Pos)
			claim(n.RunFunc(op.Name), by, op.Pos)
		}
	}
}
