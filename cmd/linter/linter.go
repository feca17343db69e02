package main

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/singlechecker"
)

// Analyzer находит вызовы Acquire, результат которых отбрасывается.
// Соединение, не присвоенное переменной, невозможно вернуть в пул —
// его слот будет занят до истечения аренды.
var Analyzer = &analysis.Analyzer{
	Name: "acquirecheck",
	Doc:  "проверяет, что соединение из Acquire не отбрасывается",
	Run:  run,
}

func main() {
	singlechecker.Main(Analyzer)
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch stmt := n.(type) {
			case *ast.ExprStmt:
				call, ok := stmt.X.(*ast.CallExpr)
				if ok && isAcquireCall(call) {
					pass.Reportf(call.Pos(), "результат Acquire отброшен: соединение невозможно вернуть в пул")
				}
			case *ast.AssignStmt:
				if len(stmt.Rhs) != 1 {
					return true
				}
				call, ok := stmt.Rhs[0].(*ast.CallExpr)
				if !ok || !isAcquireCall(call) {
					return true
				}
				if len(stmt.Lhs) > 0 && isBlank(stmt.Lhs[0]) {
					pass.Reportf(call.Pos(), "соединение из Acquire присвоено пустому идентификатору")
				}
			}

			return true
		})
	}

	return nil, nil
}

func isAcquireCall(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	return ok && sel.Sel.Name == "Acquire"
}

func isBlank(e ast.Expr) bool {
	ident, ok := e.(*ast.Ident)
	return ok && ident.Name == "_"
}
