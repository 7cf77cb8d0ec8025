package exec

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// ErrInvalidExpression indicates an expression the calculator cannot evaluate.
var ErrInvalidExpression = errors.New("invalid expression")

// Evaluate computes the value of an arithmetic expression. Supported forms
// are numeric literals, unary minus, parentheses, and the binary operators
// + - * /.
func Evaluate(expression string) (float64, error) {
	node, err := parser.ParseExpr(expression)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return evalNode(node)
}

func evalNode(node ast.Expr) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return 0, fmt.Errorf("%w: literal %s", ErrInvalidExpression, n.Value)
		}
		return strconv.ParseFloat(n.Value, 64)

	case *ast.ParenExpr:
		return evalNode(n.X)

	case *ast.UnaryExpr:
		value, err := evalNode(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -value, nil
		case token.ADD:
			return value, nil
		default:
			return 0, fmt.Errorf("%w: unary %s", ErrInvalidExpression, n.Op)
		}

	case *ast.BinaryExpr:
		left, err := evalNode(n.X)
		if err != nil {
			return 0, err
		}
		right, err := evalNode(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return left + right, nil
		case token.SUB:
			return left - right, nil
		case token.MUL:
			return left * right, nil
		case token.QUO:
			if right == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrInvalidExpression)
			}
			return left / right, nil
		default:
			return 0, fmt.Errorf("%w: operator %s", ErrInvalidExpression, n.Op)
		}

	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidExpression, node)
	}
}
