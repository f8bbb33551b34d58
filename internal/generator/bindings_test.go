package generator

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

// parsedBindings is what a generated file binds, recovered from its syntax
// tree so tests can exercise the lookups without compiling the output.
type parsedBindings struct {
	pkg         string
	embeds      map[string]string // variable -> //go:embed path
	varTypes    map[string]string // variable -> "string" or "[]byte"
	configs     map[string]string // id -> variable
	configOrder []string
	images      map[[2]string]string // (id, name) -> variable
	imageOrder  [][2]string
	ids         []string
}

func parseBindings(t *testing.T, src []byte) parsedBindings {
	t.Helper()

	file, err := parser.ParseFile(token.NewFileSet(), "embedded.go", src, parser.ParseComments)
	require.NoError(t, err, "generated source does not parse:\n%s", src)

	b := parsedBindings{
		pkg:      file.Name.Name,
		embeds:   map[string]string{},
		varTypes: map[string]string{},
		configs:  map[string]string{},
		images:   map[[2]string]string{},
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs := spec.(*ast.ValueSpec)
				name := vs.Names[0].Name
				if d.Doc != nil {
					for _, c := range d.Doc.List {
						if rest, ok := strings.CutPrefix(c.Text, "//go:embed "); ok {
							p, err := strconv.Unquote(rest)
							require.NoError(t, err)
							b.embeds[name] = p
						}
					}
				}
				switch typ := vs.Type.(type) {
				case *ast.Ident:
					b.varTypes[name] = typ.Name
				case *ast.ArrayType:
					b.varTypes[name] = "[]" + typ.Elt.(*ast.Ident).Name
				}
				if name == "assetbindIDs" {
					for _, elt := range vs.Values[0].(*ast.CompositeLit).Elts {
						b.ids = append(b.ids, unquoteLit(t, elt))
					}
				}
			}
		case *ast.FuncDecl:
			switch d.Name.Name {
			case "GetConfig":
				for _, id := range caseClauses(d.Body.List[0].(*ast.SwitchStmt)) {
					v := returnedVar(id.clause)
					b.configs[id.value] = v
					b.configOrder = append(b.configOrder, id.value)
				}
			case "GetImage":
				for _, outer := range caseClauses(d.Body.List[0].(*ast.SwitchStmt)) {
					inner := outer.clause.Body[0].(*ast.SwitchStmt)
					for _, name := range caseClauses(inner) {
						key := [2]string{outer.value, name.value}
						b.images[key] = returnedVar(name.clause)
						b.imageOrder = append(b.imageOrder, key)
					}
				}
			}
		}
	}
	return b
}

type caseValue struct {
	value  string
	clause *ast.CaseClause
}

func caseClauses(sw *ast.SwitchStmt) []caseValue {
	var out []caseValue
	for _, stmt := range sw.Body.List {
		cc := stmt.(*ast.CaseClause)
		lit := cc.List[0].(*ast.BasicLit)
		v, _ := strconv.Unquote(lit.Value)
		out = append(out, caseValue{value: v, clause: cc})
	}
	return out
}

func returnedVar(cc *ast.CaseClause) string {
	ret := cc.Body[0].(*ast.ReturnStmt)
	return ret.Results[0].(*ast.Ident).Name
}

func unquoteLit(t *testing.T, e ast.Expr) string {
	t.Helper()
	v, err := strconv.Unquote(e.(*ast.BasicLit).Value)
	require.NoError(t, err)
	return v
}

// lookups evaluates the generated GetConfig/GetImage against fs, reading
// embedded files relative to the output directory the way the go command
// would.
type lookups struct {
	t         *testing.T
	b         parsedBindings
	fs        billy.Filesystem
	outputDir string
}

func (l lookups) content(v string) []byte {
	l.t.Helper()
	p, ok := l.b.embeds[v]
	require.True(l.t, ok, "variable %s has no //go:embed directive", v)
	data, err := util.ReadFile(l.fs, path.Join(l.outputDir, p))
	require.NoError(l.t, err)
	return data
}

func (l lookups) GetConfig(id string) (string, bool) {
	v, ok := l.b.configs[id]
	if !ok {
		return "", false
	}
	return string(l.content(v)), true
}

func (l lookups) GetImage(id, name string) ([]byte, bool) {
	v, ok := l.b.images[[2]string{id, name}]
	if !ok {
		return nil, false
	}
	return l.content(v), true
}
