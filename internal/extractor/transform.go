package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// ParseTarget maps a target name such as "es2015" to the esbuild target.
func ParseTarget(name string) (api.Target, error) {
	t, ok := targets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("unsupported transform target: %q", name)
	}
	return t, nil
}

// ESBuildTransformer rewrites ES module syntax into CommonJS require/exports
// code and lowers newer syntax to the configured target.
type ESBuildTransformer struct {
	target api.Target
}

// NewESBuildTransformer creates a transformer for the named target.
func NewESBuildTransformer(target string) (*ESBuildTransformer, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &ESBuildTransformer{target: t}, nil
}

func (t *ESBuildTransformer) Transform(tree *SyntaxTree) (string, error) {
	result := api.Transform(string(tree.Source), api.TransformOptions{
		Loader:     loaderFor(tree.Path),
		Format:     api.FormatCommonJS,
		Target:     t.target,
		Sourcefile: tree.Path,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		terr := &TransformError{Path: tree.Path}
		for _, msg := range result.Errors {
			text := msg.Text
			if msg.Location != nil {
				text = fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column+1, text)
			}
			terr.Messages = append(terr.Messages, text)
		}
		return "", terr
	}
	return stripHashbang(string(result.Code)), nil
}

// stripHashbang drops a leading "#!" line. It is only legal at the very
// start of a script, and module code is embedded inside a function body.
func stripHashbang(code string) string {
	if !strings.HasPrefix(code, "#!") {
		return code
	}
	if i := strings.IndexByte(code, '\n'); i >= 0 {
		return code[i+1:]
	}
	return ""
}

func loaderFor(path string) api.Loader {
	if strings.EqualFold(filepath.Ext(path), ".jsx") {
		return api.LoaderJSX
	}
	return api.LoaderJS
}
