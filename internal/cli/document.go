package cli

import (
	"errors"

	"github.com/roach88/pushdown/internal/loader"
	"github.com/roach88/pushdown/internal/predicate"
)

// loadDocument loads path, reporting a load failure through formatter as
// a command error.
func loadDocument(formatter *OutputFormatter, path string) (*loader.Document, error) {
	doc, err := loader.LoadFile(path)
	if err == nil {
		formatter.VerboseLog("Loaded %d filter(s) from %s", len(doc.Filters), path)
		return doc, nil
	}

	code, message := loadErrorParts(err)
	_ = formatter.Error(code, message, nil)
	return nil, WrapExitError(ExitCommandError, code, err)
}

func loadErrorParts(err error) (code, message string) {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		message = loadErr.Message
		if pos := loadErr.Pos.String(); pos != "" {
			message = pos + ": " + message
		}
		return loadErr.Code, message
	}
	return loader.ErrCodeGeneric, err.Error()
}

// describeFilter renders an evaluator for output.
func describeFilter(e predicate.Evaluator) string {
	switch ev := e.(type) {
	case predicate.PredicateEvaluator:
		return predicate.Format(ev.Tree)
	case predicate.GeneralEvaluator:
		return ev.Expr.String()
	default:
		return "<nil>"
	}
}
