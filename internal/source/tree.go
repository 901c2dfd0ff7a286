package source

// Statement is one parsed statement with its textual substatements.
type Statement struct {
	Keyword       string
	Argument      string
	Ref           Ref
	Substatements []*Statement
}

// Tree is a StreamSource replaying an in-memory statement tree.
type Tree struct {
	ID   Identifier
	Root *Statement
}

// Identifier returns the identifier the tree was created with.
func (t *Tree) Identifier() Identifier { return t.ID }

// WriteStatements replays the tree. Statements from an earlier pass are
// resumed; new ones are started only when accept allows their keyword.
func (t *Tree) WriteStatements(w StatementWriter, accept KeywordFilter) error {
	if t.Root == nil {
		return nil
	}
	_, err := writeStatement(w, accept, t.Root, 0)
	return err
}

// writeStatement reports whether the statement and its whole subtree were
// written in this pass.
func writeStatement(w StatementWriter, accept KeywordFilter, stmt *Statement, offset int) (bool, error) {
	switch w.ResumeStatement(offset) {
	case FullyDefined:
		return true, nil
	case NotStarted:
		if !accept(stmt.Keyword) {
			return false, nil
		}
		if err := w.StartStatement(offset, stmt.Keyword, stmt.Argument, stmt.Ref); err != nil {
			return false, err
		}
	}
	full := true
	for i, sub := range stmt.Substatements {
		ok, err := writeStatement(w, accept, sub, i)
		if err != nil {
			return false, err
		}
		full = full && ok
	}
	w.StoreStatement(len(stmt.Substatements), full)
	if err := w.EndStatement(stmt.Ref); err != nil {
		return false, err
	}
	return full, nil
}
